package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cabmatch/core/allocation"
	"github.com/kilianp07/cabmatch/core/events"
	"github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/model"
	coremon "github.com/kilianp07/cabmatch/core/monitoring"
	"github.com/kilianp07/cabmatch/core/registry"
	"github.com/kilianp07/cabmatch/internal/eventbus"
)

var noon = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordSink struct {
	mu     sync.Mutex
	events []metrics.AllocationEvent
	fleet  map[model.DriverState]int
	err    error
}

func (r *recordSink) RecordAllocation(ev metrics.AllocationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordSink) RecordFleetSize(c map[model.DriverState]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fleet = c
	return nil
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func newPool(t *testing.T, drivers ...model.Driver) *registry.MemoryStore {
	t.Helper()
	s := registry.NewMemoryStore()
	for _, d := range drivers {
		s.Register(d)
	}
	return s
}

func mini(id string, lng float64, lastPing time.Time) model.Driver {
	return model.Driver{
		ID:       id,
		Location: model.Coordinate{Lng: lng},
		Category: model.CategoryMini,
		State:    model.StateAvailable,
		LastPing: lastPing,
	}
}

func newTestManager(t *testing.T, pool registry.Store, sink metrics.MetricsSink, bus eventbus.EventBus) *Manager {
	t.Helper()
	ResetMetrics(prometheus.NewRegistry())
	t.Cleanup(func() { ResetMetrics(nil) })
	m, err := NewManager(allocation.NewNearestStrategy(nil, nil, nil, 0), pool, 0, sink, bus, nil)
	require.NoError(t, err)
	m.now = func() time.Time { return noon }
	return m
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	_, err := NewManager(nil, registry.NewMemoryStore(), 0, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewManager(allocation.NewNearestStrategy(nil, nil, nil, 0), nil, 0, nil, nil, nil)
	assert.Error(t, err)
}

func TestManagerAllocate(t *testing.T) {
	pool := newPool(t,
		mini("far", 0.03, noon.Add(-time.Minute)),
		mini("near", 0.01, noon.Add(-time.Minute)),
	)
	sink := &recordSink{}
	m := newTestManager(t, pool, sink, nil)

	req := model.RideRequest{ID: "r1", Dropoff: model.Coordinate{Lng: 0.1}, Category: model.CategoryMini, SurgeMultiplier: 1}
	est, ok := m.Allocate(req)
	require.True(t, ok)
	assert.Equal(t, "near", est.DriverID)
	assert.Equal(t, noon, est.Request.Timestamp, "zero timestamp defaults to now")

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.True(t, ev.Matched)
	assert.Equal(t, "matched", ev.Outcome())
	assert.Equal(t, "near", ev.DriverID)
	assert.Equal(t, 2, ev.Candidates)
	assert.InDelta(t, est.Fare, ev.Fare, 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(allocationDuration))
}

func TestManagerAllocateNoMatch(t *testing.T) {
	pool := newPool(t, model.Driver{
		ID: "busy", Category: model.CategoryMini, State: model.StateBusy, LastPing: noon,
	})
	sink := &recordSink{}
	m := newTestManager(t, pool, sink, nil)

	est, ok := m.Allocate(model.RideRequest{ID: "r2", Category: model.CategoryMini, SurgeMultiplier: 1, Timestamp: noon})
	assert.False(t, ok)
	assert.Equal(t, model.RideEstimate{}, est)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "no_match", sink.events[0].Outcome())
	assert.Equal(t, map[string]int{string(allocation.ReasonInactive): 1}, sink.events[0].Exclusions)
	assert.Equal(t, 1.0, testutil.ToFloat64(driverExclusions.WithLabelValues(string(allocation.ReasonInactive))))
}

func TestManagerAllocateTimesOutStaleDrivers(t *testing.T) {
	pool := newPool(t,
		mini("stale", 0, noon.Add(-901*time.Second)),
		mini("fresh", 0.01, noon.Add(-900*time.Second)),
	)
	bus := eventbus.New()
	sub := bus.Subscribe()
	m := newTestManager(t, pool, nil, bus)

	est, ok := m.Allocate(model.RideRequest{ID: "r3", Category: model.CategoryMini, SurgeMultiplier: 1, Timestamp: noon})
	require.True(t, ok)
	assert.Equal(t, "fresh", est.DriverID)

	stale, err := pool.Get("stale")
	require.NoError(t, err)
	assert.Equal(t, model.StateTimedOut, stale.State)

	select {
	case e := <-sub:
		ev, ok := e.(events.DriverTimeoutEvent)
		require.True(t, ok)
		assert.Equal(t, "stale", ev.Transition.DriverID)
		assert.Equal(t, events.SourceAllocation, ev.Source)
	case <-time.After(time.Second):
		t.Fatal("timeout event not published")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(driverTimeouts.WithLabelValues(events.SourceAllocation)))
	require.NoError(t, m.Close())
}

func TestManagerSweep(t *testing.T) {
	pool := newPool(t,
		mini("a", 0, noon.Add(-20*time.Minute)),
		mini("b", 0, noon.Add(-time.Minute)),
		model.Driver{ID: "c", Category: model.CategoryBike, State: model.StateOffline, LastPing: noon.Add(-time.Hour)},
	)
	sink := &recordSink{}
	m := newTestManager(t, pool, sink, nil)

	applied := m.Sweep(noon)
	require.Len(t, applied, 1)
	assert.Equal(t, "a", applied[0].DriverID)
	assert.Equal(t, map[model.DriverState]int{
		model.StateTimedOut:  1,
		model.StateAvailable: 1,
		model.StateOffline:   1,
	}, sink.fleet)
	assert.Empty(t, m.Sweep(noon), "second sweep is a no-op")
	assert.Equal(t, 1.0, testutil.ToFloat64(driverTimeouts.WithLabelValues(events.SourceSweep)))
}

func TestManagerSinkErrorCaptured(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	sink := &recordSink{err: errors.New("boom")}
	m := newTestManager(t, newPool(t), sink, nil)
	_, ok := m.Allocate(model.RideRequest{ID: "r4", Category: model.CategoryMini, SurgeMultiplier: 1, Timestamp: noon})
	assert.False(t, ok)
	require.Error(t, mon.err)
	assert.Equal(t, "dispatch_manager", mon.tags["module"])
	assert.Equal(t, "r4", mon.tags["request_id"])
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := newTestManager(t, newPool(t), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	returned := make(chan struct{})
	go func() {
		m.Run(context.Background(), 0)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Run with disabled interval should return")
	}
}
