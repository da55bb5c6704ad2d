package metrics

import (
	"context"

	"github.com/kilianp07/cabmatch/core/events"
	"github.com/kilianp07/cabmatch/core/logger"
	coremetrics "github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.DriverTimeoutRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.DriverTimeoutEvent:
					err := rec.RecordDriverTimeout(coremetrics.DriverTimeoutEvent{
						DriverID: e.Transition.DriverID,
						LastPing: e.Transition.LastPing,
						Source:   e.Source,
						Time:     e.Transition.At,
					})
					if err != nil {
						log.Warnf("record driver timeout %s: %v", e.Transition.DriverID, err)
					}
				}
			}
		}
	}()
	return done
}
