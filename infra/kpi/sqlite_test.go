package kpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cabmatch/core/metrics"
	core "github.com/kilianp07/cabmatch/core/metrics/kpi"
	"github.com/kilianp07/cabmatch/core/model"
)

func TestSQLiteStoreAggregates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "kpi.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	day := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Add(core.Record{Category: model.CategorySedan, Date: day, Requests: 1, Matched: 1, FareTotal: 120, PickupKmTotal: 2}))
	require.NoError(t, store.Add(core.Record{Category: model.CategorySedan, Date: day.Add(3 * time.Hour), Requests: 1}))
	require.NoError(t, store.Add(core.Record{Category: model.CategoryBike, Date: day, Requests: 2, Matched: 1, FareTotal: 40, PickupKmTotal: 1}))
	require.NoError(t, store.Add(core.Record{Category: model.CategorySedan, Date: day.AddDate(0, 0, 2), Requests: 1}))

	recs, err := store.Query(day, day)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.CategoryBike, recs[0].Category)
	assert.Equal(t, model.CategorySedan, recs[1].Category)
	assert.Equal(t, core.Day(day), recs[1].Date)
	assert.Equal(t, 2, recs[1].Requests)
	assert.Equal(t, 1, recs[1].Matched)
	assert.Equal(t, 120.0, recs[1].FareTotal)
	assert.Equal(t, 0.5, recs[1].MatchRate())

	recs, err = store.Query(day, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(core.Record{Category: model.CategoryEV, Date: day, Requests: 1}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.Query(day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Requests)
}

func TestSQLiteBackedSink(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	sink := core.NewSink(store)
	defer sink.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordAllocation(metrics.AllocationEvent{Category: model.CategoryMini, Matched: true, Fare: 90, PickupKm: 0.5, Time: at}))
	require.NoError(t, sink.RecordAllocation(metrics.AllocationEvent{Category: model.CategoryMini, Time: at}))

	recs, err := store.Query(at, at)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].Requests)
	assert.Equal(t, 90.0, recs[0].AvgFare())
}
