package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cabmatch/core/factory"
	coremetrics "github.com/kilianp07/cabmatch/core/metrics"
	corekpi "github.com/kilianp07/cabmatch/core/metrics/kpi"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/infra/kpi"
	"github.com/kilianp07/cabmatch/infra/logger"
)

func TestFactorySQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.db")
	sink, err := coremetrics.NewMetricsSink(logger.NopLogger{}, []factory.ModuleConfig{
		{Type: "sqlite", Conf: map[string]any{"path": path}},
	})
	require.NoError(t, err)
	require.IsType(t, &corekpi.Sink{}, sink)

	at := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sink.RecordAllocation(coremetrics.AllocationEvent{Category: model.CategorySUV, Matched: true, Fare: 300, Time: at}))
	sink.(*corekpi.Sink).Close()

	store, err := kpi.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.Query(at, at)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 300.0, recs[0].FareTotal)
}

func TestFactorySQLiteSinkNeedsPath(t *testing.T) {
	_, err := coremetrics.NewMetricsSink(logger.NopLogger{}, []factory.ModuleConfig{{Type: "sqlite"}})
	assert.ErrorContains(t, err, "path is required")
}

func TestFactoryNopAndPrometheus(t *testing.T) {
	sink, err := coremetrics.NewMetricsSink(logger.NopLogger{}, []factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	require.NoError(t, err)
	multi, ok := sink.(*coremetrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)
}
