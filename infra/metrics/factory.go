package metrics

import (
	"fmt"

	"github.com/kilianp07/cabmatch/core/factory"
	coremetrics "github.com/kilianp07/cabmatch/core/metrics"
	corekpi "github.com/kilianp07/cabmatch/core/metrics/kpi"
	"github.com/kilianp07/cabmatch/infra/kpi"
	"github.com/kilianp07/cabmatch/infra/logger"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(logger.Logger, map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(_ logger.Logger, conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct{}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromSink()
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(log logger.Logger, conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket, log), nil
	})

	_ = coremetrics.RegisterMetricsSink("sqlite", func(_ logger.Logger, conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite sink: path is required")
		}
		store, err := kpi.NewSQLiteStore(c.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite sink: %w", err)
		}
		return corekpi.NewSink(store), nil
	})
}
