package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/cabmatch/core/metrics"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/infra/logger"
)

// InfluxSink writes allocation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string, log logger.Logger) *InfluxSink {
	if log == nil {
		log = logger.New("influx-sink")
	}
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      log,
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string, log logger.Logger) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAllocation writes one "allocation" point per attempt.
func (s *InfluxSink) RecordAllocation(ev coremetrics.AllocationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("allocation").
		AddTag("category", string(ev.Category)).
		AddTag("outcome", ev.Outcome()).
		AddTag("component", "dispatch_manager")
	if ev.DriverID != "" {
		p = p.AddTag("driver_id", ev.DriverID)
	}
	p = p.AddField("request_id", ev.RequestID).
		AddField("candidates", ev.Candidates).
		AddField("surge", round3(ev.Surge)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	if ev.Matched {
		p = p.AddField("distance_km", round3(ev.DistanceKm)).
			AddField("pickup_km", round3(ev.PickupKm)).
			AddField("eta_min", round3(ev.EtaMin)).
			AddField("fare", round3(ev.Fare))
	}
	for reason, n := range ev.Exclusions {
		p = p.AddField("excluded_"+reason, n)
	}
	return s.writeAPI.WritePoint(ctx, p.SetTime(ev.Time))
}

// RecordDriverTimeout writes a "driver_timeout" point.
func (s *InfluxSink) RecordDriverTimeout(ev coremetrics.DriverTimeoutEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("driver_timeout").
		AddTag("driver_id", ev.DriverID).
		AddTag("source", ev.Source).
		AddField("silence_s", round3(ev.Time.Sub(ev.LastPing).Seconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFleetSize writes a "fleet_size" point with one field per state.
func (s *InfluxSink) RecordFleetSize(counts map[model.DriverState]int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_size").
		AddTag("component", "registry")
	for _, st := range []model.DriverState{model.StateAvailable, model.StateBusy, model.StateOffline, model.StateTimedOut} {
		p = p.AddField(string(st), counts[st])
	}
	return s.writeAPI.WritePoint(ctx, p.SetTime(time.Now()))
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
