// Command simulator registers a synthetic driver fleet with the API and
// publishes MQTT heartbeats for it.
package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/infra/logger"
	"github.com/kilianp07/cabmatch/infra/mqtt"
)

func main() {
	cfg := parseFlags()
	log := logger.New("simulator")
	if err := (&cfg).Validate(); err != nil {
		log.Errorf("invalid config: %v", err)
		os.Exit(2)
	}
	lvl := "info"
	if cfg.Verbose {
		lvl = "debug"
	}
	if err := logger.Configure(logger.Options{Level: lvl}); err != nil {
		log.Errorf("logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prof := FullAvailability()
	if cfg.AvailabilityFile != "" {
		data, err := os.ReadFile(cfg.AvailabilityFile)
		if err == nil {
			prof, err = LoadAvailabilityProfile(data)
		}
		if err != nil {
			log.Errorf("availability file: %v", err)
			os.Exit(1)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	fleet := GenerateFleet(FleetConfig{
		Size:         cfg.Count,
		Center:       model.Coordinate{Lat: cfg.CenterLat, Lng: cfg.CenterLng},
		SpreadKm:     cfg.SpreadKm,
		Availability: prof,
		DropRate:     cfg.DropRate,
		BusyRate:     cfg.BusyRate,
	}, r)

	if cfg.APIURL != "" {
		client := &http.Client{Timeout: 10 * time.Second}
		if err := registerFleet(ctx, client, cfg.APIURL, fleet, time.Now()); err != nil {
			log.Errorf("register fleet: %v", err)
			os.Exit(1)
		}
		log.Infof("registered %d drivers with %s", len(fleet), cfg.APIURL)
	}

	cli, err := newMQTTClient(cfg.Broker, "cabmatch-sim")
	if err != nil {
		log.Errorf("mqtt connect: %v", err)
		os.Exit(1)
	}
	defer cli.Disconnect(250)

	run(ctx, cli, fleet, cfg, r, log)
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.Topic, "topic", mqtt.DefaultHeartbeatTopic, "heartbeat topic pattern")
	flag.StringVar(&cfg.APIURL, "api", "", "register the fleet with this API base URL first")
	flag.IntVar(&cfg.Count, "count", 10, "number of drivers")
	flag.DurationVar(&cfg.Interval, "interval", 30*time.Second, "heartbeat interval")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "probability of skipping a heartbeat")
	flag.Float64Var(&cfg.BusyRate, "busy-rate", 0.2, "probability of reporting busy")
	flag.Float64Var(&cfg.CenterLat, "lat", 12.9716, "fleet centre latitude")
	flag.Float64Var(&cfg.CenterLng, "lng", 77.5946, "fleet centre longitude")
	flag.Float64Var(&cfg.SpreadKm, "spread-km", 10, "side of the square the fleet is scattered over")
	flag.StringVar(&cfg.AvailabilityFile, "availability-file", "", "hourly availability JSON")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 for time based")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	return cfg
}

// tick publishes one round of heartbeats and returns how many were sent.
func tick(cli publisher, fleet []SimulatedDriver, topic string, now time.Time, r *rand.Rand, log logger.Logger) int {
	sent := 0
	for _, d := range fleet {
		state, ok := d.Next(now, r)
		if !ok {
			log.Debugf("%s skips heartbeat", d.ID)
			continue
		}
		if err := publishHeartbeat(cli, topic, d.ID, state, now); err != nil {
			log.Warnf("%s: %v", d.ID, err)
			continue
		}
		sent++
	}
	return sent
}

func run(ctx context.Context, cli publisher, fleet []SimulatedDriver, cfg Config, r *rand.Rand, log logger.Logger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		sent := tick(cli, fleet, cfg.Topic, time.Now(), r, log)
		log.Debugf("published %d/%d heartbeats", sent, len(fleet))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
