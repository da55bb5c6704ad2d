// Package app assembles the allocator service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/cabmatch/api"
	"github.com/kilianp07/cabmatch/config"
	"github.com/kilianp07/cabmatch/core/allocation"
	"github.com/kilianp07/cabmatch/core/dispatch"
	"github.com/kilianp07/cabmatch/core/geo"
	coremetrics "github.com/kilianp07/cabmatch/core/metrics"
	coremon "github.com/kilianp07/cabmatch/core/monitoring"
	"github.com/kilianp07/cabmatch/core/pricing"
	"github.com/kilianp07/cabmatch/core/registry"
	"github.com/kilianp07/cabmatch/infra/logger"
	"github.com/kilianp07/cabmatch/infra/metrics"
	"github.com/kilianp07/cabmatch/infra/monitoring"
	"github.com/kilianp07/cabmatch/infra/mqtt"
	"github.com/kilianp07/cabmatch/internal/eventbus"
)

// heartbeatBuffer sizes the queue between the MQTT callback and the registry.
const heartbeatBuffer = 256

// Service orchestrates the HTTP API, the allocation manager and the
// optional MQTT heartbeat feed.
type Service struct {
	Manager *dispatch.Manager
	Drivers *registry.MemoryStore
	Handler http.Handler

	cfg        *config.Config
	sink       coremetrics.MetricsSink
	bus        *eventbus.Bus
	heartbeats *eventbus.TypedBus[registry.Heartbeat]
	hbSub      <-chan registry.Heartbeat
	subscriber *mqtt.HeartbeatSubscriber
	log        logger.Logger

	closeOnce sync.Once
}

// New creates a Service from the configuration. The MQTT broker, when
// enabled, is dialled here so that a bad broker address fails fast.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	fare := pricing.NewFareCalculator(cfg.Pricing)
	radius, err := allocation.NewRadiusPolicy(cfg.Allocation)
	if err != nil {
		return nil, fmt.Errorf("radius policy: %w", err)
	}
	strategy, err := allocation.NewStrategy(allocation.Deps{
		Distance:       geo.Haversine{},
		Fare:           fare,
		Radius:         radius,
		LivenessWindow: cfg.Allocation.LivenessWindow(),
	}, cfg.Allocation.Strategy)
	if err != nil {
		return nil, fmt.Errorf("allocation strategy: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(logger.New("metrics"), cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	drivers := registry.NewMemoryStore()
	bus := eventbus.New()
	manager, err := dispatch.NewManager(strategy, drivers, cfg.Allocation.LivenessWindow(), sink, bus, logger.New("dispatch_manager"))
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}

	deps := api.Deps{
		Drivers:     drivers,
		Allocator:   manager,
		Fare:        fare,
		Logger:      logger.New("api"),
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}
	if cfg.HTTP.AccessLog {
		deps.AccessLog = logger.AccessWriter("http")
	}
	svc := &Service{
		Manager: manager,
		Drivers: drivers,
		Handler: api.NewRouter(deps),
		cfg:  cfg,
		sink: sink,
		bus:  bus,
		log:  logg,
	}

	if cfg.MQTT.Enabled {
		svc.heartbeats = eventbus.NewTyped[registry.Heartbeat](heartbeatBuffer)
		svc.hbSub = svc.heartbeats.Subscribe()
		sub, err := mqtt.NewHeartbeatSubscriber(cfg.MQTT, svc.heartbeats, logger.New("mqtt_heartbeat"))
		if err != nil {
			svc.heartbeats.Close()
			return nil, fmt.Errorf("mqtt heartbeats: %w", err)
		}
		svc.subscriber = sub
	}
	return svc, nil
}

// Run serves the API and the background loops until ctx is canceled or the
// HTTP listener fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics_collector"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Manager.Run(ctx, s.cfg.Allocation.SweepInterval())
	}()

	if s.hbSub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.ConsumeHeartbeats(ctx, s.Drivers, s.hbSub, logger.New("heartbeats"))
		}()
	}

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	err := s.serveHTTP(ctx)
	cancel()
	wg.Wait()
	<-collected
	return err
}

func (s *Service) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		coremon.CaptureException(err, "service", map[string]string{"addr": s.cfg.HTTP.Addr})
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases resources held by the service. It is safe to call more
// than once.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.subscriber != nil {
			s.subscriber.Close()
		}
		if s.heartbeats != nil {
			s.heartbeats.Close()
		}
		if closer, ok := s.sink.(interface{ Close() }); ok {
			closer.Close()
		}
		err = s.Manager.Close()
		coremon.Flush(2 * time.Second)
		if lerr := logger.Close(); lerr != nil && err == nil {
			err = lerr
		}
	})
	return err
}
