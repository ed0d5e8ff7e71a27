/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package location

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

// Service runs the poll loop and the publish loop.
type Service struct {
	config       *Config
	sources      []Source
	orchestrator *Orchestrator
	handoff      *Handoff
	bridge       *Bridge
	publisher    Publisher
	metrics      Metrics
	clock        clockwork.Clock
	logger       logger.Logger
	breakers     bool

	started  atomic.Bool
	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClock sets the clock driving the scan interval and circuit breakers.
func WithClock(clock clockwork.Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithMetrics replaces the in-memory metrics collector.
func WithMetrics(metrics Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithoutCircuitBreakers polls sources directly.
func WithoutCircuitBreakers() ServiceOption {
	return func(s *Service) {
		s.breakers = false
	}
}

// NewService creates the location service. cfg must have been validated.
// Every source is wrapped in a circuit breaker.
func NewService(cfg *Config, sources []Source, publisher Publisher, log logger.Logger, opts ...ServiceOption) (*Service, error) {
	if publisher == nil {
		return nil, errPublisherRequired
	}

	s := &Service{
		config:    cfg,
		sources:   sources,
		publisher: publisher,
		clock:     clockwork.NewRealClock(),
		logger:    log,
		handoff:   NewHandoff(),
		breakers:  true,
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = NewInMemoryMetrics(log)
	}

	if s.breakers {
		s.sources = make([]Source, len(sources))

		for i, src := range sources {
			breaker := NewCircuitBreaker(src.Name(), DefaultCircuitBreakerConfig(), s.clock, s.metrics, log)
			s.sources[i] = WithCircuitBreaker(src, breaker)
		}
	}

	s.orchestrator = NewOrchestrator(time.Duration(cfg.PollTimeout), s.metrics, log)
	s.bridge = NewBridge(s.handoff, publisher, BridgeConfig{
		Topic:          cfg.Bus.Topic,
		PublishTimeout: time.Duration(cfg.PublishTimeout),
		PumpTimeout:    time.Duration(cfg.PumpTimeout),
	}, s.metrics, log)

	return s, nil
}

// Start runs both loops until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.started.Store(true)
	defer close(s.finished)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.done:
			cancel()
		case <-runCtx.Done():
		}
	}()

	s.logger.Info().
		Int("sources", len(s.sources)).
		Dur("scan_interval", time.Duration(s.config.ScanInterval)).
		Msg("Starting location service")

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return s.pollLoop(gctx)
	})

	g.Go(func() error {
		return s.bridge.Run(gctx)
	})

	return g.Wait()
}

// Stop ends both loops, waits for them within ctx and closes the publisher.
func (s *Service) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.done)
	})

	if s.started.Load() {
		select {
		case <-s.finished:
		case <-ctx.Done():
			s.logger.Warn().Msg("Timed out waiting for loops to stop")
		}
	}

	return s.publisher.Close()
}

func (s *Service) pollLoop(ctx context.Context) error {
	interval := time.Duration(s.config.ScanInterval)
	if interval <= 0 {
		interval = defaultScanInterval
	}

	for {
		s.RunCycle(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Poll loop stopped")
			return nil
		case <-s.clock.After(interval):
		}
	}
}

// RunCycle polls every source once, reconciles the results and hands the
// table to the publish loop.
func (s *Service) RunCycle(ctx context.Context) []models.LocationRecord {
	start := time.Now()
	cycleID := uuid.NewString()

	s.logger.Debug().Str("cycle_id", cycleID).Int("sources", len(s.sources)).Msg("Starting poll cycle")

	merged := s.orchestrator.RunCycle(ctx, s.sources)
	table := Reconcile(merged)

	s.handoff.Offer(table)
	s.logger.Debug().Str("cycle_id", cycleID).Int("located", len(table)).Msg("Offered location table")
	s.metrics.RecordCycle(len(merged), len(table), time.Since(start))

	return table
}

// Metrics returns the metrics collector of the service.
func (s *Service) Metrics() Metrics {
	return s.metrics
}
