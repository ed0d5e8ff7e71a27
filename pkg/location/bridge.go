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
	"time"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

// Bridge drains the handoff and publishes each snapshot, pumping the bus
// client between publishes.
type Bridge struct {
	handoff        *Handoff
	publisher      Publisher
	topic          string
	publishTimeout time.Duration
	pumpTimeout    time.Duration
	metrics        Metrics
	logger         logger.Logger
}

// BridgeConfig holds the publish loop settings.
type BridgeConfig struct {
	Topic          string
	PublishTimeout time.Duration
	PumpTimeout    time.Duration
}

// NewBridge creates the publish side of the handoff.
func NewBridge(handoff *Handoff, publisher Publisher, cfg BridgeConfig, metrics Metrics, log logger.Logger) *Bridge {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	if cfg.PumpTimeout <= 0 {
		cfg.PumpTimeout = defaultPumpTimeout
	}

	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	return &Bridge{
		handoff:        handoff,
		publisher:      publisher,
		topic:          cfg.Topic,
		publishTimeout: cfg.PublishTimeout,
		pumpTimeout:    cfg.PumpTimeout,
		metrics:        metrics,
		logger:         log,
	}
}

// Run loops until ctx is done. Each iteration publishes the pending snapshot,
// if any, then pumps the bus client. The rest of the pump window is spent
// waiting for the next snapshot.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info().Str("topic", b.topic).Msg("Starting publish loop")

	var (
		pending    []models.LocationRecord
		hasPending bool
	)

	for ctx.Err() == nil {
		if !hasPending {
			pending, hasPending = b.handoff.Take()
		}

		if hasPending {
			b.publish(ctx, pending)
		}

		pending, hasPending = b.pump(ctx)
	}

	b.logger.Info().Msg("Publish loop stopped")

	return nil
}

// publish serializes and publishes one snapshot. Failures are logged and
// dropped; the next snapshot carries the current state again.
func (b *Bridge) publish(ctx context.Context, records []models.LocationRecord) {
	payload, err := models.EncodeTable(records)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to encode location table")
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, b.publishTimeout)
	defer cancel()

	start := time.Now()

	if err := b.publisher.Publish(publishCtx, b.topic, payload); err != nil {
		b.metrics.RecordPublishFailure(b.topic, err, time.Since(start))
		return
	}

	b.metrics.RecordPublishSuccess(b.topic, len(payload), time.Since(start))
}

// pump drives the bus client for one pump window. A snapshot offered during
// the window ends it early and is returned for the next iteration.
func (b *Bridge) pump(ctx context.Context) ([]models.LocationRecord, bool) {
	pumpCtx, cancel := context.WithTimeout(ctx, b.pumpTimeout)
	defer cancel()

	if err := b.publisher.Pump(pumpCtx); err != nil && ctx.Err() == nil {
		b.logger.Debug().Err(err).Msg("Bus pump reported an error")
	}

	select {
	case records := <-b.handoff.Ready():
		return records, true
	case <-pumpCtx.Done():
		return nil, false
	}
}
