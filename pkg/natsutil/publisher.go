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
// Package natsutil publishes location tables to NATS, optionally through a
// JetStream stream.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/serviceradar-location/pkg/config"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const connectionNamePrefix = "serviceradar-location-"

var errNotConnected = errors.New("nats connection is not established")

// Publisher implements the location bus publisher on top of a NATS connection.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	topic  string
	logger logger.Logger

	mu      sync.Mutex
	ensured bool
}

// Connect dials the server described by cfg. When cfg.Stream is set publishes
// wait for the JetStream ack, and the stream is created or extended to cover
// cfg.Topic before the first publish that finds the connection up.
func Connect(_ context.Context, cfg *models.BusConfig, log logger.Logger, extraOpts ...nats.Option) (*Publisher, error) {
	nc, err := ConnectWithSecurity(cfg, log, extraOpts...)
	if err != nil {
		return nil, err
	}

	p := &Publisher{nc: nc, logger: log}

	if cfg.Stream == "" {
		return p, nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p.js = js
	p.stream = cfg.Stream
	p.topic = cfg.Topic

	return p, nil
}

// ConnectWithSecurity creates a NATS connection with the credentials and TLS
// settings of cfg. The first connection attempt is retried in the background
// when the server is unreachable.
func ConnectWithSecurity(cfg *models.BusConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	name := cfg.ClientID
	if name == "" {
		name = connectionNamePrefix + uuid.NewString()[:8]
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	}

	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	tlsConf, err := config.TLSConfig(cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
	}

	if tlsConf != nil {
		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// Publish sends payload on topic. Core NATS publishes are buffered by the
// client and flushed by Pump.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if !p.nc.IsConnected() {
		return errNotConnected
	}

	if p.js == nil {
		return p.nc.Publish(topic, payload)
	}

	if err := p.ensureStream(ctx); err != nil {
		return err
	}

	ack, err := p.js.Publish(ctx, topic, payload)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoStreamResponse) {
			p.resetStream()
		}

		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	p.logger.Debug().
		Str("stream", ack.Stream).
		Uint64("seq", ack.Sequence).
		Msg("Location table acknowledged")

	return nil
}

// ensureStream runs EnsureStream once per publisher. A failed attempt is
// retried on the next publish.
func (p *Publisher) ensureStream(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ensured {
		return nil
	}

	if err := EnsureStream(ctx, p.js, p.stream, p.topic, p.logger); err != nil {
		return fmt.Errorf("failed to prepare stream %s: %w", p.stream, err)
	}

	p.ensured = true

	return nil
}

func (p *Publisher) resetStream() {
	p.mu.Lock()
	p.ensured = false
	p.mu.Unlock()
}

// Pump flushes buffered messages with a PING/PONG round trip. ctx must carry
// a deadline.
func (p *Publisher) Pump(ctx context.Context) error {
	if !p.nc.IsConnected() {
		return errNotConnected
	}

	return p.nc.FlushWithContext(ctx)
}

// Close flushes and closes the connection.
func (p *Publisher) Close() error {
	if p.nc.IsConnected() {
		if err := p.nc.Flush(); err != nil {
			p.logger.Debug().Err(err).Msg("Failed to flush NATS connection")
		}
	}

	p.nc.Close()

	return nil
}
