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
// Package mqttutil publishes location tables to an MQTT broker.
package mqttutil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/carverauto/serviceradar-location/pkg/config"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const (
	clientIDPrefix   = "serviceradar-location-"
	defaultKeepAlive = 5 * time.Second

	// at most once, not retained
	publishQoS      byte = 0
	publishRetained      = false
)

var (
	errNotConnected = errors.New("mqtt client is not connected")
	errInvalidURL   = errors.New("invalid MQTT broker URL")
)

// Publisher implements the location bus publisher on top of a paho client.
// Keep-alive traffic is carried by the client's own goroutines.
type Publisher struct {
	client mqtt.Client
	logger logger.Logger

	mu          sync.Mutex
	outstanding []mqtt.Token
}

// NewPublisher wraps a paho client.
func NewPublisher(client mqtt.Client, log logger.Logger) *Publisher {
	return &Publisher{client: client, logger: log}
}

// Connect creates a client for cfg and starts connecting. If the broker is not
// reachable before ctx expires the client keeps retrying in the background.
func Connect(ctx context.Context, cfg *models.BusConfig, log logger.Logger) (*Publisher, error) {
	opts, err := ClientOptions(cfg, log)
	if err != nil {
		return nil, err
	}

	client := mqtt.NewClient(opts)

	if err := waitToken(ctx, client.Connect()); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}

		log.Warn().Str("broker", redactURL(cfg.URL)).Msg("MQTT broker not reachable yet, retrying in background")
	}

	return NewPublisher(client, log), nil
}

// ClientOptions translates the bus configuration into paho client options.
func ClientOptions(cfg *models.BusConfig, log logger.Logger) (*mqtt.ClientOptions, error) {
	broker, err := url.Parse(cfg.URL)
	if err != nil || broker.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidURL, redactURL(cfg.URL))
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = clientIDPrefix + uuid.NewString()[:8]
	}

	keepAlive := time.Duration(cfg.KeepAlive)
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(clientID).
		SetKeepAlive(keepAlive).
		SetPingTimeout(keepAlive).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("MQTT connection lost")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.Info().Str("broker", broker.Host).Msg("Connected to MQTT broker")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	tlsConf, err := config.TLSConfig(cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("failed to build MQTT TLS config: %w", err)
	}

	if tlsConf == nil && isSecureScheme(broker.Scheme) {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if tlsConf != nil {
		opts.SetTLSConfig(tlsConf)
	}

	return opts, nil
}

// Publish sends payload to topic and waits until the client has written it or
// ctx expires. Tokens still in flight are settled by Pump.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		return errNotConnected
	}

	token := p.client.Publish(topic, publishQoS, publishRetained, payload)

	err := waitToken(ctx, token)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		p.mu.Lock()
		p.outstanding = append(p.outstanding, token)
		p.mu.Unlock()
	}

	return err
}

// Pump waits for outstanding publish tokens and reports the connection state.
func (p *Publisher) Pump(ctx context.Context) error {
	p.mu.Lock()
	pending := p.outstanding
	p.outstanding = nil
	p.mu.Unlock()

	for i, token := range pending {
		if err := waitToken(ctx, token); err != nil {
			if ctx.Err() != nil {
				p.mu.Lock()
				p.outstanding = append(pending[i:], p.outstanding...)
				p.mu.Unlock()

				return err
			}

			p.logger.Warn().Err(err).Msg("Delayed MQTT publish failed")
		}
	}

	if !p.client.IsConnectionOpen() {
		return errNotConnected
	}

	return nil
}

// Close disconnects from the broker, allowing in-flight work a short grace period.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)

	return nil
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isSecureScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "ssl", "tls", "mqtts", "tcps", "wss":
		return true
	default:
		return false
	}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	return u.Redacted()
}
