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
// Package location polls network infrastructure for attached client devices,
// reconciles the observations into one record per device and publishes the
// resulting table to a message bus.
package location

import (
	"context"
	"net/http"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

//go:generate mockgen -destination=mock_location.go -package=location github.com/carverauto/serviceradar-location/pkg/location Source,Publisher,HTTPClient

// Source produces partial location observations for the devices one piece of
// infrastructure knows about. Poll must honor ctx cancellation.
type Source interface {
	Name() string
	Poll(ctx context.Context) ([]models.LocationRecord, error)
}

// SourceFactory constructs a Source from its configuration.
type SourceFactory func(name string, cfg *models.SourceConfig, log logger.Logger) (Source, error)

// Registry maps a source type to the factory that builds it.
type Registry map[models.SourceType]SourceFactory

// Publisher delivers serialized location tables to a message bus.
type Publisher interface {
	// Publish sends payload to topic, returning once the bus client has
	// accepted it or ctx expires.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Pump drives the client's keep-alive and acknowledgement processing.
	// It is called regularly even when there is nothing to publish.
	Pump(ctx context.Context) error
	Close() error
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
