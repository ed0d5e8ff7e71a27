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
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/serviceradar-location/pkg/location"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
	"github.com/carverauto/serviceradar-location/pkg/mqttutil"
	"github.com/carverauto/serviceradar-location/pkg/natsutil"
)

var (
	errMissingBusConfig   = errors.New("bus configuration is required")
	errUnsupportedBusType = errors.New("unsupported bus type")
)

// newPublisher connects the publisher for the configured bus type.
func newPublisher(ctx context.Context, cfg *models.BusConfig, log logger.Logger) (location.Publisher, error) {
	if cfg == nil {
		return nil, errMissingBusConfig
	}

	switch cfg.Type {
	case models.BusTypeMQTT, "":
		return mqttutil.Connect(ctx, cfg, log)
	case models.BusTypeNATS:
		return natsutil.Connect(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedBusType, cfg.Type)
	}
}
