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
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/carverauto/serviceradar-location/pkg/config"
	"github.com/carverauto/serviceradar-location/pkg/lifecycle"
	"github.com/carverauto/serviceradar-location/pkg/location"
	"github.com/carverauto/serviceradar-location/pkg/location/integrations"
	"github.com/carverauto/serviceradar-location/pkg/version"
)

const busConnectTimeout = 10 * time.Second

var (
	errFailedToLoadConfig   = errors.New("failed to load location configuration")
	errFailedToInitLogger   = errors.New("failed to initialize logger")
	errFailedToConnectBus   = errors.New("failed to connect to message bus")
	errFailedToInitLocation = errors.New("failed to initialize location service")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/serviceradar/location.json", "Path to location config file")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())

		return nil
	}

	ctx := context.Background()

	var cfg location.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if err := lifecycle.InitializeLogger(cfg.Logging); err != nil {
		return fmt.Errorf("%w: %w", errFailedToInitLogger, err)
	}

	mainLogger, err := lifecycle.CreateComponentLogger("location", cfg.Logging)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToInitLogger, err)
	}

	if redacted, err := config.Redacted(&cfg); err == nil {
		mainLogger.Debug().RawJSON("config", redacted).Msg("Loaded configuration")
	}

	metrics := location.NewInMemoryMetrics(lifecycle.Child(mainLogger, "metrics"))
	sources := location.BuildSources(&cfg, integrations.NewRegistry(metrics), lifecycle.Child(mainLogger, "sources"))

	connectCtx, cancel := context.WithTimeout(ctx, busConnectTimeout)
	publisher, err := newPublisher(connectCtx, cfg.Bus, lifecycle.Child(mainLogger, "bus"))

	cancel()

	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToConnectBus, err)
	}

	svc, err := location.NewService(&cfg, sources, publisher, mainLogger, location.WithMetrics(metrics))
	if err != nil {
		_ = publisher.Close()

		return fmt.Errorf("%w: %w", errFailedToInitLocation, err)
	}

	mainLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("bus", string(cfg.Bus.Type)).
		Str("topic", cfg.Bus.Topic).
		Dur("scan_interval", time.Duration(cfg.ScanInterval)).
		Msg("Starting ServiceRadar location service")

	return lifecycle.RunService(ctx, &lifecycle.ServiceOptions{
		ServiceName: "serviceradar-location",
		Service:     svc,
		Logger:      mainLogger,
	})
}
