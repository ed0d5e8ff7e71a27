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
package lifecycle

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/serviceradar-location/pkg/logger"
)

const defaultStopTimeout = 10 * time.Second

// Service is a long running component with an explicit lifecycle.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServiceOptions configures RunService.
type ServiceOptions struct {
	ServiceName string
	Service     Service
	StopTimeout time.Duration
	Logger      logger.Logger
}

// RunService starts the service and blocks until it returns or the process
// receives SIGINT/SIGTERM, then stops it within StopTimeout.
func RunService(ctx context.Context, opts *ServiceOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopTimeout := opts.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Service.Start(ctx)
	}()

	opts.Logger.Info().Str("service", opts.ServiceName).Msg("Service started")

	var runErr error

	select {
	case runErr = <-errCh:
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	case <-ctx.Done():
		opts.Logger.Info().Str("service", opts.ServiceName).Msg("Shutdown signal received")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := opts.Service.Stop(stopCtx); err != nil {
		opts.Logger.Error().Err(err).Str("service", opts.ServiceName).Msg("Error stopping service")

		if runErr == nil {
			runErr = err
		}
	}

	opts.Logger.Info().Str("service", opts.ServiceName).Msg("Service stopped")

	return runErr
}
