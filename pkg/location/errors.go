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

import "errors"

var (
	errMissingSources     = errors.New("at least one source must be defined")
	errMissingBus         = errors.New("bus configuration is required")
	errMissingBusURL      = errors.New("bus url is required")
	errMissingBusTopic    = errors.New("bus topic is required")
	errUnsupportedBusType = errors.New("unsupported bus type")
	errNegativeDuration   = errors.New("duration must not be negative")
	errMissingSourceType  = errors.New("source type is required")
	errUnknownSourceType  = errors.New("unknown source type")
	errInvalidAddress     = errors.New("invalid source address")
	errNilSource          = errors.New("factory returned no source")
	errPollTimeout        = errors.New("poll timed out")
	errPublisherRequired  = errors.New("publisher is required")

	// ErrCircuitOpen is returned by a source whose circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)
