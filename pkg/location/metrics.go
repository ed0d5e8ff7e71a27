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
	"net/http"
	"sync"
	"time"

	"github.com/carverauto/serviceradar-location/pkg/logger"
)

// Metrics defines the interface for collecting location service metrics
type Metrics interface {
	// Source metrics
	RecordPollSuccess(source string, recordCount int, duration time.Duration)
	RecordPollFailure(source string, err error, duration time.Duration)
	RecordPollTimeout(source string, duration time.Duration)

	// Cycle metrics
	RecordCycle(mergedCount, publishedCount int, duration time.Duration)

	// Publish metrics
	RecordPublishSuccess(topic string, size int, duration time.Duration)
	RecordPublishFailure(topic string, err error, duration time.Duration)

	// API metrics
	RecordAPICall(integration, endpoint string)
	RecordAPISuccess(integration, endpoint string, duration time.Duration)
	RecordAPIFailure(integration, endpoint string, statusCode int, duration time.Duration)

	// Circuit breaker metrics
	RecordCircuitBreakerStateChange(name string, oldState, newState CircuitBreakerState)

	// Export metrics for monitoring systems
	GetMetrics() map[string]interface{}
}

// NoOpMetrics provides a no-op implementation of the Metrics interface
type NoOpMetrics struct{}

func (*NoOpMetrics) RecordPollSuccess(string, int, time.Duration)        {}
func (*NoOpMetrics) RecordPollFailure(string, error, time.Duration)      {}
func (*NoOpMetrics) RecordPollTimeout(string, time.Duration)             {}
func (*NoOpMetrics) RecordCycle(int, int, time.Duration)                 {}
func (*NoOpMetrics) RecordPublishSuccess(string, int, time.Duration)     {}
func (*NoOpMetrics) RecordPublishFailure(string, error, time.Duration)   {}
func (*NoOpMetrics) RecordAPICall(string, string)                        {}
func (*NoOpMetrics) RecordAPISuccess(string, string, time.Duration)      {}
func (*NoOpMetrics) RecordAPIFailure(string, string, int, time.Duration) {}
func (*NoOpMetrics) RecordCircuitBreakerStateChange(string, CircuitBreakerState, CircuitBreakerState) {
}
func (*NoOpMetrics) GetMetrics() map[string]interface{} { return map[string]interface{}{} }

// InMemoryMetrics provides an in-memory implementation of the Metrics interface
type InMemoryMetrics struct {
	mu     sync.RWMutex
	logger logger.Logger

	// Source metrics
	pollSuccess  map[string]int
	pollFailures map[string]int
	pollTimeouts map[string]int
	pollDuration map[string]time.Duration
	pollRecords  map[string]int

	// Cycle metrics
	cycles         int
	lastMerged     int
	lastPublished  int
	lastCycleTime  time.Duration
	publishSuccess int
	publishFailure int
	lastPublishLen int

	// API metrics
	apiCalls    map[string]int
	apiSuccess  map[string]int
	apiFailures map[string]int
	apiDuration map[string]time.Duration

	// Circuit breaker metrics
	circuitBreakerStates map[string]string

	lastUpdated time.Time
}

// NewInMemoryMetrics creates a new in-memory metrics collector
func NewInMemoryMetrics(log logger.Logger) *InMemoryMetrics {
	return &InMemoryMetrics{
		logger:               log,
		pollSuccess:          make(map[string]int),
		pollFailures:         make(map[string]int),
		pollTimeouts:         make(map[string]int),
		pollDuration:         make(map[string]time.Duration),
		pollRecords:          make(map[string]int),
		apiCalls:             make(map[string]int),
		apiSuccess:           make(map[string]int),
		apiFailures:          make(map[string]int),
		apiDuration:          make(map[string]time.Duration),
		circuitBreakerStates: make(map[string]string),
		lastUpdated:          time.Now(),
	}
}

func (m *InMemoryMetrics) RecordPollSuccess(source string, recordCount int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollSuccess[source]++
	m.pollDuration[source] = duration
	m.pollRecords[source] = recordCount
	m.lastUpdated = time.Now()

	m.logger.Debug().
		Str("source", source).
		Int("record_count", recordCount).
		Dur("duration", duration).
		Msg("Source polled")
}

func (m *InMemoryMetrics) RecordPollFailure(source string, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollFailures[source]++
	m.pollDuration[source] = duration
	m.pollRecords[source] = 0
	m.lastUpdated = time.Now()

	m.logger.Warn().
		Str("source", source).
		Err(err).
		Dur("duration", duration).
		Msg("Source poll failed")
}

func (m *InMemoryMetrics) RecordPollTimeout(source string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollTimeouts[source]++
	m.pollDuration[source] = duration
	m.pollRecords[source] = 0
	m.lastUpdated = time.Now()

	m.logger.Warn().
		Str("source", source).
		Dur("duration", duration).
		Msg("Source poll timed out")
}

func (m *InMemoryMetrics) RecordCycle(mergedCount, publishedCount int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
	m.lastMerged = mergedCount
	m.lastPublished = publishedCount
	m.lastCycleTime = duration
	m.lastUpdated = time.Now()

	m.logger.Info().
		Int("cycle", m.cycles).
		Int("devices_seen", mergedCount).
		Int("devices_located", publishedCount).
		Dur("duration", duration).
		Msg("Poll cycle completed")
}

func (m *InMemoryMetrics) RecordPublishSuccess(topic string, size int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishSuccess++
	m.lastPublishLen = size
	m.lastUpdated = time.Now()

	m.logger.Debug().
		Str("topic", topic).
		Int("bytes", size).
		Dur("duration", duration).
		Msg("Location table published")
}

func (m *InMemoryMetrics) RecordPublishFailure(topic string, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishFailure++
	m.lastUpdated = time.Now()

	m.logger.Warn().
		Str("topic", topic).
		Err(err).
		Dur("duration", duration).
		Msg("Failed to publish location table")
}

func (m *InMemoryMetrics) RecordAPICall(integration, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := integration + ":" + endpoint
	m.apiCalls[key]++
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordAPISuccess(integration, endpoint string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := integration + ":" + endpoint
	m.apiSuccess[key]++
	m.apiDuration[key] = duration
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordAPIFailure(integration, endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := integration + ":" + endpoint
	m.apiFailures[key]++
	m.apiDuration[key] = duration
	m.lastUpdated = time.Now()

	m.logger.Debug().
		Str("integration", integration).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("API call failed")
}

func (m *InMemoryMetrics) RecordCircuitBreakerStateChange(name string, oldState, newState CircuitBreakerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerStates[name] = newState.String()
	m.lastUpdated = time.Now()

	m.logger.Info().
		Str("circuit_breaker", name).
		Str("old_state", oldState.String()).
		Str("new_state", newState.String()).
		Msg("Circuit breaker state changed")
}

func (m *InMemoryMetrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources": map[string]interface{}{
			"successes": copyCounts(m.pollSuccess),
			"failures":  copyCounts(m.pollFailures),
			"timeouts":  copyCounts(m.pollTimeouts),
			"records":   copyCounts(m.pollRecords),
		},
		"cycles": map[string]interface{}{
			"count":           m.cycles,
			"devices_seen":    m.lastMerged,
			"devices_located": m.lastPublished,
			"last_duration":   m.lastCycleTime,
		},
		"publish": map[string]interface{}{
			"successes":  m.publishSuccess,
			"failures":   m.publishFailure,
			"last_bytes": m.lastPublishLen,
		},
		"api": map[string]interface{}{
			"calls":     copyCounts(m.apiCalls),
			"successes": copyCounts(m.apiSuccess),
			"failures":  copyCounts(m.apiFailures),
		},
		"circuit_breakers": copyStates(m.circuitBreakerStates),
		"last_updated":     m.lastUpdated,
	}
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}

func copyStates(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}

// MetricsHTTPClient wraps an HTTP client to collect API metrics
type MetricsHTTPClient struct {
	client      HTTPClient
	metrics     Metrics
	integration string
}

// NewMetricsHTTPClient creates a new HTTP client wrapper that collects metrics
func NewMetricsHTTPClient(client HTTPClient, integration string, metrics Metrics) *MetricsHTTPClient {
	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	return &MetricsHTTPClient{
		client:      client,
		metrics:     metrics,
		integration: integration,
	}
}

// Do executes an HTTP request and records metrics
func (m *MetricsHTTPClient) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path
	if endpoint == "" {
		endpoint = req.URL.String()
	}

	start := time.Now()
	m.metrics.RecordAPICall(m.integration, endpoint)

	resp, err := m.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		m.metrics.RecordAPIFailure(m.integration, endpoint, 0, duration)
		return resp, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		m.metrics.RecordAPIFailure(m.integration, endpoint, resp.StatusCode, duration)
	} else {
		m.metrics.RecordAPISuccess(m.integration, endpoint, duration)
	}

	return resp, err
}
