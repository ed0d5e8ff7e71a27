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
	"errors"
	"sync"
	"time"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

// Orchestrator polls every source once per cycle and folds their records
// into one record per device.
type Orchestrator struct {
	timeout time.Duration
	metrics Metrics
	logger  logger.Logger
}

type pollResult struct {
	records  []models.LocationRecord
	err      error
	duration time.Duration
}

// NewOrchestrator creates an orchestrator that bounds every poll by timeout.
func NewOrchestrator(timeout time.Duration, metrics Metrics, log logger.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	return &Orchestrator{
		timeout: timeout,
		metrics: metrics,
		logger:  log,
	}
}

// RunCycle polls all sources concurrently and returns the merged records
// keyed by device MAC. A failed or timed out source contributes nothing.
// Results are folded in the order of sources once every poll has finished or
// timed out, so RunCycle returns within the poll timeout even when a source
// ignores its context.
func (o *Orchestrator) RunCycle(ctx context.Context, sources []Source) map[string]models.LocationRecord {
	results := make([]pollResult, len(sources))

	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)

		go func(i int, src Source) {
			defer wg.Done()

			results[i] = o.poll(ctx, src)
		}(i, src)
	}

	wg.Wait()

	merged := make(map[string]models.LocationRecord)

	for i, src := range sources {
		res := results[i]

		switch {
		case errors.Is(res.err, errPollTimeout):
			o.metrics.RecordPollTimeout(src.Name(), res.duration)
		case res.err != nil:
			o.metrics.RecordPollFailure(src.Name(), res.err, res.duration)
		default:
			o.metrics.RecordPollSuccess(src.Name(), len(res.records), res.duration)
		}

		for j := range res.records {
			MergeRecord(merged, &res.records[j])
		}
	}

	return merged
}

// poll runs one source under the poll timeout. The poll goroutine may
// outlive the call if the source ignores cancellation; its result is then
// discarded.
func (o *Orchestrator) poll(ctx context.Context, src Source) pollResult {
	pollCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan pollResult, 1)

	go func() {
		records, err := src.Poll(pollCtx)
		done <- pollResult{records: records, err: err}
	}()

	select {
	case res := <-done:
		res.duration = time.Since(start)

		if res.err != nil {
			res.records = nil

			if errors.Is(res.err, context.DeadlineExceeded) {
				res.err = errPollTimeout
			}
		}

		return res
	case <-pollCtx.Done():
		return pollResult{err: errPollTimeout, duration: time.Since(start)}
	}
}

// MergeRecord folds rec into merged. A later record for the same device
// replaces the earlier one, except that an empty IPv4 keeps the IPv4 already
// learned for the device. Records without a device MAC are discarded.
func MergeRecord(merged map[string]models.LocationRecord, rec *models.LocationRecord) {
	if rec.DeviceMAC == "" {
		return
	}

	next := rec.Clone()

	if prev, ok := merged[next.DeviceMAC]; ok && next.IPv4 == "" && prev.IPv4 != "" {
		next.IPv4 = prev.IPv4
	}

	merged[next.DeviceMAC] = next
}
