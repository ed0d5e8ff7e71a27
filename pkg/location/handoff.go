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

import "github.com/carverauto/serviceradar-location/pkg/models"

// Handoff passes whole location tables from the poll loop to the publish
// loop. It holds at most one snapshot; offering a new one replaces a snapshot
// that has not been taken yet. There must be a single producer and a single
// consumer.
type Handoff struct {
	ch chan []models.LocationRecord
}

// NewHandoff returns an empty handoff.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan []models.LocationRecord, 1)}
}

// Offer stores records as the latest snapshot without blocking.
func (h *Handoff) Offer(records []models.LocationRecord) {
	if records == nil {
		records = []models.LocationRecord{}
	}

	for {
		select {
		case h.ch <- records:
			return
		default:
		}

		// drop the stale snapshot
		select {
		case <-h.ch:
		default:
		}
	}
}

// Take returns the pending snapshot, if any. A snapshot is returned by
// exactly one call.
func (h *Handoff) Take() ([]models.LocationRecord, bool) {
	select {
	case records := <-h.ch:
		return records, true
	default:
		return nil, false
	}
}

// Ready is readable whenever a snapshot is pending. Receiving from it takes
// the snapshot.
func (h *Handoff) Ready() <-chan []models.LocationRecord {
	return h.ch
}
