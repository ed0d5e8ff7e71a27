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
	"sort"

	"github.com/carverauto/serviceradar-location/pkg/models"
)

// Reconcile cross-references MAC and IPv4 addresses across all merged
// records to complete attachment points, then drops every record whose
// remote MAC is still unknown. The input is not modified and the output is
// sorted by device MAC. Reconcile is idempotent.
func Reconcile(merged map[string]models.LocationRecord) []models.LocationRecord {
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	macToIP := make(map[string]string)
	ipToMAC := make(map[string]string)

	for _, k := range keys {
		rec := merged[k]
		if rec.IPv4 == "" {
			continue
		}

		macToIP[rec.DeviceMAC] = rec.IPv4
		ipToMAC[rec.IPv4] = rec.DeviceMAC
	}

	out := make([]models.LocationRecord, 0, len(keys))

	for _, k := range keys {
		rec := merged[k]
		rec = rec.Clone()

		if rec.RemoteIP == "" {
			if ip, ok := macToIP[rec.RemoteMAC]; ok {
				rec.RemoteIP = ip
			}
		}

		if rec.RemoteMAC == "" {
			if mac, ok := ipToMAC[rec.RemoteIP]; ok {
				rec.RemoteMAC = mac
			}
		}

		if !rec.Locatable() {
			continue
		}

		out = append(out, rec)
	}

	return out
}
