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

// Package models holds the types shared between the location service packages.
package models

import (
	"encoding/json"
	"fmt"
)

// LocationRecord is one observation of a client device and the infrastructure
// endpoint it is attached through. Sources fill in the fields they know about;
// the remaining ones are completed during reconciliation.
type LocationRecord struct {
	IPv4      string   `json:"ipv4"`
	IPv6      []string `json:"ipv6"`
	DeviceMAC string   `json:"device_mac"`
	RemoteIP  string   `json:"remote_ip"`
	RemoteMAC string   `json:"remote_mac"`
	Location  string   `json:"location"`
}

// Clone returns a deep copy of the record.
func (r *LocationRecord) Clone() LocationRecord {
	c := *r

	if r.IPv6 != nil {
		c.IPv6 = make([]string, len(r.IPv6))
		copy(c.IPv6, r.IPv6)
	}

	return c
}

// Locatable reports whether the attachment point of the device is known.
func (r *LocationRecord) Locatable() bool {
	return r.RemoteMAC != ""
}

// EncodeTable serializes a reconciled table into the wire format published on
// the bus: a JSON array where ipv6 is always an array and an empty table is [].
func EncodeTable(records []LocationRecord) ([]byte, error) {
	out := make([]LocationRecord, len(records))

	for i := range records {
		out[i] = records[i].Clone()
		if out[i].IPv6 == nil {
			out[i].IPv6 = []string{}
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location table: %w", err)
	}

	return data, nil
}
