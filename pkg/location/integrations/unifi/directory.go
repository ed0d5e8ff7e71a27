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
package unifi

import (
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

// AccessPointDirectory maps normalized access point MACs to locations.
type AccessPointDirectory map[string]string

// NewAccessPointDirectory builds the directory from configuration, skipping
// entries whose MAC does not parse.
func NewAccessPointDirectory(aps []models.AccessPointConfig, log logger.Logger) AccessPointDirectory {
	dir := make(AccessPointDirectory, len(aps))

	for _, ap := range aps {
		mac, err := models.NormalizeMAC(ap.MAC)
		if err != nil {
			log.Warn().Err(err).Str("location", ap.Location).Msg("Skipping access point with invalid MAC")
			continue
		}

		dir[mac] = ap.Location
	}

	return dir
}

// Lookup returns the location of an access point, or "" when it is unknown.
func (d AccessPointDirectory) Lookup(mac string) string {
	normalized, err := models.NormalizeMAC(mac)
	if err != nil {
		return ""
	}

	return d[normalized]
}
