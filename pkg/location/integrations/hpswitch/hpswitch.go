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
// Package hpswitch reads the MAC address table of HP/Aruba switches through
// their REST API.
package hpswitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carverauto/serviceradar-location/pkg/location"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const macTablePath = "/rest/v1/mac-table"

var errUnexpectedStatusCode = errors.New("unexpected status code")

// Switch reports the clients learned on the configured ports of the client
// VLAN. The switch itself is the attachment point, so every record carries
// the switch address as remote IP.
type Switch struct {
	name     string
	address  string
	baseURL  string
	location string
	vlan     int
	ports    models.PortSet
	client   location.HTTPClient
	logger   logger.Logger
}

// New creates a switch source. Invalid port tokens are skipped with a warning.
func New(name string, cfg *models.SourceConfig, client location.HTTPClient, log logger.Logger) (*Switch, error) {
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "http://" + cfg.Address
	}

	ports := models.ParsePortList(cfg.Ports, log)
	if len(ports) == 0 {
		log.Warn().Str("source", name).Msg("No valid ports configured; switch will report no clients")
	}

	return &Switch{
		name:     name,
		address:  cfg.Address,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		location: cfg.Location,
		vlan:     cfg.VLAN(),
		ports:    ports,
		client:   client,
		logger:   log,
	}, nil
}

// Name returns the configured source name.
func (s *Switch) Name() string {
	return s.name
}

// Poll fetches the MAC table and returns one record per matching entry.
func (s *Switch) Poll(ctx context.Context) ([]models.LocationRecord, error) {
	table, err := s.fetchMacTable(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.LocationRecord, 0, len(table.Entries))

	for i := range table.Entries {
		entry := &table.Entries[i]

		if entry.VLANID != s.vlan || !s.ports.Contains(entry.PortID) {
			continue
		}

		mac, err := models.NormalizeMAC(entry.MACAddress)
		if err != nil {
			s.logger.Debug().Err(err).Str("source", s.name).Msg("Skipping MAC table entry")
			continue
		}

		records = append(records, models.LocationRecord{
			DeviceMAC: mac,
			RemoteIP:  s.address,
			Location:  s.location,
		})
	}

	return records, nil
}

func (s *Switch) fetchMacTable(ctx context.Context) (*MacTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+macTablePath, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MAC table from %s: %w", s.address, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	var table MacTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode MAC table from %s: %w", s.address, err)
	}

	return &table, nil
}
