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
// Package opnsense reads the ARP table of an OPNsense firewall, providing the
// IPv4 address of every client MAC on the routed segments.
package opnsense

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/carverauto/serviceradar-location/pkg/location"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const arpPath = "/api/diagnostics/interface/getArp"

var (
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errMissingCredentials   = errors.New("opnsense source requires api_key and api_secret credentials")
)

// ArpEntry is one row of the firewall ARP table.
type ArpEntry struct {
	MAC       string `json:"mac"`
	IP        string `json:"ip"`
	Interface string `json:"intf,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
}

// searchResponse is the paged shape returned by newer firmware.
type searchResponse struct {
	Rows []ArpEntry `json:"rows"`
}

// Firewall is an ARP table source.
type Firewall struct {
	name      string
	baseURL   string
	apiKey    string
	apiSecret string
	client    location.HTTPClient
	logger    logger.Logger
}

// New creates a firewall source authenticating with an API key pair.
func New(name string, cfg *models.SourceConfig, client location.HTTPClient, log logger.Logger) (*Firewall, error) {
	key, secret := cfg.Credentials["api_key"], cfg.Credentials["api_secret"]
	if key == "" || secret == "" {
		return nil, errMissingCredentials
	}

	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "https://" + cfg.Address
	}

	return &Firewall{
		name:      name,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    key,
		apiSecret: secret,
		client:    client,
		logger:    log,
	}, nil
}

// Name returns the configured source name.
func (f *Firewall) Name() string {
	return f.name
}

// Poll returns one record per resolved ARP entry.
func (f *Firewall) Poll(ctx context.Context) ([]models.LocationRecord, error) {
	entries, err := f.fetchArp(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.LocationRecord, 0, len(entries))

	for _, entry := range entries {
		mac, err := models.NormalizeMAC(entry.MAC)
		if err != nil {
			// incomplete entries have no MAC yet
			continue
		}

		ip := net.ParseIP(entry.IP)
		if ip == nil || ip.To4() == nil {
			continue
		}

		records = append(records, models.LocationRecord{
			DeviceMAC: mac,
			IPv4:      ip.To4().String(),
		})
	}

	return records, nil
}

func (f *Firewall) fetchArp(ctx context.Context) ([]ArpEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+arpPath, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(f.apiKey, f.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ARP table: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ARP table: %w", err)
	}

	return decodeArp(body)
}

func decodeArp(body []byte) ([]ArpEntry, error) {
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '{' {
		var search searchResponse
		if err := json.Unmarshal(body, &search); err != nil {
			return nil, fmt.Errorf("failed to decode ARP table: %w", err)
		}

		return search.Rows, nil
	}

	var entries []ArpEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ARP table: %w", err)
	}

	return entries, nil
}
