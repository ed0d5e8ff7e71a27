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
// Package unifi polls a UniFi controller for its associated stations.
package unifi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/carverauto/serviceradar-location/pkg/location"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const (
	defaultPort = "8443"
	defaultSite = "default"
	loginPath   = "/api/login"

	// one fresh login per poll
	maxLoginAttempts = 1
)

var (
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errSessionExpired       = errors.New("controller session expired")
	errLoginFailed          = errors.New("controller login failed")
	errMissingCredentials   = errors.New("unifi source requires username and password credentials")
)

// Controller reports wireless clients together with the access point they are
// associated with. The client must keep cookies, the session is stored there.
type Controller struct {
	name      string
	baseURL   string
	site      string
	username  string
	password  string
	directory AccessPointDirectory
	client    location.HTTPClient
	logger    logger.Logger
}

// New creates a controller source.
func New(name string, cfg *models.SourceConfig, client location.HTTPClient, log logger.Logger) (*Controller, error) {
	username, password := cfg.Credentials["username"], cfg.Credentials["password"]
	if username == "" || password == "" {
		return nil, errMissingCredentials
	}

	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = "https://" + net.JoinHostPort(cfg.Address, defaultPort)
	}

	site := cfg.Site
	if site == "" {
		site = defaultSite
	}

	return &Controller{
		name:      name,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		site:      site,
		username:  username,
		password:  password,
		directory: NewAccessPointDirectory(cfg.AccessPoints, log),
		client:    client,
		logger:    log,
	}, nil
}

// Name returns the configured source name.
func (c *Controller) Name() string {
	return c.name
}

// Poll fetches the station list, logging in again when the controller reports
// an expired session.
func (c *Controller) Poll(ctx context.Context) ([]models.LocationRecord, error) {
	for attempt := 0; ; attempt++ {
		stations, err := c.fetchStations(ctx)
		if err == nil {
			return c.toRecords(stations), nil
		}

		if !errors.Is(err, errSessionExpired) || attempt >= maxLoginAttempts {
			return nil, err
		}

		c.logger.Debug().Str("source", c.name).Msg("Logging in to UniFi controller")

		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}
}

func (c *Controller) toRecords(stations []Station) []models.LocationRecord {
	records := make([]models.LocationRecord, 0, len(stations))

	for i := range stations {
		sta := &stations[i]

		mac, err := models.NormalizeMAC(sta.MAC)
		if err != nil {
			c.logger.Debug().Err(err).Str("source", c.name).Msg("Skipping station")
			continue
		}

		rec := models.LocationRecord{DeviceMAC: mac}

		if ip := net.ParseIP(sta.IP); ip != nil && ip.To4() != nil {
			rec.IPv4 = ip.To4().String()
		}

		if apMAC, err := models.NormalizeMAC(sta.APMAC); err == nil {
			rec.RemoteMAC = apMAC
			rec.Location = c.directory[apMAC]
		}

		records = append(records, rec)
	}

	return records
}

func (c *Controller) fetchStations(ctx context.Context) ([]Station, error) {
	url := fmt.Sprintf("%s/api/s/%s/stat/sta", c.baseURL, c.site)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stations: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errSessionExpired
	}

	var body StationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
		}

		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}

	if body.Meta.RC == metaError {
		return nil, fmt.Errorf("%w: %s", errSessionExpired, body.Meta.Msg)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	return body.Data, nil
}

func (c *Controller) login(ctx context.Context) error {
	payload, err := json.Marshal(loginRequest{
		Username: c.username,
		Password: c.password,
		Remember: true,
		Strict:   true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errLoginFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errLoginFailed, resp.StatusCode)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Meta.RC == metaError {
		return fmt.Errorf("%w: %s", errLoginFailed, body.Meta.Msg)
	}

	return nil
}
