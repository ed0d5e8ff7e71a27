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
// Package integrations pkg/location/integrations/integrations.go
package integrations

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/carverauto/serviceradar-location/pkg/location"
	"github.com/carverauto/serviceradar-location/pkg/location/integrations/hpswitch"
	"github.com/carverauto/serviceradar-location/pkg/location/integrations/opnsense"
	"github.com/carverauto/serviceradar-location/pkg/location/integrations/snmpbridge"
	"github.com/carverauto/serviceradar-location/pkg/location/integrations/unifi"
	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const defaultHTTPTimeout = 10 * time.Second

// NewRegistry returns the factories for every supported device family. HTTP
// based sources record their API calls in metrics.
func NewRegistry(metrics location.Metrics) location.Registry {
	return location.Registry{
		models.SourceTypeHPSwitch: func(name string, cfg *models.SourceConfig, log logger.Logger) (location.Source, error) {
			return hpswitch.New(name, cfg, newHTTPClient(name, cfg, nil, metrics), log)
		},
		models.SourceTypeUniFi: func(name string, cfg *models.SourceConfig, log logger.Logger) (location.Source, error) {
			// the controller session lives in the cookie jar
			jar, err := cookiejar.New(nil)
			if err != nil {
				return nil, err
			}

			return unifi.New(name, cfg, newHTTPClient(name, cfg, jar, metrics), log)
		},
		models.SourceTypeOPNsense: func(name string, cfg *models.SourceConfig, log logger.Logger) (location.Source, error) {
			return opnsense.New(name, cfg, newHTTPClient(name, cfg, nil, metrics), log)
		},
		models.SourceTypeSNMP: func(name string, cfg *models.SourceConfig, log logger.Logger) (location.Source, error) {
			return snmpbridge.New(name, cfg, log)
		},
	}
}

// newHTTPClient builds the HTTP client of one source.
func newHTTPClient(name string, cfg *models.SourceConfig, jar http.CookieJar, metrics location.Metrics) location.HTTPClient {
	client := &http.Client{
		Timeout: defaultHTTPTimeout,
		Jar:     jar,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // G402: self-signed certificates on network gear
			},
		},
	}

	return location.NewMetricsHTTPClient(client, name, metrics)
}
