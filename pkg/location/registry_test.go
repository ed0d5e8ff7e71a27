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
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

var errFactoryFailed = errors.New("factory failed")

func TestBuildSources(t *testing.T) {
	registry := Registry{
		models.SourceTypeHPSwitch: func(name string, _ *models.SourceConfig, _ logger.Logger) (Source, error) {
			return staticSource(name), nil
		},
		models.SourceTypeOPNsense: func(string, *models.SourceConfig, logger.Logger) (Source, error) {
			return nil, errFactoryFailed
		},
		models.SourceTypeSNMP: func(string, *models.SourceConfig, logger.Logger) (Source, error) {
			return nil, nil
		},
	}

	cfg := &Config{Sources: map[string]*models.SourceConfig{
		"switch-b":     {Type: models.SourceTypeHPSwitch, Address: "10.0.0.3"},
		"switch-a":     {Type: models.SourceTypeHPSwitch, Address: "10.0.0.2"},
		"bad-address":  {Type: models.SourceTypeHPSwitch, Address: "10.0.0"},
		"ipv6-address": {Type: models.SourceTypeHPSwitch, Address: "fe80::1"},
		"firewall":     {Type: models.SourceTypeOPNsense, Address: "10.0.0.1"},
		"unknown":      {Type: "juniper", Address: "10.0.0.4"},
		"untyped":      {Address: "10.0.0.5"},
		"nil-source":   {Type: models.SourceTypeSNMP, Address: "10.0.0.6"},
		"empty":        nil,
	}}

	var logs bytes.Buffer

	sources := BuildSources(cfg, registry, logger.NewWriterLogger(&logs))

	require.Len(t, sources, 2)
	assert.Equal(t, "switch-a", sources[0].Name())
	assert.Equal(t, "switch-b", sources[1].Name())

	assert.Contains(t, logs.String(), `"source":"firewall"`)
	assert.Contains(t, logs.String(), `"message":"Skipping source"`)
	assert.Contains(t, logs.String(), `"active":2`)
}

func TestBuildSource_Errors(t *testing.T) {
	registry := Registry{
		models.SourceTypeOPNsense: func(string, *models.SourceConfig, logger.Logger) (Source, error) {
			return nil, errFactoryFailed
		},
	}

	tests := []struct {
		name string
		sc   *models.SourceConfig
		want error
	}{
		{"missing type", &models.SourceConfig{Address: "10.0.0.1"}, errMissingSourceType},
		{"unknown type", &models.SourceConfig{Type: "juniper", Address: "10.0.0.1"}, errUnknownSourceType},
		{"bad address", &models.SourceConfig{Type: models.SourceTypeOPNsense, Address: "firewall"}, errInvalidAddress},
		{"factory error", &models.SourceConfig{Type: models.SourceTypeOPNsense, Address: "10.0.0.1"}, errFactoryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildSource(tt.name, tt.sc, registry, logger.NewTestLogger())
			require.ErrorIs(t, err, tt.want)
		})
	}
}
