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
package hpswitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const macTableJSON = `{
  "collection_result": {"total_elements_count": 5, "filtered_elements_count": 5},
  "mac_table_entry_element": [
    {"uri": "/mac-table/001122-334455", "mac_address": "001122-334455", "port_id": "3", "vlan_id": 23},
    {"uri": "/mac-table/001122-334466", "mac_address": "001122-334466", "port_id": "4", "vlan_id": 23},
    {"uri": "/mac-table/001122-334477", "mac_address": "001122-334477", "port_id": "3", "vlan_id": 1},
    {"uri": "/mac-table/001122-334488", "mac_address": "001122-334488", "port_id": "24", "vlan_id": 23},
    {"uri": "/mac-table/bogus", "mac_address": "bogus", "port_id": "5", "vlan_id": 23}
  ]
}`

func newTestSwitch(t *testing.T, handler http.HandlerFunc, cfg *models.SourceConfig) *Switch {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.Type = models.SourceTypeHPSwitch
	cfg.Address = "10.0.0.2"
	cfg.Endpoint = server.URL

	sw, err := New("core-switch", cfg, server.Client(), logger.NewTestLogger())
	require.NoError(t, err)

	return sw
}

func TestSwitchPoll(t *testing.T) {
	sw := newTestSwitch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, macTablePath, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(macTableJSON))
	}, &models.SourceConfig{Ports: "1,3,5-8", Location: "Lab"})

	records, err := sw.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.LocationRecord{
		{DeviceMAC: "00:11:22:33:44:55", RemoteIP: "10.0.0.2", Location: "Lab"},
	}, records)
}

func TestSwitchPoll_ClientVLANOverride(t *testing.T) {
	sw := newTestSwitch(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(macTableJSON))
	}, &models.SourceConfig{Ports: "3", ClientVLAN: 1})

	records, err := sw.Poll(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "00:11:22:33:44:77", records[0].DeviceMAC)
	assert.Empty(t, records[0].IPv4)
	assert.Empty(t, records[0].RemoteMAC)
}

func TestSwitchPoll_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>login</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := newTestSwitch(t, tt.handler, &models.SourceConfig{Ports: "1-8"})

			records, err := sw.Poll(context.Background())
			require.Error(t, err)
			assert.Nil(t, records)
		})
	}
}

func TestNew_DefaultURL(t *testing.T) {
	sw, err := New("core-switch", &models.SourceConfig{Address: "10.0.0.2", Ports: "1,abc,99-5,300"}, http.DefaultClient, logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2", sw.baseURL)
	assert.Equal(t, models.DefaultClientVLAN, sw.vlan)
	assert.Equal(t, []int{1}, sw.ports.Ports())
	assert.Equal(t, "core-switch", sw.Name())
}
