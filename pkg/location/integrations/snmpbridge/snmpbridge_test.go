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
package snmpbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

var errTimeout = errors.New("request timeout")

type fakeWalker struct {
	pdus []gosnmp.SnmpPDU
	err  error
	root string
	bulk bool
}

func (f *fakeWalker) Walk(rootOid string, walkFn gosnmp.WalkFunc) error {
	return f.walk(rootOid, walkFn)
}

func (f *fakeWalker) BulkWalk(rootOid string, walkFn gosnmp.WalkFunc) error {
	f.bulk = true

	return f.walk(rootOid, walkFn)
}

func (f *fakeWalker) walk(rootOid string, walkFn gosnmp.WalkFunc) error {
	f.root = rootOid

	if f.err != nil {
		return f.err
	}

	for _, pdu := range f.pdus {
		if err := walkFn(pdu); err != nil {
			return err
		}
	}

	return nil
}

func fdbPDU(index string, port int) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: oidDot1qTpFdbPort + "." + index, Type: gosnmp.Integer, Value: port}
}

func newTestBridge(walker *fakeWalker, closed *bool) *Bridge {
	return newVersionedBridge(walker, closed, nil)
}

func newVersionedBridge(walker *fakeWalker, closed *bool, creds map[string]string) *Bridge {
	cfg := &models.SourceConfig{
		Type:        models.SourceTypeSNMP,
		Address:     "10.0.0.4",
		Ports:       "1-4",
		Location:    "Warehouse",
		Credentials: creds,
	}

	return NewWithConnector("access-switch", cfg, func(context.Context) (Walker, func() error, error) {
		return walker, func() error {
			*closed = true
			return nil
		}, nil
	}, logger.NewTestLogger())
}

func TestBridgePoll(t *testing.T) {
	walker := &fakeWalker{pdus: []gosnmp.SnmpPDU{
		fdbPDU("23.0.17.34.51.68.85", 3),
		fdbPDU("23.0.17.34.51.68.86", 12),
		fdbPDU("1.0.17.34.51.68.87", 3),
		fdbPDU("23.170.187.204.0.0.1", 4),
		fdbPDU("23.1.2.3", 4),
		{Name: "1.3.6.1.2.1.17.7.1.2.2.1.2.23.0.17.34.51.68.88", Type: gosnmp.Integer, Value: 1},
	}}

	var closed bool

	b := newTestBridge(walker, &closed)

	records, err := b.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, oidDot1qTpFdbPort, walker.root)
	assert.True(t, walker.bulk)
	assert.True(t, closed)
	assert.Equal(t, []models.LocationRecord{
		{DeviceMAC: "00:11:22:33:44:55", RemoteIP: "10.0.0.4", Location: "Warehouse"},
		{DeviceMAC: "aa:bb:cc:00:00:01", RemoteIP: "10.0.0.4", Location: "Warehouse"},
		{DeviceMAC: "00:11:22:33:44:58", RemoteIP: "10.0.0.4", Location: "Warehouse"},
	}, records)
}

func TestBridgePoll_WalkMethodByVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		wantBulk bool
	}{
		{name: "v1 uses GETNEXT", version: "1", wantBulk: false},
		{name: "v1 prefixed", version: "v1", wantBulk: false},
		{name: "default v2c", version: "", wantBulk: true},
		{name: "v2c", version: "2c", wantBulk: true},
		{name: "v3", version: "3", wantBulk: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walker := &fakeWalker{pdus: []gosnmp.SnmpPDU{fdbPDU("23.0.17.34.51.68.85", 2)}}

			var closed bool

			b := newVersionedBridge(walker, &closed, map[string]string{"version": tt.version})

			records, err := b.Poll(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantBulk, walker.bulk)
			assert.Equal(t, oidDot1qTpFdbPort, walker.root)
			assert.Equal(t, []models.LocationRecord{
				{DeviceMAC: "00:11:22:33:44:55", RemoteIP: "10.0.0.4", Location: "Warehouse"},
			}, records)
		})
	}
}

func TestBridgePoll_WalkError(t *testing.T) {
	var closed bool

	b := newTestBridge(&fakeWalker{err: errTimeout}, &closed)

	records, err := b.Poll(context.Background())
	require.ErrorIs(t, err, errTimeout)
	assert.Nil(t, records)
	assert.True(t, closed)
}

func TestBridgePoll_ConnectError(t *testing.T) {
	b := NewWithConnector("access-switch", &models.SourceConfig{Ports: "1"}, func(context.Context) (Walker, func() error, error) {
		return nil, nil, errTimeout
	}, logger.NewTestLogger())

	_, err := b.Poll(context.Background())
	require.ErrorIs(t, err, errTimeout)
}

func TestParseFdbIndex(t *testing.T) {
	tests := []struct {
		name    string
		oid     string
		vlan    int
		mac     string
		wantErr bool
	}{
		{name: "leading dot", oid: oidDot1qTpFdbPort + ".23.0.17.34.51.68.85", vlan: 23, mac: "00:11:22:33:44:55"},
		{name: "no leading dot", oid: oidDot1qTpFdbPort[1:] + ".5.255.255.255.255.255.255", vlan: 5, mac: "ff:ff:ff:ff:ff:ff"},
		{name: "other table", oid: ".1.3.6.1.2.1.2.2.1.2.1", wantErr: true},
		{name: "short index", oid: oidDot1qTpFdbPort + ".23.0.17", wantErr: true},
		{name: "octet overflow", oid: oidDot1qTpFdbPort + ".23.0.17.34.51.68.256", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vlan, mac, err := parseFdbIndex(tt.oid)
			if tt.wantErr {
				require.ErrorIs(t, err, errMalformedIndex)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.vlan, vlan)
			assert.Equal(t, tt.mac, mac)
		})
	}
}

func TestConfigureClientVersion(t *testing.T) {
	client := &gosnmp.GoSNMP{}
	require.NoError(t, configureClientVersion(client, nil))
	assert.Equal(t, gosnmp.Version2c, client.Version)
	assert.Equal(t, defaultCommunity, client.Community)

	client = &gosnmp.GoSNMP{}
	require.NoError(t, configureClientVersion(client, map[string]string{
		"version":          "3",
		"username":         "monitor",
		"auth_protocol":    "sha",
		"auth_password":    "authpass",
		"privacy_protocol": "aes",
		"privacy_password": "privpass",
	}))
	assert.Equal(t, gosnmp.Version3, client.Version)
	assert.Equal(t, gosnmp.AuthPriv, client.MsgFlags)

	usm, ok := client.SecurityParameters.(*gosnmp.UsmSecurityParameters)
	require.True(t, ok)
	assert.Equal(t, "monitor", usm.UserName)
	assert.Equal(t, gosnmp.AES, usm.PrivacyProtocol)

	err := configureClientVersion(&gosnmp.GoSNMP{}, map[string]string{"version": "4"})
	require.ErrorIs(t, err, errUnsupportedSNMPVersion)
}

func TestNew(t *testing.T) {
	b, err := New("access-switch", &models.SourceConfig{Address: "10.0.0.4", Ports: "1", ClientVLAN: 40}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, 40, b.vlan)
	assert.Equal(t, "access-switch", b.Name())

	_, err = New("access-switch", &models.SourceConfig{Credentials: map[string]string{"version": "9"}}, logger.NewTestLogger())
	require.Error(t, err)
}
