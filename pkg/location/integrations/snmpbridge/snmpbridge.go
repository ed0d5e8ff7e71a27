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
// Package snmpbridge reads the 802.1Q forwarding database (Q-BRIDGE-MIB
// dot1qTpFdbPort) of switches that expose no REST API.
package snmpbridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const (
	// oidDot1qTpFdbPort is indexed by <vlan>.<6 MAC octets>, the value is the bridge port.
	oidDot1qTpFdbPort = ".1.3.6.1.2.1.17.7.1.2.2.1.2"

	defaultCommunity = "public"
	defaultTimeout   = 2 * time.Second
	defaultRetries   = 1
	snmpPort         = 161
	macOctets        = 6
)

var (
	errUnsupportedSNMPVersion = errors.New("unsupported SNMP version")
	errMalformedIndex         = errors.New("malformed forwarding database index")
)

// Walker is the part of the SNMP client the bridge needs. Walk uses GETNEXT
// and serves SNMPv1 agents, which do not implement GETBULK.
type Walker interface {
	Walk(rootOid string, walkFn gosnmp.WalkFunc) error
	BulkWalk(rootOid string, walkFn gosnmp.WalkFunc) error
}

// Connector opens an SNMP session and returns a function closing it.
type Connector func(ctx context.Context) (Walker, func() error, error)

// Bridge reports the clients learned on the configured ports of the client
// VLAN, like the REST switch source does.
type Bridge struct {
	name     string
	address  string
	location string
	vlan     int
	ports    models.PortSet
	bulk     bool
	connect  Connector
	logger   logger.Logger
}

// New creates an SNMP switch source. The credentials select the SNMP version
// ("version": 1, 2c or 3) and carry the community or the v3 user settings.
func New(name string, cfg *models.SourceConfig, log logger.Logger) (*Bridge, error) {
	if err := configureClientVersion(&gosnmp.GoSNMP{}, cfg.Credentials); err != nil {
		return nil, err
	}

	return NewWithConnector(name, cfg, gosnmpConnector(cfg.Address, cfg.Credentials), log), nil
}

// NewWithConnector creates a source walking through the given connector.
func NewWithConnector(name string, cfg *models.SourceConfig, connect Connector, log logger.Logger) *Bridge {
	ports := models.ParsePortList(cfg.Ports, log)
	if len(ports) == 0 {
		log.Warn().Str("source", name).Msg("No valid ports configured; switch will report no clients")
	}

	return &Bridge{
		name:     name,
		address:  cfg.Address,
		location: cfg.Location,
		vlan:     cfg.VLAN(),
		ports:    ports,
		bulk:     supportsBulk(cfg.Credentials),
		connect:  connect,
		logger:   log,
	}
}

// Name returns the configured source name.
func (b *Bridge) Name() string {
	return b.name
}

// Poll walks the forwarding database and returns one record per matching entry.
func (b *Bridge) Poll(ctx context.Context) ([]models.LocationRecord, error) {
	walker, closeFn, err := b.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", b.address, err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			b.logger.Debug().Err(err).Msg("Failed to close SNMP connection")
		}
	}()

	walk := walker.BulkWalk
	if !b.bulk {
		walk = walker.Walk
	}

	var records []models.LocationRecord

	err = walk(oidDot1qTpFdbPort, func(pdu gosnmp.SnmpPDU) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		vlan, mac, err := parseFdbIndex(pdu.Name)
		if err != nil {
			b.logger.Debug().Err(err).Str("oid", pdu.Name).Msg("Skipping forwarding entry")
			return nil
		}

		if vlan != b.vlan {
			return nil
		}

		port := gosnmp.ToBigInt(pdu.Value).Int64()
		if !b.ports.Contains(strconv.FormatInt(port, 10)) {
			return nil
		}

		records = append(records, models.LocationRecord{
			DeviceMAC: mac,
			RemoteIP:  b.address,
			Location:  b.location,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk forwarding database on %s: %w", b.address, err)
	}

	return records, nil
}

// parseFdbIndex splits a dot1qTpFdbPort instance OID into its VLAN and MAC.
func parseFdbIndex(name string) (int, string, error) {
	suffix, ok := strings.CutPrefix("."+strings.TrimPrefix(name, "."), oidDot1qTpFdbPort+".")
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", errMalformedIndex, name)
	}

	parts := strings.Split(suffix, ".")
	if len(parts) != macOctets+1 {
		return 0, "", fmt.Errorf("%w: %s", errMalformedIndex, name)
	}

	vlan, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", errMalformedIndex, name)
	}

	octets := make([]string, macOctets)

	for i, p := range parts[1:] {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, "", fmt.Errorf("%w: %s", errMalformedIndex, name)
		}

		octets[i] = fmt.Sprintf("%02x", n)
	}

	return vlan, strings.Join(octets, ":"), nil
}

// gosnmpConnector opens a new session per poll, bounding its timeout by the
// poll deadline.
func gosnmpConnector(address string, creds map[string]string) Connector {
	return func(ctx context.Context) (Walker, func() error, error) {
		client := &gosnmp.GoSNMP{
			Target:             address,
			Port:               snmpPort,
			Context:            ctx,
			Timeout:            defaultTimeout,
			Retries:            defaultRetries,
			MaxOids:            gosnmp.MaxOids,
			MaxRepetitions:     10,
			ExponentialTimeout: true,
		}

		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < client.Timeout {
				client.Timeout = remaining
			}
		}

		if err := configureClientVersion(client, creds); err != nil {
			return nil, nil, err
		}

		if err := client.Connect(); err != nil {
			return nil, nil, err
		}

		return client, client.Conn.Close, nil
	}
}

// supportsBulk reports whether the configured version has GETBULK.
func supportsBulk(creds map[string]string) bool {
	switch creds["version"] {
	case "1", "v1":
		return false
	default:
		return true
	}
}

func configureClientVersion(client *gosnmp.GoSNMP, creds map[string]string) error {
	community := creds["community"]
	if community == "" {
		community = defaultCommunity
	}

	switch creds["version"] {
	case "1", "v1":
		client.Version = gosnmp.Version1
		client.Community = community
	case "", "2c", "v2c":
		client.Version = gosnmp.Version2c
		client.Community = community
	case "3", "v3":
		client.Version = gosnmp.Version3
		client.SecurityModel = gosnmp.UserSecurityModel

		usm := &gosnmp.UsmSecurityParameters{
			UserName: creds["username"],
		}

		client.MsgFlags = configureV3(usm, creds)
		client.SecurityParameters = usm
	default:
		return fmt.Errorf("%w: %s", errUnsupportedSNMPVersion, creds["version"])
	}

	return nil
}

// configureV3 fills in the USM protocols and returns the matching message flags.
func configureV3(usm *gosnmp.UsmSecurityParameters, creds map[string]string) gosnmp.SnmpV3MsgFlags {
	switch strings.ToUpper(creds["auth_protocol"]) {
	case "MD5":
		usm.AuthenticationProtocol = gosnmp.MD5
	case "SHA":
		usm.AuthenticationProtocol = gosnmp.SHA
	case "SHA256":
		usm.AuthenticationProtocol = gosnmp.SHA256
	case "SHA512":
		usm.AuthenticationProtocol = gosnmp.SHA512
	default:
		return gosnmp.NoAuthNoPriv
	}

	usm.AuthenticationPassphrase = creds["auth_password"]

	switch strings.ToUpper(creds["privacy_protocol"]) {
	case "DES":
		usm.PrivacyProtocol = gosnmp.DES
	case "AES":
		usm.PrivacyProtocol = gosnmp.AES
	case "AES256":
		usm.PrivacyProtocol = gosnmp.AES256
	default:
		return gosnmp.AuthNoPriv
	}

	usm.PrivacyPassphrase = creds["privacy_password"]

	return gosnmp.AuthPriv
}
