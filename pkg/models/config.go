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

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that can be configured either as a Go duration
// string ("30s") or as a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	return d.set(v)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}

	return d.set(v)
}

func (d *Duration) set(v interface{}) error {
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
	case int:
		*d = Duration(time.Duration(value) * time.Second)
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)
	default:
		return errInvalidDuration
	}

	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// SourceType names a family of infrastructure a source can poll.
type SourceType string

const (
	SourceTypeHPSwitch SourceType = "hpswitch"
	SourceTypeUniFi    SourceType = "unifi"
	SourceTypeOPNsense SourceType = "opnsense"
	SourceTypeSNMP     SourceType = "snmp"
)

// DefaultClientVLAN is the VLAN switch sources report clients for unless a
// source overrides it.
const DefaultClientVLAN = 23

// SourceConfig describes one piece of infrastructure to poll.
type SourceConfig struct {
	Type SourceType `json:"type" yaml:"type"`

	// Address is the management IPv4 address of the device. Switch sources
	// report it as the remote_ip of their clients.
	Address string `json:"address" yaml:"address"`

	// Endpoint overrides the base URL derived from Address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Credentials holds source specific secrets: username/password for UniFi,
	// api_key/api_secret for OPNsense, community for SNMP.
	Credentials map[string]string `json:"credentials,omitempty" yaml:"credentials,omitempty" sensitive:"true"`

	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`

	// Location is the static label reported for clients of a switch.
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	// Ports is the port list specification for switches, e.g. "1,3,5-8".
	Ports string `json:"ports,omitempty" yaml:"ports,omitempty"`

	// ClientVLAN overrides DefaultClientVLAN for switch sources.
	ClientVLAN int `json:"client_vlan,omitempty" yaml:"client_vlan,omitempty"`

	// Site is the UniFi site to query; "default" when empty.
	Site string `json:"site,omitempty" yaml:"site,omitempty"`

	AccessPoints []AccessPointConfig `json:"access_points,omitempty" yaml:"access_points,omitempty"`
}

// VLAN returns the client VLAN for the source.
func (c *SourceConfig) VLAN() int {
	if c.ClientVLAN > 0 {
		return c.ClientVLAN
	}

	return DefaultClientVLAN
}

// AccessPointConfig maps an access point to a human readable location.
type AccessPointConfig struct {
	MAC      string `json:"mac" yaml:"mac"`
	Location string `json:"location" yaml:"location"`
}

// BusType selects the message bus the location table is published to.
type BusType string

const (
	BusTypeMQTT BusType = "mqtt"
	BusTypeNATS BusType = "nats"
)

// BusConfig configures the message bus client.
type BusConfig struct {
	Type     BusType `json:"type" yaml:"type"`
	URL      string  `json:"url" yaml:"url"`
	Username string  `json:"username,omitempty" yaml:"username,omitempty"`
	Password string  `json:"password,omitempty" yaml:"password,omitempty" sensitive:"true"`
	Topic    string  `json:"topic" yaml:"topic"`
	ClientID string  `json:"client_id,omitempty" yaml:"client_id,omitempty"`

	// KeepAlive is the MQTT keep-alive interval.
	KeepAlive Duration `json:"keep_alive,omitempty" yaml:"keep_alive,omitempty"`

	// Stream enables JetStream publishing on NATS. Before the first
	// successful publish the stream is created with the topic as its only
	// subject, or extended to capture it.
	Stream string `json:"stream,omitempty" yaml:"stream,omitempty"`

	Security *SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
}
