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
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

const (
	defaultScanInterval   = 30 * time.Second
	defaultPollTimeout    = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
	defaultPumpTimeout    = 2 * time.Second
)

// Config is the configuration document of the location service.
type Config struct {
	Sources        map[string]*models.SourceConfig `json:"sources" yaml:"sources"`
	Bus            *models.BusConfig               `json:"bus" yaml:"bus"`
	ScanInterval   models.Duration                 `json:"scan_interval" yaml:"scan_interval"`
	PollTimeout    models.Duration                 `json:"poll_timeout" yaml:"poll_timeout"`
	PublishTimeout models.Duration                 `json:"publish_timeout" yaml:"publish_timeout"`
	PumpTimeout    models.Duration                 `json:"pump_timeout" yaml:"pump_timeout"`
	Logging        *logger.Config                  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Validate fills in defaults and reports every structural problem at once.
// Problems with individual source entries are not fatal; BuildSources skips
// them with a diagnostic.
func (c *Config) Validate() error {
	var err error

	if len(c.Sources) == 0 {
		err = multierr.Append(err, errMissingSources)
	}

	err = multierr.Append(err, c.validateBus())

	durations := []struct {
		name  string
		value *models.Duration
		def   time.Duration
	}{
		{"scan_interval", &c.ScanInterval, defaultScanInterval},
		{"poll_timeout", &c.PollTimeout, defaultPollTimeout},
		{"publish_timeout", &c.PublishTimeout, defaultPublishTimeout},
		{"pump_timeout", &c.PumpTimeout, defaultPumpTimeout},
	}

	for _, d := range durations {
		switch {
		case *d.value < 0:
			err = multierr.Append(err, fmt.Errorf("%s: %w", d.name, errNegativeDuration))
		case *d.value == 0:
			*d.value = models.Duration(d.def)
		}
	}

	return err
}

func (c *Config) validateBus() error {
	if c.Bus == nil {
		return errMissingBus
	}

	var err error

	if c.Bus.Type == "" {
		c.Bus.Type = models.BusTypeMQTT
	}

	if c.Bus.Type != models.BusTypeMQTT && c.Bus.Type != models.BusTypeNATS {
		err = multierr.Append(err, fmt.Errorf("%w: %q", errUnsupportedBusType, c.Bus.Type))
	}

	if c.Bus.URL == "" {
		err = multierr.Append(err, errMissingBusURL)
	}

	if c.Bus.Topic == "" {
		err = multierr.Append(err, errMissingBusTopic)
	}

	if c.Bus.KeepAlive < 0 {
		err = multierr.Append(err, fmt.Errorf("keep_alive: %w", errNegativeDuration))
	}

	return err
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
