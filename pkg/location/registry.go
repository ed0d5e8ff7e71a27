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
	"net"

	"github.com/carverauto/serviceradar-location/pkg/logger"
	"github.com/carverauto/serviceradar-location/pkg/models"
)

// BuildSources instantiates every configured source in name order. Entries
// with a missing or unknown type, an unparseable address or a failing factory
// are skipped with a warning.
func BuildSources(cfg *Config, registry Registry, log logger.Logger) []Source {
	sources := make([]Source, 0, len(cfg.Sources))

	for _, name := range cfg.SourceNames() {
		src, err := buildSource(name, cfg.Sources[name], registry, log)
		if err != nil {
			log.Warn().
				Err(err).
				Str("source", name).
				Msg("Skipping source")

			continue
		}

		sources = append(sources, src)
	}

	log.Info().
		Int("configured", len(cfg.Sources)).
		Int("active", len(sources)).
		Msg("Sources initialized")

	return sources
}

func buildSource(name string, sc *models.SourceConfig, registry Registry, log logger.Logger) (Source, error) {
	if sc == nil || sc.Type == "" {
		return nil, errMissingSourceType
	}

	factory, ok := registry[sc.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownSourceType, sc.Type)
	}

	if ip := net.ParseIP(sc.Address); ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: %q", errInvalidAddress, sc.Address)
	}

	src, err := factory(name, sc, log)
	if err != nil {
		return nil, err
	}

	if src == nil {
		return nil, errNilSource
	}

	return src, nil
}
