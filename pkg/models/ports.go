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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/carverauto/serviceradar-location/pkg/logger"
)

const (
	MinPort = 1
	MaxPort = 255
)

// PortRange is an inclusive range of switch port numbers parsed from a single
// token of a port list.
type PortRange struct {
	From int
	To   int
}

// PortSet is the set of switch ports a source reports clients for.
type PortSet map[string]struct{}

// Contains reports whether the port identifier reported by a switch is in the set.
func (s PortSet) Contains(port string) bool {
	_, ok := s[strings.TrimSpace(port)]

	return ok
}

// Ports returns the members of the set in ascending order.
func (s PortSet) Ports() []int {
	ports := make([]int, 0, len(s))

	for p := range s {
		if n, err := strconv.Atoi(p); err == nil {
			ports = append(ports, n)
		}
	}

	sort.Ints(ports)

	return ports
}

// ParsePortRange parses a single token: either a port ("7") or an inclusive
// range ("5-8").
func ParsePortRange(token string) (PortRange, error) {
	token = strings.TrimSpace(token)

	from, to, isRange := strings.Cut(token, "-")
	if !isRange {
		to = from
	}

	start, err := parsePort(from)
	if err != nil {
		return PortRange{}, fmt.Errorf("%w: %q", ErrInvalidPortToken, token)
	}

	end, err := parsePort(to)
	if err != nil {
		return PortRange{}, fmt.Errorf("%w: %q", ErrInvalidPortToken, token)
	}

	if end < start {
		return PortRange{}, fmt.Errorf("%w: %q is reversed", ErrInvalidPortToken, token)
	}

	return PortRange{From: start, To: end}, nil
}

func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}

	if n < MinPort || n > MaxPort {
		return 0, fmt.Errorf("%w: %d", ErrPortOutOfRange, n)
	}

	return n, nil
}

// ParsePortList expands a comma separated port specification such as
// "1,3,5-8" into a PortSet. Invalid tokens are logged and skipped.
func ParsePortList(spec string, log logger.Logger) PortSet {
	set := make(PortSet)

	for _, token := range strings.Split(spec, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}

		r, err := ParsePortRange(token)
		if err != nil {
			if log != nil {
				log.Warn().Err(err).Str("ports", spec).Msg("Skipping invalid port configuration")
			}

			continue
		}

		for p := r.From; p <= r.To; p++ {
			set[strconv.Itoa(p)] = struct{}{}
		}
	}

	return set
}
