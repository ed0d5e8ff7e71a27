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
	"strings"
)

const macHexLen = 12

// NormalizeMAC converts a MAC address into the canonical lower-case,
// colon-separated form used as the merge key. Colon, hyphen and dot separated
// notations are accepted, including HP's "aabbcc-ddeeff".
func NormalizeMAC(mac string) (string, error) {
	hex := strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '.', ' ':
			return -1
		}

		return r
	}, strings.TrimSpace(mac))

	if len(hex) != macHexLen {
		return "", fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}

	hex = strings.ToLower(hex)

	var b strings.Builder

	b.Grow(macHexLen + macHexLen/2 - 1)

	for i := 0; i < macHexLen; i += 2 {
		if !isHex(hex[i]) || !isHex(hex[i+1]) {
			return "", fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
		}

		if i > 0 {
			b.WriteByte(':')
		}

		b.WriteString(hex[i : i+2])
	}

	return b.String(), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}
