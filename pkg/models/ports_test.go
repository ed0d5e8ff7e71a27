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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/serviceradar-location/pkg/logger"
)

func TestParsePortList(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []int
	}{
		{name: "singles and range", spec: "1,3,5-8", want: []int{1, 3, 5, 6, 7, 8}},
		{name: "single element range", spec: "10-10", want: []int{10}},
		{name: "whitespace around tokens", spec: " 2 , 4 - 5 ", want: []int{2, 4, 5}},
		{name: "duplicates collapse", spec: "3,1-4,3", want: []int{1, 2, 3, 4}},
		{name: "non numeric token skipped", spec: "abc,2", want: []int{2}},
		{name: "reversed range skipped", spec: "99-5,7", want: []int{7}},
		{name: "out of range skipped", spec: "0,256,1-300,12", want: []int{12}},
		{name: "malformed range skipped", spec: "1-2-3,-4,5-", want: []int{}},
		{name: "empty spec", spec: "", want: []int{}},
		{name: "empty tokens ignored", spec: "1,,2,", want: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ParsePortList(tt.spec, logger.NewTestLogger())
			assert.Equal(t, tt.want, set.Ports())
		})
	}
}

func TestParsePortList_LogsSkippedTokens(t *testing.T) {
	tests := []struct {
		name       string
		spec       string
		wantErrors []string
	}{
		{name: "non numeric token", spec: "abc,2", wantErrors: []string{`invalid port token: "abc"`}},
		{name: "reversed range", spec: "99-5,7", wantErrors: []string{`invalid port token: "99-5" is reversed`}},
		{
			name: "out of range ports",
			spec: "0,256,1-300,12",
			wantErrors: []string{
				`invalid port token: "0"`,
				`invalid port token: "256"`,
				`invalid port token: "1-300"`,
			},
		},
		{name: "valid spec logs nothing", spec: "1,3-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			ParsePortList(tt.spec, logger.NewWriterLogger(&buf))

			var gotErrors []string

			dec := json.NewDecoder(&buf)
			for dec.More() {
				var entry map[string]interface{}
				require.NoError(t, dec.Decode(&entry))

				assert.Equal(t, "warn", entry["level"])
				assert.Equal(t, "Skipping invalid port configuration", entry["message"])
				assert.Equal(t, tt.spec, entry["ports"])

				gotErrors = append(gotErrors, entry["error"].(string))
			}

			assert.Equal(t, tt.wantErrors, gotErrors)
		})
	}
}

func TestParsePortRange(t *testing.T) {
	r, err := ParsePortRange("5-8")
	require.NoError(t, err)
	assert.Equal(t, PortRange{From: 5, To: 8}, r)

	r, err = ParsePortRange("7")
	require.NoError(t, err)
	assert.Equal(t, PortRange{From: 7, To: 7}, r)

	_, err = ParsePortRange("99-5")
	require.ErrorIs(t, err, ErrInvalidPortToken)

	_, err = ParsePortRange("abc")
	require.ErrorIs(t, err, ErrInvalidPortToken)
}

func TestPortSetContains(t *testing.T) {
	set := ParsePortList("1,3-4", nil)

	assert.True(t, set.Contains("1"))
	assert.True(t, set.Contains(" 4"))
	assert.False(t, set.Contains("2"))
	assert.False(t, set.Contains("A1"))
}
