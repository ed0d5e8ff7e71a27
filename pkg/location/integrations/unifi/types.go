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
package unifi

// Meta is the envelope every UniFi controller response carries.
type Meta struct {
	RC  string `json:"rc"`
	Msg string `json:"msg,omitempty"`
}

const metaError = "error"

// StationsResponse is the response of /api/s/<site>/stat/sta.
type StationsResponse struct {
	Meta Meta      `json:"meta"`
	Data []Station `json:"data"`
}

// Station is one client associated with the controller. Wired clients have no
// ap_mac.
type Station struct {
	MAC      string `json:"mac"`
	APMAC    string `json:"ap_mac,omitempty"`
	IP       string `json:"ip,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	IsWired  bool   `json:"is_wired,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
	Strict   bool   `json:"strict"`
}

type loginResponse struct {
	Meta Meta `json:"meta"`
}
