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

// MacTable is the response of the ArubaOS-Switch REST mac-table endpoint.
type MacTable struct {
	Entries []MacTableEntry `json:"mac_table_entry_element"`
}

// MacTableEntry is one learned MAC address. MACs are formatted "aabbcc-ddeeff".
type MacTableEntry struct {
	MACAddress string `json:"mac_address"`
	PortID     string `json:"port_id"`
	VLANID     int    `json:"vlan_id"`
}
