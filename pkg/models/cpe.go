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
	"strings"
	"time"
)

// RawDevice is one device document as stored by GenieACS. Parameter nodes
// are nested maps whose leaves carry the reported value under "_value".
type RawDevice map[string]interface{}

// DeviceStatus is the liveness category derived from the last inform.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusAlert   DeviceStatus = "alert"
	DeviceStatusOffline DeviceStatus = "offline"
)

// Mesh classification values carried in NormalizedDevice.MeshStatus.
const (
	MeshStatusPlain      = ""
	MeshStatusMesh       = "mesh"
	MeshWithPrefix       = "mesh-with:"
	LANLinkedPrefix      = "lan-linked:"
	UnknownPrincipal     = "unknown"
	MeshStatusUnresolved = MeshWithPrefix + UnknownPrincipal
)

// WifiNetwork is one WLANConfiguration entry.
type WifiNetwork struct {
	Index      string `json:"index"`
	SSID       string `json:"ssid"`
	Passphrase string `json:"passphrase"`
	Enabled    bool   `json:"enabled"`
}

// ConnectedHost is one LAN host reported by the CPE.
type ConnectedHost struct {
	MAC      string `json:"mac"`
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
}

// NormalizedDevice is the engine's canonical view of a CPE.
type NormalizedDevice struct {
	Serial                    string          `json:"serial"`
	DeviceID                  *string         `json:"deviceId"`
	Manufacturer              string          `json:"manufacturer"`
	Model                     string          `json:"model"`
	SoftwareVersion           string          `json:"softwareVersion"`
	HardwareVersion           string          `json:"hardwareVersion"`
	ExternalIP                string          `json:"externalIP"`
	ConnectionMAC             string          `json:"connectionMac"`
	PPPoEUsername             string          `json:"pppoeUsername"`
	PPPoEPassword             string          `json:"pppoePassword"`
	ConnectionRequestUsername string          `json:"connectionRequestUsername"`
	WifiNetworks              []WifiNetwork   `json:"wifiNetworks"`
	ConnectedHosts            []ConnectedHost `json:"connectedHosts"`
	LastContact               *time.Time      `json:"lastContact"`
	Status                    DeviceStatus    `json:"status"`
	MeshStatus                string          `json:"meshStatus"`
	PrincipalSerial           *string         `json:"principalSerial"`
	DeviceUptimeSeconds       int64           `json:"deviceUptimeSeconds"`
	MultiAPEnabled            bool            `json:"multiAPEnabled"`
	DNSServers                string          `json:"dnsServers"`
	LANIP                     string          `json:"lanIp"`
	DHCPGateway               string          `json:"dhcpGateway"`
	DHCPMin                   string          `json:"dhcpMin"`
	DHCPMax                   string          `json:"dhcpMax"`
	GponRXPower               string          `json:"gponRxPower"`
	GponTXPower               string          `json:"gponTxPower"`
}

// IsSecondary reports whether the device hangs off another principal,
// either over mesh or over a LAN link.
func (d *NormalizedDevice) IsSecondary() bool {
	return strings.HasPrefix(d.MeshStatus, MeshWithPrefix) || strings.HasPrefix(d.MeshStatus, LANLinkedPrefix)
}

// Synthesized reports whether the device was inferred from another
// device's record and has no document of its own in GenieACS.
func (d *NormalizedDevice) Synthesized() bool {
	return d.DeviceID == nil
}

// MeshClass buckets MeshStatus into a small fixed label set for counters.
func (d *NormalizedDevice) MeshClass() string {
	switch {
	case d.MeshStatus == MeshStatusPlain:
		return "plain"
	case d.MeshStatus == MeshStatusMesh:
		return "mesh"
	case d.MeshStatus == MeshStatusUnresolved:
		return "unresolved"
	case strings.HasPrefix(d.MeshStatus, MeshWithPrefix):
		return "mesh-with"
	case strings.HasPrefix(d.MeshStatus, LANLinkedPrefix):
		return "lan-linked"
	default:
		return "other"
	}
}

// Clone returns a deep copy so callers can never alias snapshot memory.
func (d *NormalizedDevice) Clone() NormalizedDevice {
	out := *d

	if d.DeviceID != nil {
		id := *d.DeviceID
		out.DeviceID = &id
	}

	if d.PrincipalSerial != nil {
		p := *d.PrincipalSerial
		out.PrincipalSerial = &p
	}

	if d.LastContact != nil {
		ts := *d.LastContact
		out.LastContact = &ts
	}

	out.WifiNetworks = append([]WifiNetwork{}, d.WifiNetworks...)
	out.ConnectedHosts = append([]ConnectedHost{}, d.ConnectedHosts...)

	return out
}

// SnapshotSummary describes one published snapshot.
type SnapshotSummary struct {
	Cycle    uint64         `json:"cycle"`
	BuiltAt  time.Time      `json:"built_at"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	ByMesh   map[string]int `json:"by_mesh"`
	Duration Duration       `json:"duration"`
}
