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

package cpe

import (
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

// Manufacturer is the vendor family a device belongs to. Only the
// families that change extraction or mesh behaviour are distinguished.
type Manufacturer int

const (
	ManufacturerOther Manufacturer = iota
	ManufacturerFiberHome
	ManufacturerMercusys
)

func (m Manufacturer) String() string {
	switch m {
	case ManufacturerFiberHome:
		return "FiberHome"
	case ManufacturerMercusys:
		return "MERCUSYS"
	case ManufacturerOther:
		return "other"
	default:
		return "other"
	}
}

// ParseManufacturer maps a reported manufacturer string to its family.
func ParseManufacturer(s string) Manufacturer {
	switch s = strings.TrimSpace(s); {
	case strings.EqualFold(s, "FiberHome"):
		return ManufacturerFiberHome
	case strings.EqualFold(s, "MERCUSYS"):
		return ManufacturerMercusys
	default:
		return ManufacturerOther
	}
}

const (
	igd         = "InternetGatewayDevice"
	deviceInfo  = igd + ".DeviceInfo"
	lanDevice   = igd + ".LANDevice.1"
	lanHostConf = lanDevice + ".LANHostConfigManagement"
	multiAP     = igd + ".WiFi.MultiAP"
	gponNode    = "X_FH_GponInterfaceConfig"
)

func wanConn(slot int, kind string) string {
	return fmt.Sprintf("%s.WANDevice.%d.WANConnectionDevice.1.%s.1", igd, slot, kind)
}

var (
	wan1PPP = wanConn(1, "WANPPPConnection")
	wan1IP  = wanConn(1, "WANIPConnection")
	wan2PPP = wanConn(2, "WANPPPConnection")
	wan2IP  = wanConn(2, "WANIPConnection")

	serialChain = fieldChain(
		param(deviceInfo+".SerialNumber"),
		identity("_SerialNumber"),
	)
	manufacturerChain = fieldChain(
		param(deviceInfo+".Manufacturer"),
		identity("_Manufacturer"),
	)
	modelChain = fieldChain(
		param(deviceInfo+".ModelName"),
		param(deviceInfo+".ProductClass"),
		identity("_ProductClass"),
	)
	connectionMACChain = fieldChain(
		param(wan1IP+".MACAddress"),
		param(wan1PPP+".MACAddress"),
		param(wan2IP+".MACAddress"),
		param(wan2PPP+".MACAddress"),
	)
)

// externalIPChain picks the WAN address lookup order for a vendor family.
func externalIPChain(m Manufacturer) accessorFunc {
	switch m {
	case ManufacturerFiberHome:
		return fieldChain(
			param(wan1PPP+".ExternalIPAddress"),
			param(wan1IP+".ExternalIPAddress"),
		)
	case ManufacturerMercusys, ManufacturerOther:
		return param(wan1PPP + ".ExternalIPAddress")
	default:
		return param(wan1PPP + ".ExternalIPAddress")
	}
}

// accessPoint is one MultiAP satellite reported by a gateway.
type accessPoint struct {
	MAC          string
	Manufacturer string
	ProductClass string
}

// deviceDraft is an extracted device before mesh resolution.
type deviceDraft struct {
	device       models.NormalizedDevice
	vendor       Manufacturer
	accessPoints []accessPoint
}

// Extractor turns raw GenieACS documents into normalized devices.
type Extractor struct{}

// NewExtractor returns a stateless extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract normalizes raw with liveness evaluated at now. Mesh fields are
// left unset.
func (e *Extractor) Extract(raw models.RawDevice, now time.Time) models.NormalizedDevice {
	return e.draft(raw, now).device
}

func (*Extractor) draft(raw models.RawDevice, now time.Time) deviceDraft {
	a := NewAccessor(raw)

	manufacturer := orDefault(a, manufacturerChain, notAvailable)
	vendor := ParseManufacturer(manufacturer)

	var lastContact *time.Time
	if v, ok := a.Top("_lastInform"); ok {
		lastContact = parseTimestamp(v)
	}

	var uptime int64
	if v, ok := a.Raw(deviceInfo + ".UpTime"); ok {
		uptime = parseUptime(v)
	}

	dev := models.NormalizedDevice{
		Serial:                    orDefault(a, serialChain, notAvailable),
		DeviceID:                  deviceID(a),
		Manufacturer:              manufacturer,
		Model:                     orDefault(a, modelChain, notAvailable),
		SoftwareVersion:           orDefault(a, param(deviceInfo+".SoftwareVersion"), notAvailable),
		HardwareVersion:           orDefault(a, param(deviceInfo+".HardwareVersion"), notAvailable),
		ExternalIP:                orDefault(a, externalIPChain(vendor), notAvailable),
		ConnectionMAC:             orDefault(a, connectionMACChain, notAvailable),
		ConnectionRequestUsername: orDefault(a, param(igd+".ManagementServer.ConnectionRequestUsername"), ""),
		WifiNetworks:              wifiNetworks(a),
		ConnectedHosts:            connectedHosts(a),
		LastContact:               lastContact,
		Status:                    ClassifyStatus(lastContact, now),
		DeviceUptimeSeconds:       uptime,
		MultiAPEnabled:            multiAPEnabled(a),
		DNSServers:                orDefault(a, param(lanHostConf+".DNSServers"), ""),
		LANIP:                     orDefault(a, param(lanHostConf+".IPInterface.1.IPInterfaceIPAddress"), notAvailable),
		DHCPGateway:               orDefault(a, param(lanHostConf+".IPRouters"), ""),
		DHCPMin:                   orDefault(a, param(lanHostConf+".MinAddress"), ""),
		DHCPMax:                   orDefault(a, param(lanHostConf+".MaxAddress"), ""),
	}

	dev.PPPoEUsername, dev.PPPoEPassword = pppoeCredentials(a)
	dev.GponRXPower, dev.GponTXPower = gponPower(a)

	return deviceDraft{
		device:       dev,
		vendor:       vendor,
		accessPoints: accessPoints(a),
	}
}

// deviceID prefers the NBI document id and otherwise rebuilds it from the
// OUI, product class and serial triple.
func deviceID(a Accessor) *string {
	if v, ok := a.Top("_id"); ok {
		if s, ok := stringify(v); ok {
			return &s
		}
	}

	id := fmt.Sprintf("%s-%s-%s",
		orDefault(a, identity("_OUI"), notAvailable),
		orDefault(a, identity("_ProductClass"), notAvailable),
		orDefault(a, identity("_SerialNumber"), notAvailable),
	)

	return &id
}

// pppoeCredentials reads WAN1 and falls back to WAN2 only when WAN1 has
// no username.
func pppoeCredentials(a Accessor) (username, password string) {
	for _, conn := range []string{wan1PPP, wan2PPP} {
		if user, ok := a.Value(conn + ".Username"); ok {
			return user, orDefault(a, param(conn+".Password"), "")
		}
	}

	return "", ""
}

func wifiNetworks(a Accessor) []models.WifiNetwork {
	children := a.Children(lanDevice + ".WLANConfiguration")
	out := make([]models.WifiNetwork, 0, len(children))

	for _, c := range children {
		enabled, _ := c.node.Raw("Enable")

		out = append(out, models.WifiNetwork{
			Index:      c.index,
			SSID:       orDefault(c.node, param("SSID"), ""),
			Passphrase: orDefault(c.node, param("KeyPassphrase"), ""),
			Enabled:    truthy(enabled),
		})
	}

	return out
}

func connectedHosts(a Accessor) []models.ConnectedHost {
	children := a.Children(lanDevice + ".Hosts.Host")
	out := make([]models.ConnectedHost, 0, len(children))

	for _, c := range children {
		out = append(out, models.ConnectedHost{
			MAC:      orDefault(c.node, param("MACAddress"), notAvailable),
			Hostname: orDefault(c.node, param("HostName"), notAvailable),
			IP:       orDefault(c.node, param("IPAddress"), notAvailable),
		})
	}

	return out
}

func multiAPEnabled(a Accessor) bool {
	v, ok := a.Value(multiAP + ".Enable")
	if !ok {
		return false
	}

	v = strings.ToLower(v)

	return v == "1" || v == "true"
}

func accessPoints(a Accessor) []accessPoint {
	children := a.Children(multiAP + ".APDevice")
	out := make([]accessPoint, 0, len(children))

	for _, c := range children {
		out = append(out, accessPoint{
			MAC:          orDefault(c.node, param("MACAddress"), ""),
			Manufacturer: orDefault(c.node, param("Manufacturer"), ""),
			ProductClass: orDefault(c.node, param("ProductClass"), ""),
		})
	}

	return out
}

// gponPower reads optical levels from the first WAN device exposing the
// FiberHome GPON interface node.
func gponPower(a Accessor) (rx, tx string) {
	for _, wan := range a.Children(igd + ".WANDevice") {
		if _, ok := wan.node.Node(gponNode); !ok {
			continue
		}

		return orDefault(wan.node, param(gponNode+".RXPower"), notAvailable),
			orDefault(wan.node, param(gponNode+".TXPower"), notAvailable)
	}

	return notAvailable, notAvailable
}
