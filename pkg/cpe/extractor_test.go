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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cpesync/pkg/models"
)

func TestExtractFullRecord(t *testing.T) {
	raw := newRaw("FHTT00000001", "FiberHome", 30*time.Second)
	setParam(raw, deviceInfo+".ModelName", "HG6145F")
	setParam(raw, deviceInfo+".SoftwareVersion", "RP2931")
	setParam(raw, deviceInfo+".HardwareVersion", "WKE2.094.331A01")
	setParam(raw, deviceInfo+".UpTime", float64(86400))
	withExternalIP(raw, "203.0.113.5")
	setParam(raw, wan1IP+".MACAddress", "AA:BB:CC:DD:EE:01")
	withPPPoE(raw, "AA:BB:CC:DD:EE:02", "alice")
	withRequestUser(raw, "acs-FHTT00000001")
	setParam(raw, lanDevice+".WLANConfiguration.10.SSID", "guest")
	setParam(raw, lanDevice+".WLANConfiguration.10.Enable", "false")
	setParam(raw, lanDevice+".WLANConfiguration.2.SSID", "home-5g")
	setParam(raw, lanDevice+".WLANConfiguration.2.Enable", true)
	setParam(raw, lanDevice+".WLANConfiguration.1.SSID", "home")
	setParam(raw, lanDevice+".WLANConfiguration.1.KeyPassphrase", "hunter22")
	setParam(raw, lanDevice+".WLANConfiguration.1.Enable", "1")
	withHost(raw, "1", "11:22:33:44:55:66", "laptop")
	setParam(raw, multiAP+".Enable", "TRUE")
	setParam(raw, lanHostConf+".DNSServers", "8.8.8.8,1.1.1.1")
	setParam(raw, lanHostConf+".IPInterface.1.IPInterfaceIPAddress", "192.168.1.1")
	setParam(raw, lanHostConf+".IPRouters", "192.168.1.1")
	setParam(raw, lanHostConf+".MinAddress", "192.168.1.2")
	setParam(raw, lanHostConf+".MaxAddress", "192.168.1.254")
	setParam(raw, igd+".WANDevice.2."+gponNode+".RXPower", "-18.5")
	setParam(raw, igd+".WANDevice.2."+gponNode+".TXPower", float64(2.1))

	dev := NewExtractor().Extract(raw, testNow)

	assert.Equal(t, "FHTT00000001", dev.Serial)
	require.NotNil(t, dev.DeviceID)
	assert.Equal(t, "00D0F8-HG6145F-FHTT00000001", *dev.DeviceID)
	assert.Equal(t, "FiberHome", dev.Manufacturer)
	assert.Equal(t, "HG6145F", dev.Model)
	assert.Equal(t, "RP2931", dev.SoftwareVersion)
	assert.Equal(t, "WKE2.094.331A01", dev.HardwareVersion)
	assert.Equal(t, "203.0.113.5", dev.ExternalIP)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", dev.ConnectionMAC)
	assert.Equal(t, "alice", dev.PPPoEUsername)
	assert.Equal(t, "secret", dev.PPPoEPassword)
	assert.Equal(t, "acs-FHTT00000001", dev.ConnectionRequestUsername)
	assert.Equal(t, int64(86400), dev.DeviceUptimeSeconds)
	assert.True(t, dev.MultiAPEnabled)
	assert.Equal(t, "8.8.8.8,1.1.1.1", dev.DNSServers)
	assert.Equal(t, "192.168.1.1", dev.LANIP)
	assert.Equal(t, "192.168.1.1", dev.DHCPGateway)
	assert.Equal(t, "192.168.1.2", dev.DHCPMin)
	assert.Equal(t, "192.168.1.254", dev.DHCPMax)
	assert.Equal(t, "-18.5", dev.GponRXPower)
	assert.Equal(t, "2.1", dev.GponTXPower)
	assert.Equal(t, models.DeviceStatusOnline, dev.Status)
	require.NotNil(t, dev.LastContact)
	assert.True(t, testNow.Add(-30*time.Second).Equal(*dev.LastContact))

	assert.Equal(t, []models.WifiNetwork{
		{Index: "1", SSID: "home", Passphrase: "hunter22", Enabled: true},
		{Index: "2", SSID: "home-5g", Enabled: true},
		{Index: "10", SSID: "guest", Enabled: false},
	}, dev.WifiNetworks)

	assert.Equal(t, []models.ConnectedHost{
		{MAC: "11:22:33:44:55:66", Hostname: "laptop", IP: "192.168.1.10"},
	}, dev.ConnectedHosts)

	assert.Empty(t, dev.MeshStatus)
	assert.Nil(t, dev.PrincipalSerial)
}

func TestExtractDefaults(t *testing.T) {
	dev := NewExtractor().Extract(models.RawDevice{}, testNow)

	assert.Equal(t, notAvailable, dev.Serial)
	assert.Equal(t, notAvailable, dev.Manufacturer)
	assert.Equal(t, notAvailable, dev.Model)
	assert.Equal(t, notAvailable, dev.SoftwareVersion)
	assert.Equal(t, notAvailable, dev.HardwareVersion)
	assert.Equal(t, notAvailable, dev.ExternalIP)
	assert.Equal(t, notAvailable, dev.ConnectionMAC)
	assert.Equal(t, notAvailable, dev.LANIP)
	assert.Equal(t, notAvailable, dev.GponRXPower)
	assert.Equal(t, notAvailable, dev.GponTXPower)
	assert.Empty(t, dev.PPPoEUsername)
	assert.Empty(t, dev.PPPoEPassword)
	assert.Empty(t, dev.ConnectionRequestUsername)
	assert.Empty(t, dev.DNSServers)
	assert.Empty(t, dev.DHCPGateway)
	assert.Zero(t, dev.DeviceUptimeSeconds)
	assert.False(t, dev.MultiAPEnabled)
	assert.NotNil(t, dev.WifiNetworks)
	assert.Empty(t, dev.WifiNetworks)
	assert.NotNil(t, dev.ConnectedHosts)
	assert.Empty(t, dev.ConnectedHosts)
	assert.Nil(t, dev.LastContact)
	assert.Equal(t, models.DeviceStatusOffline, dev.Status)
	require.NotNil(t, dev.DeviceID)
	assert.Equal(t, "N/A-N/A-N/A", *dev.DeviceID)
}

func TestExtractKeepsLargeNumericValuesExact(t *testing.T) {
	const doc = `{
		"_id": "00D0F8-HG6145F-48575443123456789",
		"_lastInform": 1748779170000,
		"InternetGatewayDevice": {
			"DeviceInfo": {
				"SerialNumber": {"_value": 48575443123456789},
				"UpTime": {"_value": 3600}
			},
			"LANDevice": {"1": {"WLANConfiguration": {"1": {
				"SSID": {"_value": "home"},
				"Enable": {"_value": 1}
			}}}}
		}
	}`

	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	var raw models.RawDevice
	require.NoError(t, dec.Decode(&raw))

	dev := NewExtractor().Extract(raw, testNow)

	assert.Equal(t, "48575443123456789", dev.Serial)
	assert.Equal(t, int64(3600), dev.DeviceUptimeSeconds)
	require.NotNil(t, dev.LastContact)
	assert.True(t, dev.LastContact.Equal(time.UnixMilli(1748779170000)))
	require.Len(t, dev.WifiNetworks, 1)
	assert.True(t, dev.WifiNetworks[0].Enabled)
}

func TestExtractMalformedShapes(t *testing.T) {
	raw := models.RawDevice{
		"_deviceId":   "not-an-object",
		"_lastInform": []interface{}{"nope"},
		igd: map[string]interface{}{
			"DeviceInfo": "flat",
			"LANDevice": map[string]interface{}{
				"1": map[string]interface{}{
					"WLANConfiguration": map[string]interface{}{
						"_object": true,
						"1":       "garbage",
						"2":       map[string]interface{}{"SSID": "plain-string"},
					},
					"Hosts": map[string]interface{}{"Host": []interface{}{1, 2}},
				},
			},
			"WiFi": map[string]interface{}{"MultiAP": map[string]interface{}{"Enable": map[string]interface{}{valueKey: nil}}},
		},
	}

	var dev models.NormalizedDevice

	require.NotPanics(t, func() {
		dev = NewExtractor().Extract(raw, testNow)
	})

	assert.Equal(t, notAvailable, dev.Serial)
	assert.Nil(t, dev.LastContact)
	assert.Equal(t, []models.WifiNetwork{{Index: "2"}}, dev.WifiNetworks)
	assert.Empty(t, dev.ConnectedHosts)
	assert.False(t, dev.MultiAPEnabled)
}

func TestExtractExternalIPByManufacturer(t *testing.T) {
	tests := []struct {
		name         string
		manufacturer string
		ppp          string
		ip           string
		want         string
	}{
		{name: "fiberhome prefers ppp", manufacturer: "FiberHome", ppp: "203.0.113.1", ip: "198.51.100.1", want: "203.0.113.1"},
		{name: "fiberhome falls back to ip", manufacturer: "FiberHome", ip: "198.51.100.1", want: "198.51.100.1"},
		{name: "other reads ppp", manufacturer: "TP-Link", ppp: "203.0.113.2", want: "203.0.113.2"},
		{name: "other ignores ip connection", manufacturer: "TP-Link", ip: "198.51.100.2", want: notAvailable},
		{name: "nothing reported", manufacturer: "FiberHome", want: notAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := newRaw("S1", tt.manufacturer, time.Minute)
			if tt.ppp != "" {
				setParam(raw, wan1PPP+".ExternalIPAddress", tt.ppp)
			}

			if tt.ip != "" {
				setParam(raw, wan1IP+".ExternalIPAddress", tt.ip)
			}

			assert.Equal(t, tt.want, NewExtractor().Extract(raw, testNow).ExternalIP)
		})
	}
}

func TestExtractConnectionMACPriority(t *testing.T) {
	raw := newRaw("S1", "FiberHome", time.Minute)
	setParam(raw, wan2PPP+".MACAddress", "00:00:00:00:00:04")
	setParam(raw, wan2IP+".MACAddress", "00:00:00:00:00:03")
	assert.Equal(t, "00:00:00:00:00:03", NewExtractor().Extract(raw, testNow).ConnectionMAC)

	setParam(raw, wan1PPP+".MACAddress", "00:00:00:00:00:02")
	assert.Equal(t, "00:00:00:00:00:02", NewExtractor().Extract(raw, testNow).ConnectionMAC)

	setParam(raw, wan1IP+".MACAddress", "00:00:00:00:00:01")
	assert.Equal(t, "00:00:00:00:00:01", NewExtractor().Extract(raw, testNow).ConnectionMAC)
}

func TestExtractPPPoEFallsBackToSecondWAN(t *testing.T) {
	raw := newRaw("S1", "FiberHome", time.Minute)
	setParam(raw, wan1PPP+".Password", "orphan")
	setParam(raw, wan2PPP+".Username", "bob")
	setParam(raw, wan2PPP+".Password", "pw2")

	dev := NewExtractor().Extract(raw, testNow)
	assert.Equal(t, "bob", dev.PPPoEUsername)
	assert.Equal(t, "pw2", dev.PPPoEPassword)

	setParam(raw, wan1PPP+".Username", "alice")

	dev = NewExtractor().Extract(raw, testNow)
	assert.Equal(t, "alice", dev.PPPoEUsername)
	assert.Equal(t, "orphan", dev.PPPoEPassword)
}

func TestExtractSerialAndModelFallbacks(t *testing.T) {
	raw := models.RawDevice{
		"_deviceId": map[string]interface{}{
			"_SerialNumber": "MX123",
			"_Manufacturer": "MERCUSYS",
			"_ProductClass": "MR30G",
			"_OUI":          "5C628B",
		},
	}

	dev := NewExtractor().Extract(raw, testNow)
	assert.Equal(t, "MX123", dev.Serial)
	assert.Equal(t, "MERCUSYS", dev.Manufacturer)
	assert.Equal(t, "MR30G", dev.Model)
	require.NotNil(t, dev.DeviceID)
	assert.Equal(t, "5C628B-MR30G-MX123", *dev.DeviceID)

	setParam(raw, deviceInfo+".ProductClass", "MR30G-v2")
	assert.Equal(t, "MR30G-v2", NewExtractor().Extract(raw, testNow).Model)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 6, 1, 11, 59, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want *time.Time
	}{
		{name: "rfc3339", in: "2025-06-01T11:59:00Z", want: &want},
		{name: "offset", in: "2025-06-01T08:59:00-03:00", want: &want},
		{name: "epoch millis", in: float64(want.UnixMilli()), want: &want},
		{name: "extended json", in: map[string]interface{}{"$date": "2025-06-01T11:59:00.000Z"}, want: &want},
		{name: "garbage", in: "yesterday"},
		{name: "nil", in: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}
}

func TestParseUptime(t *testing.T) {
	assert.Equal(t, int64(42), parseUptime(float64(42)))
	assert.Equal(t, int64(42), parseUptime("42"))
	assert.Equal(t, int64(42), parseUptime(" 42.9 "))
	assert.Zero(t, parseUptime("soon"))
	assert.Zero(t, parseUptime(float64(-1)))
	assert.Zero(t, parseUptime(nil))
}

func TestParseManufacturer(t *testing.T) {
	assert.Equal(t, ManufacturerFiberHome, ParseManufacturer("FiberHome"))
	assert.Equal(t, ManufacturerFiberHome, ParseManufacturer(" fiberhome "))
	assert.Equal(t, ManufacturerMercusys, ParseManufacturer("Mercusys"))
	assert.Equal(t, ManufacturerOther, ParseManufacturer("ZTE"))
	assert.Equal(t, ManufacturerOther, ParseManufacturer(notAvailable))
}

func TestSortIndexKeys(t *testing.T) {
	keys := []string{"10", "b", "2", "a", "1"}
	sortIndexKeys(keys)
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, keys)
}
