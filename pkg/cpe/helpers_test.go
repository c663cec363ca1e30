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
	"strings"
	"sync"
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// setParam writes a TR-069 leaf at path, creating intermediate objects.
func setParam(raw models.RawDevice, path string, v interface{}) {
	setNode(raw, path, map[string]interface{}{valueKey: v})
}

func setNode(raw models.RawDevice, path string, node interface{}) {
	cur := map[string]interface{}(raw)
	segs := strings.Split(path, ".")

	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[seg] = next
		}

		cur = next
	}

	cur[segs[len(segs)-1]] = node
}

// newRaw builds a minimal GenieACS document that informed ago before testNow.
func newRaw(serial, manufacturer string, ago time.Duration) models.RawDevice {
	raw := models.RawDevice{
		"_id":         "00D0F8-HG6145F-" + serial,
		"_lastInform": testNow.Add(-ago).Format(time.RFC3339Nano),
		"_deviceId": map[string]interface{}{
			"_SerialNumber": serial,
			"_Manufacturer": manufacturer,
			"_OUI":          "00D0F8",
			"_ProductClass": "HG6145F",
		},
	}

	setParam(raw, deviceInfo+".SerialNumber", serial)
	setParam(raw, deviceInfo+".Manufacturer", manufacturer)

	return raw
}

func withExternalIP(raw models.RawDevice, ip string) models.RawDevice {
	setParam(raw, wan1PPP+".ExternalIPAddress", ip)
	return raw
}

func withAP(raw models.RawDevice, idx, mac, manufacturer, model string) models.RawDevice {
	base := multiAP + ".APDevice." + idx
	setParam(raw, base+".MACAddress", mac)
	setParam(raw, base+".Manufacturer", manufacturer)
	setParam(raw, base+".ProductClass", model)

	return raw
}

func withHost(raw models.RawDevice, idx, mac, hostname string) models.RawDevice {
	base := lanDevice + ".Hosts.Host." + idx
	setParam(raw, base+".MACAddress", mac)
	setParam(raw, base+".HostName", hostname)
	setParam(raw, base+".IPAddress", "192.168.1.10")

	return raw
}

func withPPPoE(raw models.RawDevice, mac, user string) models.RawDevice {
	setParam(raw, wan1PPP+".MACAddress", mac)
	setParam(raw, wan1PPP+".Username", user)
	setParam(raw, wan1PPP+".Password", "secret")

	return raw
}

func withRequestUser(raw models.RawDevice, user string) models.RawDevice {
	setParam(raw, igd+".ManagementServer.ConnectionRequestUsername", user)
	return raw
}

func draftsFor(raws ...models.RawDevice) []deviceDraft {
	ex := NewExtractor()
	out := make([]deviceDraft, 0, len(raws))

	for _, r := range raws {
		out = append(out, ex.draft(r, testNow))
	}

	return out
}

func bySerial(devices []models.NormalizedDevice) map[string]models.NormalizedDevice {
	out := make(map[string]models.NormalizedDevice, len(devices))
	for _, d := range devices {
		out[d.Serial] = d
	}

	return out
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	ticker *fakeTicker
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, ticker: &fakeTicker{ch: make(chan time.Time, 1)}}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Ticker(time.Duration) Ticker {
	return c.ticker
}

func (c *fakeClock) Tick() {
	c.ticker.ch <- c.Now()
}
