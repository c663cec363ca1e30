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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

func newTestResolver() *MeshResolver {
	return NewMeshResolver(DefaultSecondaryModels(), logger.NewTestLogger())
}

func assertMeshInvariant(t *testing.T, devices []models.NormalizedDevice) {
	t.Helper()

	children := make(map[string]int)

	for _, d := range devices {
		if d.IsSecondary() && d.MeshStatus != models.MeshStatusUnresolved {
			children[*d.PrincipalSerial]++
		}
	}

	for _, d := range devices {
		valid := d.MeshStatus == models.MeshStatusPlain ||
			d.MeshStatus == models.MeshStatusMesh ||
			strings.HasPrefix(d.MeshStatus, models.MeshWithPrefix) ||
			strings.HasPrefix(d.MeshStatus, models.LANLinkedPrefix)
		assert.True(t, valid, "unexpected mesh status %q on %s", d.MeshStatus, d.Serial)
		assert.Equal(t, d.MeshStatus == models.MeshStatusPlain, d.PrincipalSerial == nil,
			"principal serial presence mismatch on %s", d.Serial)

		if d.MeshStatus == models.MeshStatusMesh {
			assert.Positive(t, children[d.Serial], "mesh principal %s has no children", d.Serial)
			assert.Equal(t, d.Serial, *d.PrincipalSerial)
		}
	}
}

func TestResolveMultiAPEndToEnd(t *testing.T) {
	a := withExternalIP(newRaw("A", "FiberHome", 30*time.Second), "203.0.113.5")
	withAP(a, "1", "AA:BB:CC:00:11:22", "MERCUSYS", "MR30G")

	devices := newTestResolver().Resolve(draftsFor(a))
	require.Len(t, devices, 2)
	assertMeshInvariant(t, devices)

	sat := devices[0]
	assert.Equal(t, "AABBCC001122", sat.Serial)
	assert.Nil(t, sat.DeviceID)
	assert.True(t, sat.Synthesized())
	assert.Equal(t, "mesh-with:A", sat.MeshStatus)
	require.NotNil(t, sat.PrincipalSerial)
	assert.Equal(t, "A", *sat.PrincipalSerial)
	assert.Equal(t, "MERCUSYS", sat.Manufacturer)
	assert.Equal(t, "MR30G", sat.Model)
	assert.Equal(t, notAvailable, sat.ExternalIP)
	assert.Equal(t, notAvailable, sat.ConnectionMAC)
	assert.Empty(t, sat.PPPoEUsername)
	assert.Empty(t, sat.WifiNetworks)
	assert.Equal(t, models.DeviceStatusOnline, sat.Status)
	require.NotNil(t, sat.LastContact)

	principal := devices[1]
	assert.Equal(t, "A", principal.Serial)
	assert.Equal(t, models.MeshStatusMesh, principal.MeshStatus)
	require.NotNil(t, principal.PrincipalSerial)
	assert.Equal(t, "A", *principal.PrincipalSerial)
	assert.True(t, principal.LastContact.Equal(*sat.LastContact))
}

func TestResolveDedupAcrossPrincipals(t *testing.T) {
	g1 := withAP(newRaw("G1", "FiberHome", time.Minute), "1", "aa:bb:cc:00:11:22", "MERCUSYS", "MR30G")
	g2 := withAP(newRaw("G2", "FiberHome", time.Minute), "1", "AABBCC001122", "MERCUSYS", "MR30G")

	devices := newTestResolver().Resolve(draftsFor(g1, g2))
	assertMeshInvariant(t, devices)

	count := 0

	for _, d := range devices {
		if d.Serial == "AABBCC001122" {
			count++

			assert.Equal(t, "mesh-with:G1", d.MeshStatus)
		}
	}

	assert.Equal(t, 1, count)

	got := bySerial(devices)
	assert.Equal(t, models.MeshStatusMesh, got["G1"].MeshStatus)
	assert.Equal(t, models.MeshStatusPlain, got["G2"].MeshStatus)
	assert.Nil(t, got["G2"].PrincipalSerial)
}

func TestResolveAccessPointFilters(t *testing.T) {
	g := newRaw("G", "FiberHome", time.Minute)
	withAP(g, "1", "00:00:00:00:00:01", "TP-Link", "MR30G")
	withAP(g, "2", "00:00:00:00:00:02", "MERCUSYS", "MR70X")
	withAP(g, "3", "", "MERCUSYS", "MR30G")
	withAP(g, "4", "00:00:00:00:00:04", "Mercusys", "mr50g")

	devices := newTestResolver().Resolve(draftsFor(g))
	require.Len(t, devices, 2)
	assert.Equal(t, "000000000004", devices[0].Serial)
	assert.Equal(t, "mr50g", devices[0].Model)
	assertMeshInvariant(t, devices)
}

func TestResolveIgnoresAccessPointsOnOtherVendors(t *testing.T) {
	zte := withExternalIP(newRaw("Z", "ZTE", time.Minute), "203.0.113.9")
	withAP(zte, "1", "00:00:00:00:00:01", "MERCUSYS", "MR30G")

	devices := newTestResolver().Resolve(draftsFor(zte))
	require.Len(t, devices, 1)
	assert.Equal(t, models.MeshStatusPlain, devices[0].MeshStatus)
}

func TestResolveLANLinked(t *testing.T) {
	g := newRaw("G", "FiberHome", time.Minute)
	withHost(g, "1", "11:22:33:44:55:66", "laptop")
	withHost(g, "2", "aa:bb:cc:00:00:09", " mr60x ")
	withHost(g, "3", notAvailable, "MR30G")

	devices := newTestResolver().Resolve(draftsFor(g))
	require.Len(t, devices, 2)
	assertMeshInvariant(t, devices)

	assert.Equal(t, "AABBCC000009", devices[0].Serial)
	assert.Equal(t, "lan-linked:G", devices[0].MeshStatus)
	assert.Equal(t, "mr60x", devices[0].Model)
	assert.Equal(t, models.MeshStatusMesh, devices[1].MeshStatus)
}

func TestResolveHostsSkippedWhenAccessPointMatched(t *testing.T) {
	g := newRaw("G", "FiberHome", time.Minute)
	withAP(g, "1", "aa:bb:cc:00:00:01", "MERCUSYS", "MR30G")
	withHost(g, "1", "aa:bb:cc:00:00:02", "MR30G")

	devices := newTestResolver().Resolve(draftsFor(g))
	require.Len(t, devices, 2)
	assert.Equal(t, "AABBCC000001", devices[0].Serial)
	assert.Equal(t, "mesh-with:G", devices[0].MeshStatus)
}

func TestResolveSkipsSelfReference(t *testing.T) {
	g := withAP(newRaw("AABBCC000001", "FiberHome", time.Minute), "1", "aa:bb:cc:00:00:01", "MERCUSYS", "MR30G")

	devices := newTestResolver().Resolve(draftsFor(g))
	require.Len(t, devices, 1)
	assert.Equal(t, models.MeshStatusPlain, devices[0].MeshStatus)
	assert.Nil(t, devices[0].PrincipalSerial)
}

func TestResolveClaimsRealDeviceInsteadOfSynthesizing(t *testing.T) {
	g := withExternalIP(newRaw("G", "FiberHome", time.Minute), "203.0.113.5")
	withAP(g, "1", "aa:bb:cc:00:00:01", "MERCUSYS", "MR60X")
	sat := newRaw("AABBCC000001", "MERCUSYS", time.Minute)

	devices := newTestResolver().Resolve(draftsFor(g, sat))
	require.Len(t, devices, 2)
	assertMeshInvariant(t, devices)

	got := bySerial(devices)
	assert.Equal(t, models.MeshStatusMesh, got["G"].MeshStatus)
	assert.Equal(t, "mesh-with:G", got["AABBCC000001"].MeshStatus)
	assert.NotNil(t, got["AABBCC000001"].DeviceID)
}

func TestResolvePromotesReachableSatellite(t *testing.T) {
	g := withExternalIP(newRaw("G", "FiberHome", time.Minute), "203.0.113.5")
	withAP(g, "1", "aa:bb:cc:00:00:01", "MERCUSYS", "MR60X")
	sat := withExternalIP(newRaw("AABBCC000001", "MERCUSYS", time.Minute), "198.51.100.7")

	devices := newTestResolver().Resolve(draftsFor(g, sat))
	require.Len(t, devices, 2)
	assertMeshInvariant(t, devices)

	got := bySerial(devices)
	assert.Equal(t, models.MeshStatusPlain, got["AABBCC000001"].MeshStatus)
	assert.Equal(t, models.MeshStatusPlain, got["G"].MeshStatus)
}

func TestResolveConnectionRequestUsername(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		user      string
		want      string
	}{
		{name: "suffix", principal: "FHTT0001", user: "cwmp-FHTT0001", want: "mesh-with:FHTT0001"},
		{name: "whole value", principal: "FHTT-0002", user: "FHTT-0002", want: "mesh-with:FHTT-0002"},
		{name: "no match", principal: "FHTT0003", user: "cwmp-OTHER", want: models.MeshStatusUnresolved},
		{name: "self reference", principal: "FHTT0004", user: "cwmp-SAT", want: models.MeshStatusUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := withExternalIP(newRaw(tt.principal, "FiberHome", time.Minute), "203.0.113.5")
			sat := withRequestUser(newRaw("SAT", "TP-Link", time.Minute), tt.user)

			devices := newTestResolver().Resolve(draftsFor(g, sat))
			require.Len(t, devices, 2)
			assertMeshInvariant(t, devices)

			got := bySerial(devices)
			assert.Equal(t, tt.want, got["SAT"].MeshStatus)

			if tt.want == models.MeshStatusUnresolved {
				assert.Equal(t, models.UnknownPrincipal, *got["SAT"].PrincipalSerial)
				assert.Equal(t, models.MeshStatusPlain, got[tt.principal].MeshStatus)

				return
			}

			assert.Equal(t, tt.principal, *got["SAT"].PrincipalSerial)
			assert.Equal(t, models.MeshStatusMesh, got[tt.principal].MeshStatus)
		})
	}
}

func TestResolveUsernameIgnoredWhenReachable(t *testing.T) {
	g := newRaw("FHTT0001", "FiberHome", time.Minute)
	sat := withExternalIP(withRequestUser(newRaw("SAT", "TP-Link", time.Minute), "cwmp-FHTT0001"), "198.51.100.1")

	got := bySerial(newTestResolver().Resolve(draftsFor(g, sat)))
	assert.Equal(t, models.MeshStatusPlain, got["SAT"].MeshStatus)
	assert.Equal(t, models.MeshStatusPlain, got["FHTT0001"].MeshStatus)
}

func TestResolveRejectsCycles(t *testing.T) {
	x := withRequestUser(newRaw("X", "TP-Link", time.Minute), "cwmp-Y")
	y := withRequestUser(newRaw("Y", "TP-Link", time.Minute), "cwmp-X")

	devices := newTestResolver().Resolve(draftsFor(x, y))
	assertMeshInvariant(t, devices)

	got := bySerial(devices)
	assert.Equal(t, "mesh-with:Y", got["X"].MeshStatus)
	assert.Equal(t, models.MeshStatusUnresolved, got["Y"].MeshStatus)
}

func TestResolveDefaults(t *testing.T) {
	fh := newRaw("FH", "FiberHome", time.Minute)
	reachable := withExternalIP(newRaw("R", "Huawei", time.Minute), "203.0.113.8")
	orphan := newRaw("O", "Huawei", time.Minute)

	got := bySerial(newTestResolver().Resolve(draftsFor(fh, reachable, orphan)))
	assert.Equal(t, models.MeshStatusPlain, got["FH"].MeshStatus)
	assert.Nil(t, got["FH"].PrincipalSerial)
	assert.Equal(t, models.MeshStatusPlain, got["R"].MeshStatus)
	assert.Equal(t, models.MeshStatusUnresolved, got["O"].MeshStatus)
	assert.Equal(t, models.UnknownPrincipal, *got["O"].PrincipalSerial)
}

func TestResolveMixedFleetInvariant(t *testing.T) {
	g1 := withExternalIP(newRaw("G1", "FiberHome", time.Minute), "203.0.113.1")
	withAP(g1, "1", "aa:00:00:00:00:01", "MERCUSYS", "MR30G")
	withAP(g1, "2", "aa:00:00:00:00:02", "MERCUSYS", "MR60X")

	g2 := newRaw("G2", "FiberHome", 5*time.Minute)
	withHost(g2, "1", "aa:00:00:00:00:03", "AC12G")

	g3 := withAP(newRaw("G3", "FiberHome", time.Hour), "1", "aa:00:00:00:00:01", "MERCUSYS", "MR30G")

	sat := withRequestUser(newRaw("SAT", "TP-Link", time.Minute), "x-G3")
	orphan := newRaw("ORPHAN", "TP-Link", time.Minute)

	devices := newTestResolver().Resolve(draftsFor(g1, g2, g3, sat, orphan))
	assertMeshInvariant(t, devices)

	got := bySerial(devices)
	assert.Len(t, devices, 8)
	assert.Equal(t, models.MeshStatusMesh, got["G1"].MeshStatus)
	assert.Equal(t, models.MeshStatusMesh, got["G2"].MeshStatus)
	assert.Equal(t, models.MeshStatusMesh, got["G3"].MeshStatus)
	assert.Equal(t, "lan-linked:G2", got["AA0000000003"].MeshStatus)
	assert.Equal(t, models.DeviceStatusAlert, got["AA0000000003"].Status)
	assert.Equal(t, "mesh-with:G3", got["SAT"].MeshStatus)
	assert.Equal(t, models.MeshStatusUnresolved, got["ORPHAN"].MeshStatus)
}

func TestResolveIsDeterministic(t *testing.T) {
	g := withExternalIP(newRaw("G", "FiberHome", time.Minute), "203.0.113.5")
	for i, mac := range []string{"aa:00:00:00:00:05", "aa:00:00:00:00:01", "aa:00:00:00:00:03"} {
		withAP(g, string(rune('1'+i)), mac, "MERCUSYS", "MR30G")
	}

	first := newTestResolver().Resolve(draftsFor(g))
	second := newTestResolver().Resolve(draftsFor(g))
	assert.Equal(t, first, second)
	assert.Equal(t, "AA0000000005", first[0].Serial)
	assert.Equal(t, "AA0000000001", first[1].Serial)
	assert.Equal(t, "AA0000000003", first[2].Serial)
}

func TestTopologyGraph(t *testing.T) {
	g := newTopologyGraph()

	assert.False(t, g.AddEdge("A", "A"))
	assert.True(t, g.AddEdge("B", "A"))
	assert.True(t, g.AddEdge("C", "B"))
	assert.False(t, g.AddEdge("A", "C"), "A -> C -> B -> A is a cycle")
	assert.False(t, g.AddEdge("B", "D"), "B already has a principal")

	p, ok := g.PrincipalOf("C")
	assert.True(t, ok)
	assert.Equal(t, "B", p)

	_, ok = g.PrincipalOf("A")
	assert.False(t, ok)
}
