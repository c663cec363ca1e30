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

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

// topologyGraph records is-secondary-of edges keyed by serial. A node has
// at most one principal and edges that would close a cycle are refused.
type topologyGraph struct {
	principalOf map[string]string
}

func newTopologyGraph() *topologyGraph {
	return &topologyGraph{principalOf: make(map[string]string)}
}

// AddEdge records child as a secondary of principal.
func (g *topologyGraph) AddEdge(child, principal string) bool {
	if child == principal {
		return false
	}

	if _, exists := g.principalOf[child]; exists {
		return false
	}

	for cur := principal; ; {
		if cur == child {
			return false
		}

		next, ok := g.principalOf[cur]
		if !ok {
			break
		}

		cur = next
	}

	g.principalOf[child] = principal

	return true
}

// PrincipalOf returns the direct principal of child.
func (g *topologyGraph) PrincipalOf(child string) (string, bool) {
	p, ok := g.principalOf[child]
	return p, ok
}

// meshEntry is one device on its way through resolution. principal marks
// devices that own their uplink; their final label is set by the sweeps.
type meshEntry struct {
	device    models.NormalizedDevice
	principal bool
}

// MeshResolver infers gateway/satellite relationships across one fleet
// read and synthesizes satellites that only appear inside a gateway's
// record.
type MeshResolver struct {
	secondaryModels map[string]struct{}
	logger          logger.Logger
}

// NewMeshResolver builds a resolver recognising the given satellite
// models (case-insensitive).
func NewMeshResolver(secondaryModels []string, log logger.Logger) *MeshResolver {
	allowed := make(map[string]struct{}, len(secondaryModels))

	for _, m := range secondaryModels {
		allowed[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
	}

	return &MeshResolver{secondaryModels: allowed, logger: log}
}

func (r *MeshResolver) isSecondaryModel(model string) bool {
	_, ok := r.secondaryModels[strings.ToUpper(strings.TrimSpace(model))]
	return ok
}

// claimSet tracks satellite keys seen in the gateway pass.
type claimSet struct {
	known       map[string]struct{}
	seen        map[string]struct{}
	realClaims  map[string]string
	pending     map[int][]models.NormalizedDevice
	graph       *topologyGraph
	synthesized int
}

// Resolve classifies every draft and returns the ordered device list,
// with synthesized satellites placed just ahead of their gateway.
func (r *MeshResolver) Resolve(drafts []deviceDraft) []models.NormalizedDevice {
	claims := &claimSet{
		known:      make(map[string]struct{}, len(drafts)),
		seen:       make(map[string]struct{}),
		realClaims: make(map[string]string),
		pending:    make(map[int][]models.NormalizedDevice),
		graph:      newTopologyGraph(),
	}

	for i := range drafts {
		claims.known[drafts[i].device.Serial] = struct{}{}
	}

	gateways := make([]bool, len(drafts))

	for i := range drafts {
		gateways[i] = r.claimSatellites(i, &drafts[i], claims)
	}

	entries := make([]meshEntry, 0, len(drafts)+claims.synthesized)

	for i := range drafts {
		for _, p := range claims.pending[i] {
			entries = append(entries, meshEntry{device: p})
		}

		entries = append(entries, r.classify(&drafts[i], gateways[i], claims))
	}

	promoteReachable(entries)
	markMeshPrincipals(entries)
	clearChildlessPrincipals(entries)

	out := make([]models.NormalizedDevice, len(entries))
	for i := range entries {
		out[i] = entries[i].device
	}

	return out
}

// claimSatellites runs the MultiAP and LAN host checks for a FiberHome
// gateway. LAN hosts are only considered when no access point matched.
func (r *MeshResolver) claimSatellites(idx int, d *deviceDraft, claims *claimSet) bool {
	if d.vendor != ManufacturerFiberHome {
		return false
	}

	matched := false

	for _, ap := range d.accessPoints {
		if ap.MAC == "" || ParseManufacturer(ap.Manufacturer) != ManufacturerMercusys || !r.isSecondaryModel(ap.ProductClass) {
			continue
		}

		matched = true
		model := ap.ProductClass

		claims.claim(idx, ap.MAC, &d.device, models.MeshWithPrefix, func(key string) models.NormalizedDevice {
			return placeholder(key, model, &d.device, models.MeshWithPrefix)
		})
	}

	if matched {
		return true
	}

	for _, h := range d.device.ConnectedHosts {
		if !r.isSecondaryModel(h.Hostname) || h.MAC == "" || h.MAC == notAvailable {
			continue
		}

		matched = true
		model := strings.TrimSpace(h.Hostname)

		claims.claim(idx, h.MAC, &d.device, models.LANLinkedPrefix, func(key string) models.NormalizedDevice {
			return placeholder(key, model, &d.device, models.LANLinkedPrefix)
		})
	}

	return matched
}

// claim registers mac as a satellite of gw. The first gateway to name a
// key owns it. A key that is already a real device's serial relabels that
// device instead of synthesizing a duplicate.
func (c *claimSet) claim(idx int, mac string, gw *models.NormalizedDevice, prefix string,
	build func(key string) models.NormalizedDevice) {
	key := normalizeMAC(mac)
	if key == "" || key == gw.Serial {
		return
	}

	if _, dup := c.seen[key]; dup {
		return
	}

	c.seen[key] = struct{}{}

	if !c.graph.AddEdge(key, gw.Serial) {
		return
	}

	if _, real := c.known[key]; real {
		c.realClaims[key] = prefix + gw.Serial
		return
	}

	c.pending[idx] = append(c.pending[idx], build(key))
	c.synthesized++
}

// classify applies the per-device precedence: satellite claims, gateway
// role, connection-request username match, then the vendor default.
func (r *MeshResolver) classify(d *deviceDraft, gateway bool, claims *claimSet) meshEntry {
	dev := d.device
	serial := dev.Serial

	if status, ok := claims.realClaims[serial]; ok {
		principal, _ := claims.graph.PrincipalOf(serial)
		setSecondary(&dev, status, principal)

		return meshEntry{device: dev}
	}

	if gateway {
		return meshEntry{device: dev, principal: true}
	}

	if principal, ok := r.matchUsername(d, claims); ok {
		setSecondary(&dev, models.MeshWithPrefix+principal, principal)

		return meshEntry{device: dev}
	}

	if d.vendor == ManufacturerFiberHome || hasExternalIP(&dev) {
		return meshEntry{device: dev, principal: true}
	}

	setSecondary(&dev, models.MeshStatusUnresolved, models.UnknownPrincipal)

	return meshEntry{device: dev}
}

// matchUsername resolves non-FiberHome devices without a WAN address
// through the connection request username. The segment after the last
// "-" is tried first, then the whole value.
func (r *MeshResolver) matchUsername(d *deviceDraft, claims *claimSet) (string, bool) {
	user := d.device.ConnectionRequestUsername
	if d.vendor == ManufacturerFiberHome || hasExternalIP(&d.device) || user == "" {
		return "", false
	}

	candidate := user
	if i := strings.LastIndex(user, "-"); i >= 0 {
		candidate = user[i+1:]
	}

	if _, ok := claims.known[candidate]; !ok {
		candidate = user
	}

	if _, ok := claims.known[candidate]; !ok {
		return "", false
	}

	if !claims.graph.AddEdge(d.device.Serial, candidate) {
		r.logger.Debug().
			Str("serial", d.device.Serial).
			Str("candidate", candidate).
			Msg("Rejected username match that would form a cycle")

		return "", false
	}

	return candidate, true
}

// promoteReachable turns satellites that report their own WAN address
// back into principals.
func promoteReachable(entries []meshEntry) {
	for i := range entries {
		e := &entries[i]
		if e.principal || !isChild(&e.device) {
			continue
		}

		if hasExternalIP(&e.device) {
			e.principal = true
		}
	}
}

// markMeshPrincipals labels principals that have at least one child.
func markMeshPrincipals(entries []meshEntry) {
	children := countChildren(entries)

	for i := range entries {
		e := &entries[i]
		if e.principal && children[e.device.Serial] > 0 {
			setSecondary(&e.device, models.MeshStatusMesh, e.device.Serial)
		}
	}
}

// clearChildlessPrincipals resets principals without children to the
// plain state.
func clearChildlessPrincipals(entries []meshEntry) {
	children := countChildren(entries)

	for i := range entries {
		e := &entries[i]
		if !e.principal || children[e.device.Serial] > 0 {
			continue
		}

		e.device.MeshStatus = models.MeshStatusPlain
		e.device.PrincipalSerial = nil
	}
}

func countChildren(entries []meshEntry) map[string]int {
	counts := make(map[string]int)

	for i := range entries {
		dev := &entries[i].device
		if entries[i].principal || !isChild(dev) {
			continue
		}

		if p := *dev.PrincipalSerial; p != dev.Serial {
			counts[p]++
		}
	}

	return counts
}

// isChild reports a resolved mesh or LAN satellite. Unresolved devices
// carry the mesh prefix but belong to no one.
func isChild(dev *models.NormalizedDevice) bool {
	return dev.IsSecondary() && dev.MeshStatus != models.MeshStatusUnresolved && dev.PrincipalSerial != nil
}

func setSecondary(dev *models.NormalizedDevice, status, principal string) {
	dev.MeshStatus = status
	dev.PrincipalSerial = &principal
}

func hasExternalIP(dev *models.NormalizedDevice) bool {
	return dev.ExternalIP != "" && dev.ExternalIP != notAvailable
}

func normalizeMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), ":", ""))
}

// placeholder synthesizes a satellite that exists only inside gw's record.
// It shares the gateway's liveness and LAN settings.
func placeholder(key, model string, gw *models.NormalizedDevice, prefix string) models.NormalizedDevice {
	if model == "" {
		model = notAvailable
	}

	dev := models.NormalizedDevice{
		Serial:          key,
		Manufacturer:    ManufacturerMercusys.String(),
		Model:           model,
		SoftwareVersion: notAvailable,
		HardwareVersion: notAvailable,
		ExternalIP:      notAvailable,
		ConnectionMAC:   notAvailable,
		WifiNetworks:    []models.WifiNetwork{},
		ConnectedHosts:  []models.ConnectedHost{},
		Status:          gw.Status,
		MultiAPEnabled:  gw.MultiAPEnabled,
		DNSServers:      gw.DNSServers,
		LANIP:           gw.LANIP,
		DHCPGateway:     gw.DHCPGateway,
		DHCPMin:         gw.DHCPMin,
		DHCPMax:         gw.DHCPMax,
		GponRXPower:     notAvailable,
		GponTXPower:     notAvailable,
	}

	if gw.LastContact != nil {
		ts := *gw.LastContact
		dev.LastContact = &ts
	}

	setSecondary(&dev, prefix+gw.Serial, gw.Serial)

	return dev
}
