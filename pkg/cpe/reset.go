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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/cpesync/pkg/db"
	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

// ResetOutcome summarizes one detector pass.
type ResetOutcome struct {
	BackupsWritten int
	Failures       int
	Created        []*models.ResetEvent
}

// ResetDetector keeps the rolling configuration backup per serial and
// records a reset event when a known unit comes back with the sentinel
// PPPoE username.
type ResetDetector struct {
	store    db.Store
	sentinel string
	clock    Clock
	logger   logger.Logger
}

// NewResetDetector builds a detector. The sentinel comparison ignores case.
func NewResetDetector(store db.Store, sentinel string, clock Clock, log logger.Logger) *ResetDetector {
	return &ResetDetector{
		store:    store,
		sentinel: sentinel,
		clock:    clock,
		logger:   log,
	}
}

// Process handles every device in order. A failure on one device is
// logged and does not stop the others.
func (d *ResetDetector) Process(ctx context.Context, devices []models.NormalizedDevice) ResetOutcome {
	var out ResetOutcome

	for i := range devices {
		if ctx.Err() != nil {
			break
		}

		dev := &devices[i]

		backedUp, event, err := d.processDevice(ctx, dev)
		if err != nil {
			out.Failures++

			d.logger.Warn().
				Err(err).
				Str("serial", dev.Serial).
				Msg("Skipping backup/reset persistence for device")

			continue
		}

		if backedUp {
			out.BackupsWritten++
		}

		if event != nil {
			out.Created = append(out.Created, event)
		}
	}

	return out
}

// IsReset reports whether username is the reset sentinel.
func (d *ResetDetector) IsReset(username string) bool {
	return strings.EqualFold(username, d.sentinel)
}

func (d *ResetDetector) processDevice(ctx context.Context, dev *models.NormalizedDevice) (bool, *models.ResetEvent, error) {
	if dev.PPPoEUsername == "" {
		return false, nil, nil
	}

	if !d.IsReset(dev.PPPoEUsername) {
		backup := &models.ConfigBackup{
			Serial:        dev.Serial,
			ConnectionMAC: dev.ConnectionMAC,
			PPPoEUsername: dev.PPPoEUsername,
			WifiNetworks:  append([]models.WifiNetwork{}, dev.WifiNetworks...),
			LastUpdated:   d.clock.Now(),
		}

		if err := d.store.UpsertConfigBackup(ctx, backup); err != nil {
			return false, nil, fmt.Errorf("upsert backup: %w", err)
		}

		return true, nil, nil
	}

	backup, err := d.store.GetConfigBackup(ctx, dev.Serial)
	if errors.Is(err, db.ErrConfigBackupNotFound) {
		return false, nil, nil
	}

	if err != nil {
		return false, nil, fmt.Errorf("load backup: %w", err)
	}

	// A different unit reporting the same serial is not a reset.
	if backup.ConnectionMAC != dev.ConnectionMAC {
		return false, nil, nil
	}

	resetAt := d.clock.Now()
	if dev.LastContact != nil {
		resetAt = *dev.LastContact
	}

	event := &models.ResetEvent{
		Serial:        dev.Serial,
		ConnectionMAC: dev.ConnectionMAC,
		ResetAt:       resetAt,
		LinkedConfig:  backup,
		ResetConfig: models.ResetConfig{
			PPPoEUsername: dev.PPPoEUsername,
			WifiNetworks:  append([]models.WifiNetwork{}, dev.WifiNetworks...),
		},
	}

	created, err := d.store.CreateResetEventIfAbsent(ctx, event)
	if err != nil {
		return false, nil, fmt.Errorf("create reset event: %w", err)
	}

	if !created {
		return false, nil, nil
	}

	d.logger.Info().
		Str("serial", dev.Serial).
		Str("event_id", event.ID).
		Time("reset_at", event.ResetAt).
		Msg("Detected CPE configuration reset")

	return false, event, nil
}
