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
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carverauto/cpesync/pkg/db"
	"github.com/carverauto/cpesync/pkg/genieacs"
	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

const rebuildKey = "rebuild"

// Engine periodically rebuilds the normalized CPE fleet from a
// DeviceSource and serves reads from the latest snapshot.
type Engine struct {
	config    Config
	source    DeviceSource
	store     db.Store
	publisher EventPublisher
	clock     Clock
	logger    logger.Logger

	extractor *Extractor
	resolver  *MeshResolver
	detector  *ResetDetector
	snapshots *SnapshotStore

	rebuilds singleflight.Group
	cycle    atomic.Uint64
	healthy  atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithEventPublisher enables reset and snapshot events.
func WithEventPublisher(p EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// NewEngine validates cfg and wires the pipeline.
func NewEngine(cfg Config, source DeviceSource, store db.Store, log logger.Logger, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	if store == nil {
		return nil, ErrStoreRequired
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:    cfg,
		source:    source,
		store:     store,
		clock:     realClock{},
		logger:    log,
		extractor: NewExtractor(),
		resolver:  NewMeshResolver(cfg.SecondaryModels, log),
		snapshots: NewSnapshotStore(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.detector = NewResetDetector(store, cfg.ResetSentinel, e.clock, log)

	return e, nil
}

// Start runs a rebuild immediately and then on every interval until ctx
// is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	interval := time.Duration(e.config.RebuildInterval)

	e.logger.Info().Dur("interval", interval).Msg("Starting CPE reconciliation engine")

	ticker := e.clock.Ticker(interval)
	defer ticker.Stop()

	e.runScheduled(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			e.runScheduled(ctx)
		}
	}
}

// Stop ends the scheduler loop. Reads keep serving the last snapshot.
func (e *Engine) Stop(_ context.Context) error {
	e.logger.Info().Msg("Stopping CPE reconciliation engine")

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}

	return nil
}

// Healthy reports whether at least one cycle has published a snapshot.
func (e *Engine) Healthy() bool {
	return e.healthy.Load()
}

func (e *Engine) runScheduled(ctx context.Context) {
	if _, err := e.TriggerRebuild(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Error().Err(err).Msg("Rebuild cycle failed, keeping previous snapshot")
	}
}

// TriggerRebuild runs one cycle. A call made while a cycle is running
// waits for that cycle and shares its result.
func (e *Engine) TriggerRebuild(ctx context.Context) (*Snapshot, error) {
	v, err, shared := e.rebuilds.Do(rebuildKey, func() (interface{}, error) {
		return e.rebuild(ctx)
	})
	if shared {
		e.logger.Debug().Msg("Joined in-flight rebuild cycle")
	}

	if err != nil {
		return nil, err
	}

	return v.(*Snapshot), nil
}

func (e *Engine) rebuild(ctx context.Context) (snap *Snapshot, err error) {
	start := e.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("Recovered from panic in rebuild cycle")

			snap = nil
			err = fmt.Errorf("%w: %v", ErrRebuildPanicked, r)
		}

		result := cycleResultSuccess
		if err != nil {
			result = cycleResultFailure
		}

		recordCycle(ctx, result, e.clock.Now().Sub(start))
	}()

	drafts, err := e.readDrafts(ctx, start)
	if err != nil {
		return nil, err
	}

	devices := e.resolver.Resolve(drafts)

	outcome := e.detector.Process(ctx, devices)
	recordResetOutcome(ctx, &outcome)

	snap = &Snapshot{
		Devices: devices,
		BuiltAt: start,
		Cycle:   e.cycle.Add(1),
	}

	e.snapshots.Publish(snap)
	e.healthy.Store(true)

	summary := snap.Summary(e.clock.Now().Sub(start))
	recordSnapshot(&summary)

	e.logger.Info().
		Uint64("cycle", snap.Cycle).
		Int("raw_devices", len(drafts)).
		Int("devices", summary.Total).
		Int("backups_written", outcome.BackupsWritten).
		Int("resets_detected", len(outcome.Created)).
		Int("persistence_failures", outcome.Failures).
		Dur("duration", time.Duration(summary.Duration)).
		Msg("Published CPE snapshot")

	e.publishEvents(ctx, outcome.Created, summary)

	return snap, nil
}

// readDrafts streams and extracts every raw record under the read timeout.
func (e *Engine) readDrafts(ctx context.Context, now time.Time) ([]deviceDraft, error) {
	readCtx, cancel := context.WithTimeout(ctx, time.Duration(e.config.ReadTimeout))
	defer cancel()

	var drafts []deviceDraft

	err := e.source.ListDevices(readCtx, func(raw models.RawDevice) error {
		drafts = append(drafts, e.extractor.draft(raw, now))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRawReadFailed, err)
	}

	return drafts, nil
}

func (e *Engine) publishEvents(ctx context.Context, created []*models.ResetEvent, summary models.SnapshotSummary) {
	if e.publisher == nil {
		return
	}

	for _, ev := range created {
		if err := e.publisher.PublishResetDetected(ctx, ev); err != nil {
			e.logger.Warn().Err(err).Str("serial", ev.Serial).Msg("Failed to publish reset event")
		}
	}

	if err := e.publisher.PublishSnapshot(ctx, summary); err != nil {
		e.logger.Warn().Err(err).Uint64("cycle", summary.Cycle).Msg("Failed to publish snapshot event")
	}
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshots.Load()
}

// GetAllDevices returns a copy of every device in the current snapshot.
func (e *Engine) GetAllDevices() []models.NormalizedDevice {
	snap := e.snapshots.Load()

	out := make([]models.NormalizedDevice, len(snap.Devices))
	for i := range snap.Devices {
		out[i] = snap.Devices[i].Clone()
	}

	return out
}

// GetBySerial returns a copy of the first device with serial.
func (e *Engine) GetBySerial(serial string) (models.NormalizedDevice, bool) {
	snap := e.snapshots.Load()

	for i := range snap.Devices {
		if snap.Devices[i].Serial == serial {
			return snap.Devices[i].Clone(), true
		}
	}

	return models.NormalizedDevice{}, false
}

// GetRecentPrincipals returns up to limit non-satellite devices that
// have informed, most recent first. limit <= 0 selects 10.
func (e *Engine) GetRecentPrincipals(limit int) []models.NormalizedDevice {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	snap := e.snapshots.Load()

	recent := make([]*models.NormalizedDevice, 0, len(snap.Devices))

	for i := range snap.Devices {
		d := &snap.Devices[i]
		if d.LastContact != nil && !d.IsSecondary() {
			recent = append(recent, d)
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].LastContact.After(*recent[j].LastContact)
	})

	if len(recent) > limit {
		recent = recent[:limit]
	}

	out := make([]models.NormalizedDevice, len(recent))
	for i, d := range recent {
		out[i] = d.Clone()
	}

	return out
}

// GetStaleDevices returns devices that informed at least once but not
// within olderThan.
func (e *Engine) GetStaleDevices(olderThan time.Duration) []models.NormalizedDevice {
	cutoff := e.clock.Now().Add(-olderThan)
	snap := e.snapshots.Load()

	var out []models.NormalizedDevice

	for i := range snap.Devices {
		d := &snap.Devices[i]
		if d.LastContact != nil && d.LastContact.Before(cutoff) {
			out = append(out, d.Clone())
		}
	}

	return out
}

// RemoveDevice drops serial from the current snapshot until the next
// rebuild.
func (e *Engine) RemoveDevice(serial string) bool {
	return e.snapshots.Remove(serial)
}

// DecommissionDevice deletes a device from GenieACS, forgets its backup
// and removes it from the snapshot.
func (e *Engine) DecommissionDevice(ctx context.Context, serial string) error {
	dev, ok := e.GetBySerial(serial)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}

	if dev.Synthesized() {
		return fmt.Errorf("%w: %s", ErrNoDeviceID, serial)
	}

	err := e.source.DeleteDevice(ctx, *dev.DeviceID)

	switch {
	case errors.Is(err, genieacs.ErrDeviceNotFound):
		e.logger.Info().Str("serial", serial).Str("device_id", *dev.DeviceID).
			Msg("Device already absent from GenieACS")
	case err != nil:
		return fmt.Errorf("delete %s from GenieACS: %w", *dev.DeviceID, err)
	}

	if err := e.store.DeleteConfigBackup(ctx, serial); err != nil {
		e.logger.Warn().Err(err).Str("serial", serial).Msg("Failed to delete config backup")
	}

	e.RemoveDevice(serial)

	e.logger.Info().Str("serial", serial).Str("device_id", *dev.DeviceID).Msg("Decommissioned CPE")

	return nil
}

// DecommissionResult is the per-device outcome of DecommissionStale.
type DecommissionResult struct {
	Serial string `json:"serial"`
	Err    error  `json:"-"`
}

// DecommissionStale decommissions every device whose last inform is older
// than olderThan. A failure on one device does not stop the others.
func (e *Engine) DecommissionStale(ctx context.Context, olderThan time.Duration) ([]DecommissionResult, error) {
	if olderThan <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStaleAge, olderThan)
	}

	stale := e.GetStaleDevices(olderThan)
	results := make([]DecommissionResult, 0, len(stale))

	for i := range stale {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		serial := stale[i].Serial
		results = append(results, DecommissionResult{
			Serial: serial,
			Err:    e.DecommissionDevice(ctx, serial),
		})
	}

	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	e.logger.Info().
		Int("stale", len(stale)).
		Int("failed", failed).
		Dur("older_than", olderThan).
		Msg("Decommissioned stale CPEs")

	return results, nil
}

// ListResetEvents returns unprocessed reset events, newest first.
func (e *Engine) ListResetEvents(ctx context.Context) ([]models.ResetEvent, error) {
	return e.store.ListUnprocessedResetEvents(ctx)
}

// ProcessResetEvent marks the event handled so a later reset of the same
// unit can be recorded.
func (e *Engine) ProcessResetEvent(ctx context.Context, id string) (*models.ResetEvent, error) {
	return e.store.MarkResetEventProcessed(ctx, id)
}
