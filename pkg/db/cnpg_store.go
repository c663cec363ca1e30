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

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

const (
	getConfigBackupSQL = `
SELECT serial, connection_mac, pppoe_username, wifi_networks, last_updated
FROM cpe_config_backups
WHERE serial = $1`

	upsertConfigBackupSQL = `
INSERT INTO cpe_config_backups (serial, connection_mac, pppoe_username, wifi_networks, last_updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (serial) DO UPDATE SET
    connection_mac = EXCLUDED.connection_mac,
    pppoe_username = EXCLUDED.pppoe_username,
    wifi_networks  = EXCLUDED.wifi_networks,
    last_updated   = EXCLUDED.last_updated`

	deleteConfigBackupSQL = `DELETE FROM cpe_config_backups WHERE serial = $1`

	insertResetEventSQL = `
INSERT INTO cpe_reset_events (id, serial, connection_mac, reset_at, linked_config, reset_config, processed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
ON CONFLICT (serial) WHERE NOT processed DO NOTHING`

	resetEventColumns = `id::text, serial, connection_mac, reset_at, linked_config, reset_config, processed, created_at`

	listOpenResetEventsSQL = `
SELECT ` + resetEventColumns + `
FROM cpe_reset_events
WHERE NOT processed
ORDER BY reset_at DESC`

	markResetEventProcessedSQL = `
UPDATE cpe_reset_events SET processed = TRUE
WHERE id = $1
RETURNING ` + resetEventColumns
)

// pgxQuerier is satisfied by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// CNPGStore implements Store on CloudNativePG.
type CNPGStore struct {
	pool   *pgxpool.Pool
	q      pgxQuerier
	logger logger.Logger
	now    func() time.Time
}

// NewCNPGStore connects, migrates, and returns a ready store.
func NewCNPGStore(ctx context.Context, cfg *models.CNPGDatabase, log logger.Logger) (*CNPGStore, error) {
	pool, err := NewCNPGPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	if pool == nil {
		return nil, fmt.Errorf("%w: cnpg config is nil", ErrFailedOpenDB)
	}

	if err := RunCNPGMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	s := newCNPGStore(pool, log)
	s.pool = pool

	return s, nil
}

func newCNPGStore(q pgxQuerier, log logger.Logger) *CNPGStore {
	return &CNPGStore{
		q:      q,
		logger: log,
		now:    time.Now,
	}
}

// GetConfigBackup implements Store.
func (s *CNPGStore) GetConfigBackup(ctx context.Context, serial string) (*models.ConfigBackup, error) {
	var (
		b    models.ConfigBackup
		wifi JSONColumn[[]models.WifiNetwork]
	)

	err := s.q.QueryRow(ctx, getConfigBackupSQL, serial).
		Scan(&b.Serial, &b.ConnectionMAC, &b.PPPoEUsername, &wifi, &b.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConfigBackupNotFound, serial)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: config backup %s: %w", ErrFailedToQuery, serial, err)
	}

	b.WifiNetworks = nonNilWifi(wifi.Val)
	b.LastUpdated = b.LastUpdated.UTC()

	return &b, nil
}

// UpsertConfigBackup implements Store.
func (s *CNPGStore) UpsertConfigBackup(ctx context.Context, backup *models.ConfigBackup) error {
	if backup == nil {
		return ErrConfigBackupNil
	}

	if backup.Serial == "" {
		return ErrSerialRequired
	}

	updated := backup.LastUpdated
	if updated.IsZero() {
		updated = s.now().UTC()
	}

	return s.withRetry(ctx, "upsert_config_backup", func(ctx context.Context) error {
		_, err := s.q.Exec(ctx, upsertConfigBackupSQL,
			backup.Serial,
			backup.ConnectionMAC,
			backup.PPPoEUsername,
			NewJSONColumn(nonNilWifi(backup.WifiNetworks)),
			updated,
		)

		return err
	})
}

// DeleteConfigBackup implements Store. Missing rows are not an error.
func (s *CNPGStore) DeleteConfigBackup(ctx context.Context, serial string) error {
	return s.withRetry(ctx, "delete_config_backup", func(ctx context.Context) error {
		_, err := s.q.Exec(ctx, deleteConfigBackupSQL, serial)
		return err
	})
}

// CreateResetEventIfAbsent implements Store.
func (s *CNPGStore) CreateResetEventIfAbsent(ctx context.Context, event *models.ResetEvent) (bool, error) {
	if err := prepareResetEvent(event, s.now); err != nil {
		return false, err
	}

	var created bool

	err := s.withRetry(ctx, "create_reset_event", func(ctx context.Context) error {
		tag, err := s.q.Exec(ctx, insertResetEventSQL,
			event.ID,
			event.Serial,
			event.ConnectionMAC,
			event.ResetAt,
			linkedConfigColumn(event.LinkedConfig),
			NewJSONColumn(event.ResetConfig),
			event.CreatedAt,
		)
		if err != nil {
			return err
		}

		created = tag.RowsAffected() == 1

		return nil
	})

	return created, err
}

// ListUnprocessedResetEvents implements Store.
func (s *CNPGStore) ListUnprocessedResetEvents(ctx context.Context) ([]models.ResetEvent, error) {
	rows, err := s.q.Query(ctx, listOpenResetEventsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: reset events: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var events []models.ResetEvent

	for rows.Next() {
		ev, err := scanResetEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reset events: %w", ErrFailedToQuery, err)
	}

	return events, nil
}

// MarkResetEventProcessed implements Store.
func (s *CNPGStore) MarkResetEventProcessed(ctx context.Context, id string) (*models.ResetEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrResetEventNotFound, id)
	}

	var ev *models.ResetEvent

	err := s.withRetry(ctx, "mark_reset_event_processed", func(ctx context.Context) error {
		var err error

		ev, err = scanResetEvent(s.q.QueryRow(ctx, markResetEventProcessedSQL, id))

		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrResetEventNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	return ev, nil
}

// Close releases the pool.
func (s *CNPGStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}

	return nil
}

func scanResetEvent(row pgx.Row) (*models.ResetEvent, error) {
	var (
		ev     models.ResetEvent
		linked JSONColumn[models.ConfigBackup]
		reset  JSONColumn[models.ResetConfig]
	)

	err := row.Scan(&ev.ID, &ev.Serial, &ev.ConnectionMAC, &ev.ResetAt, &linked, &reset, &ev.Processed, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: reset event: %w", ErrFailedToScan, err)
	}

	if linked.Valid {
		ev.LinkedConfig = &linked.Val
	}

	ev.ResetConfig = reset.Val
	ev.ResetAt = ev.ResetAt.UTC()
	ev.CreatedAt = ev.CreatedAt.UTC()

	return &ev, nil
}

// prepareResetEvent validates event and fills generated fields.
func prepareResetEvent(event *models.ResetEvent, now func() time.Time) error {
	if event == nil {
		return ErrResetEventNil
	}

	if event.Serial == "" {
		return ErrSerialRequired
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = now().UTC()
	}

	if event.ResetAt.IsZero() {
		event.ResetAt = event.CreatedAt
	}

	event.ResetConfig.WifiNetworks = nonNilWifi(event.ResetConfig.WifiNetworks)

	return nil
}

func linkedConfigColumn(b *models.ConfigBackup) JSONColumn[models.ConfigBackup] {
	if b == nil {
		return JSONColumn[models.ConfigBackup]{}
	}

	return NewJSONColumn(*b)
}

func nonNilWifi(w []models.WifiNetwork) []models.WifiNetwork {
	if w == nil {
		return []models.WifiNetwork{}
	}

	return w
}
