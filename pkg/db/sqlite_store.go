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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

const sqliteDSNOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// SQLiteStore implements Store on an embedded SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the embedded schema.
func NewSQLiteStore(ctx context.Context, path string, log logger.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrFailedOpenDB)
	}

	db, err := sql.Open("sqlite", path+sqliteDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	s := &SQLiteStore{db: db, logger: log, now: time.Now}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  INTEGER NOT NULL DEFAULT (strftime('%%s','now'))
	)`, schemaMigrationsTable)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	if err := applyMigrations(ctx, &sqlMigrator{db: db}, "sqlite/migrations", log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	log.Info().Str("path", path).Msg("opened SQLite store")

	return s, nil
}

// GetConfigBackup implements Store.
func (s *SQLiteStore) GetConfigBackup(ctx context.Context, serial string) (*models.ConfigBackup, error) {
	var (
		b       models.ConfigBackup
		wifi    JSONColumn[[]models.WifiNetwork]
		updated int64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT serial, connection_mac, pppoe_username, wifi_networks, last_updated
FROM cpe_config_backups WHERE serial = ?`, serial).
		Scan(&b.Serial, &b.ConnectionMAC, &b.PPPoEUsername, &wifi, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConfigBackupNotFound, serial)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: config backup %s: %w", ErrFailedToQuery, serial, err)
	}

	b.WifiNetworks = nonNilWifi(wifi.Val)
	b.LastUpdated = fromUnixNano(updated)

	return &b, nil
}

// UpsertConfigBackup implements Store.
func (s *SQLiteStore) UpsertConfigBackup(ctx context.Context, backup *models.ConfigBackup) error {
	if backup == nil {
		return ErrConfigBackupNil
	}

	if backup.Serial == "" {
		return ErrSerialRequired
	}

	updated := backup.LastUpdated
	if updated.IsZero() {
		updated = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO cpe_config_backups (serial, connection_mac, pppoe_username, wifi_networks, last_updated)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (serial) DO UPDATE SET
    connection_mac = excluded.connection_mac,
    pppoe_username = excluded.pppoe_username,
    wifi_networks  = excluded.wifi_networks,
    last_updated   = excluded.last_updated`,
		backup.Serial,
		backup.ConnectionMAC,
		backup.PPPoEUsername,
		NewJSONColumn(nonNilWifi(backup.WifiNetworks)),
		updated.UnixNano(),
	)

	return err
}

// DeleteConfigBackup implements Store.
func (s *SQLiteStore) DeleteConfigBackup(ctx context.Context, serial string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cpe_config_backups WHERE serial = ?`, serial)
	return err
}

// CreateResetEventIfAbsent implements Store.
func (s *SQLiteStore) CreateResetEventIfAbsent(ctx context.Context, event *models.ResetEvent) (bool, error) {
	if err := prepareResetEvent(event, s.now); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO cpe_reset_events (id, serial, connection_mac, reset_at, linked_config, reset_config, processed, created_at)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)
ON CONFLICT (serial) WHERE processed = 0 DO NOTHING`,
		event.ID,
		event.Serial,
		event.ConnectionMAC,
		event.ResetAt.UnixNano(),
		linkedConfigColumn(event.LinkedConfig),
		NewJSONColumn(event.ResetConfig),
		event.CreatedAt.UnixNano(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

const sqliteResetEventColumns = `id, serial, connection_mac, reset_at, linked_config, reset_config, processed, created_at`

// ListUnprocessedResetEvents implements Store.
func (s *SQLiteStore) ListUnprocessedResetEvents(ctx context.Context) ([]models.ResetEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteResetEventColumns+`
FROM cpe_reset_events WHERE processed = 0 ORDER BY reset_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: reset events: %w", ErrFailedToQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var events []models.ResetEvent

	for rows.Next() {
		ev, err := scanSQLiteResetEvent(rows)
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
func (s *SQLiteStore) MarkResetEventProcessed(ctx context.Context, id string) (*models.ResetEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrResetEventNotFound, id)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE cpe_reset_events SET processed = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrResetEventNotFound, id)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteResetEventColumns+` FROM cpe_reset_events WHERE id = ?`, id)

	return scanSQLiteResetEvent(row)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteResetEvent(row rowScanner) (*models.ResetEvent, error) {
	var (
		ev               models.ResetEvent
		linked           JSONColumn[models.ConfigBackup]
		reset            JSONColumn[models.ResetConfig]
		resetAt, created int64
	)

	if err := row.Scan(&ev.ID, &ev.Serial, &ev.ConnectionMAC, &resetAt, &linked, &reset, &ev.Processed, &created); err != nil {
		return nil, fmt.Errorf("%w: reset event: %w", ErrFailedToScan, err)
	}

	if linked.Valid {
		ev.LinkedConfig = &linked.Val
	}

	ev.ResetConfig = reset.Val
	ev.ResetAt = fromUnixNano(resetAt)
	ev.CreatedAt = fromUnixNano(created)

	return &ev, nil
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

type sqlMigrator struct {
	db *sql.DB
}

func (m *sqlMigrator) exec(ctx context.Context, stmt string, args ...interface{}) error {
	_, err := m.db.ExecContext(ctx, stmt, args...)
	return err
}

func (m *sqlMigrator) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`SELECT version FROM %s`, schemaMigrationsTable))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}

		applied[version] = struct{}{}
	}

	return applied, rows.Err()
}
