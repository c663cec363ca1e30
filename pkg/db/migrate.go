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
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/cpesync/pkg/logger"
)

const schemaMigrationsTable = "cpesync_schema_migrations"

//go:embed cnpg/migrations/*.sql sqlite/migrations/*.sql
var migrationsFS embed.FS

// migrationExecer is the minimal surface shared by a pgx connection and a
// database/sql handle for applying migrations.
type migrationExecer interface {
	exec(ctx context.Context, stmt string, args ...interface{}) error
	appliedVersions(ctx context.Context) (map[string]struct{}, error)
}

// RunCNPGMigrations brings the Postgres schema up to date.
func RunCNPGMigrations(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) error {
	if pool == nil {
		return nil
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("cnpg migrations: acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, schemaMigrationsTable)); err != nil {
		return fmt.Errorf("cnpg migrations: create tracking table: %w", err)
	}

	return applyMigrations(ctx, &pgxMigrator{conn: conn}, "cnpg/migrations", log)
}

func applyMigrations(ctx context.Context, m migrationExecer, dir string, log logger.Logger) error {
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("migrations: list applied versions: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrations: read embedded %s: %w", dir, err)
	}

	filenames := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)

	for _, name := range filenames {
		version := migrationVersion(name)
		if _, ok := applied[version]; ok {
			continue
		}

		log.Info().Str("migration", name).Msg("applying schema migration")

		content, err := migrationsFS.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("migrations: read %s: %w", name, err)
		}

		for idx, stmt := range splitSQLStatements(string(content)) {
			if err := m.exec(ctx, stmt); err != nil {
				return fmt.Errorf("migrations: statement %d in %s failed: %w", idx+1, name, err)
			}
		}

		if err := m.exec(ctx, recordMigrationSQL(dir), version); err != nil {
			return fmt.Errorf("migrations: record %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("schema migration complete")
	}

	return nil
}

func recordMigrationSQL(dir string) string {
	if strings.HasPrefix(dir, "sqlite") {
		return fmt.Sprintf(`INSERT INTO %s (version) VALUES (?)`, schemaMigrationsTable)
	}

	return fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, schemaMigrationsTable)
}

type pgxMigrator struct {
	conn *pgxpool.Conn
}

func (p *pgxMigrator) exec(ctx context.Context, stmt string, args ...interface{}) error {
	_, err := p.conn.Exec(ctx, stmt, args...)
	return err
}

func (p *pgxMigrator) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := p.conn.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, schemaMigrationsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
