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

// Package db persists CPE configuration backups and reset events.
package db

import (
	"context"

	"github.com/carverauto/cpesync/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/carverauto/cpesync/pkg/db Store

// Store is the persistence surface used by the reconciliation engine.
type Store interface {
	// GetConfigBackup returns ErrConfigBackupNotFound when no backup exists.
	GetConfigBackup(ctx context.Context, serial string) (*models.ConfigBackup, error)
	UpsertConfigBackup(ctx context.Context, backup *models.ConfigBackup) error
	DeleteConfigBackup(ctx context.Context, serial string) error

	// CreateResetEventIfAbsent inserts event unless an unprocessed event
	// already exists for the same serial. created reports whether a row
	// was written. Empty ID and CreatedAt are filled in.
	CreateResetEventIfAbsent(ctx context.Context, event *models.ResetEvent) (created bool, err error)
	// ListUnprocessedResetEvents returns open events, newest reset first.
	ListUnprocessedResetEvents(ctx context.Context) ([]models.ResetEvent, error)
	// MarkResetEventProcessed returns ErrResetEventNotFound for unknown ids.
	MarkResetEventProcessed(ctx context.Context, id string) (*models.ResetEvent, error)

	Close() error
}
