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
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "cpesync.db"), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSQLiteStore_ConfigBackupRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLiteStore(t)

	_, err := s.GetConfigBackup(ctx, "FHTT0001")
	require.ErrorIs(t, err, ErrConfigBackupNotFound)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)
	backup := &models.ConfigBackup{
		Serial:        "FHTT0001",
		ConnectionMAC: "AA:BB:CC:DD:EE:FF",
		PPPoEUsername: "alice",
		WifiNetworks:  []models.WifiNetwork{{Index: "1", SSID: "home", Passphrase: "pw", Enabled: true}},
		LastUpdated:   ts,
	}
	require.NoError(t, s.UpsertConfigBackup(ctx, backup))

	got, err := s.GetConfigBackup(ctx, "FHTT0001")
	require.NoError(t, err)
	assert.Equal(t, backup, got)

	backup.PPPoEUsername = "bob"
	backup.WifiNetworks = nil
	require.NoError(t, s.UpsertConfigBackup(ctx, backup))

	got, err = s.GetConfigBackup(ctx, "FHTT0001")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.PPPoEUsername)
	assert.Empty(t, got.WifiNetworks)
	assert.NotNil(t, got.WifiNetworks)

	require.NoError(t, s.DeleteConfigBackup(ctx, "FHTT0001"))
	require.NoError(t, s.DeleteConfigBackup(ctx, "FHTT0001"))

	_, err = s.GetConfigBackup(ctx, "FHTT0001")
	require.ErrorIs(t, err, ErrConfigBackupNotFound)
}

func TestSQLiteStore_UpsertValidation(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)

	require.ErrorIs(t, s.UpsertConfigBackup(context.Background(), nil), ErrConfigBackupNil)
	require.ErrorIs(t, s.UpsertConfigBackup(context.Background(), &models.ConfigBackup{}), ErrSerialRequired)
}

func TestSQLiteStore_ResetEventIdempotence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLiteStore(t)

	linked := &models.ConfigBackup{Serial: "FHTT0001", ConnectionMAC: "AA", PPPoEUsername: "alice"}
	first := &models.ResetEvent{
		Serial:        "FHTT0001",
		ConnectionMAC: "AA",
		ResetAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		LinkedConfig:  linked,
		ResetConfig:   models.ResetConfig{PPPoEUsername: "reset"},
	}

	created, err := s.CreateResetEventIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err, "id should be generated")

	for i := 0; i < 3; i++ {
		created, err = s.CreateResetEventIfAbsent(ctx, &models.ResetEvent{Serial: "FHTT0001", ConnectionMAC: "AA"})
		require.NoError(t, err)
		assert.False(t, created)
	}

	events, err := s.ListUnprocessedResetEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first.ID, events[0].ID)
	require.NotNil(t, events[0].LinkedConfig)
	assert.Equal(t, "alice", events[0].LinkedConfig.PPPoEUsername)
	assert.Equal(t, "reset", events[0].ResetConfig.PPPoEUsername)
	assert.Equal(t, first.ResetAt, events[0].ResetAt)

	processed, err := s.MarkResetEventProcessed(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, processed.Processed)

	// A closed event no longer blocks a new one for the same serial.
	created, err = s.CreateResetEventIfAbsent(ctx, &models.ResetEvent{Serial: "FHTT0001"})
	require.NoError(t, err)
	assert.True(t, created)

	events, err = s.ListUnprocessedResetEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, first.ID, events[0].ID)
	assert.Nil(t, events[0].LinkedConfig)
}

func TestSQLiteStore_ListOrdersByResetAtDescending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLiteStore(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, serial := range []string{"A", "B", "C"} {
		_, err := s.CreateResetEventIfAbsent(ctx, &models.ResetEvent{
			Serial:  serial,
			ResetAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	events, err := s.ListUnprocessedResetEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{events[0].Serial, events[1].Serial, events[2].Serial})
}

func TestSQLiteStore_MarkUnknownEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSQLiteStore(t)

	_, err := s.MarkResetEventProcessed(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrResetEventNotFound)

	_, err = s.MarkResetEventProcessed(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrResetEventNotFound)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cpesync.db")

	s, err := NewSQLiteStore(ctx, path, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, s.UpsertConfigBackup(ctx, &models.ConfigBackup{Serial: "X"}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.GetConfigBackup(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, "X", got.Serial)
}
