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
	"sync/atomic"
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

// Snapshot is one immutable rebuild result. Devices must not be modified
// after publication.
type Snapshot struct {
	Devices []models.NormalizedDevice
	BuiltAt time.Time
	Cycle   uint64
}

// Summary counts devices by status and mesh class.
func (s *Snapshot) Summary(took time.Duration) models.SnapshotSummary {
	sum := models.SnapshotSummary{
		Cycle:    s.Cycle,
		BuiltAt:  s.BuiltAt,
		Total:    len(s.Devices),
		ByStatus: make(map[string]int),
		ByMesh:   make(map[string]int),
		Duration: models.Duration(took),
	}

	for i := range s.Devices {
		sum.ByStatus[string(s.Devices[i].Status)]++
		sum.ByMesh[s.Devices[i].MeshClass()]++
	}

	return sum
}

// SnapshotStore holds the currently published snapshot.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]
}

// NewSnapshotStore starts with an empty snapshot so readers never see nil.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(&Snapshot{Devices: []models.NormalizedDevice{}})

	return s
}

// Load returns the current snapshot.
func (s *SnapshotStore) Load() *Snapshot {
	return s.current.Load()
}

// Publish replaces the current snapshot.
func (s *SnapshotStore) Publish(snap *Snapshot) {
	s.current.Store(snap)
}

// Remove publishes a copy of the current snapshot without serial. It
// retries if a rebuild publishes concurrently.
func (s *SnapshotStore) Remove(serial string) bool {
	for {
		old := s.current.Load()

		devices := make([]models.NormalizedDevice, 0, len(old.Devices))
		for i := range old.Devices {
			if old.Devices[i].Serial != serial {
				devices = append(devices, old.Devices[i])
			}
		}

		if len(devices) == len(old.Devices) {
			return false
		}

		next := &Snapshot{Devices: devices, BuiltAt: old.BuiltAt, Cycle: old.Cycle}
		if s.current.CompareAndSwap(old, next) {
			return true
		}
	}
}
