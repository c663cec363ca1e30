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

// Package cpe rebuilds the normalized CPE fleet view from GenieACS on a
// schedule and serves it from an immutable snapshot.
package cpe

import (
	"context"

	"github.com/carverauto/cpesync/pkg/models"
)

//go:generate mockgen -destination=mock_cpe.go -package=cpe github.com/carverauto/cpesync/pkg/cpe DeviceSource,EventPublisher

// DeviceSource streams raw device documents and deletes them on request.
type DeviceSource interface {
	// ListDevices calls fn for every raw device; a non-nil error from fn
	// stops the iteration and is returned.
	ListDevices(ctx context.Context, fn func(models.RawDevice) error) error
	// DeleteDevice returns genieacs.ErrDeviceNotFound when the device is
	// already gone.
	DeleteDevice(ctx context.Context, deviceID string) error
}

// EventPublisher fans engine events out to other services.
type EventPublisher interface {
	PublishResetDetected(ctx context.Context, event *models.ResetEvent) error
	PublishSnapshot(ctx context.Context, summary models.SnapshotSummary) error
}
