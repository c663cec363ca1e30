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
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

const (
	// OnlineThreshold is the longest silence still reported as online.
	OnlineThreshold = 240 * time.Second
	// AlertThreshold is the longest silence still reported as alert.
	AlertThreshold = 360 * time.Second
)

// ClassifyStatus buckets the time since the last inform. Each bucket is
// half-open, so exactly 240s is alert rather than online.
func ClassifyStatus(lastContact *time.Time, now time.Time) models.DeviceStatus {
	if lastContact == nil {
		return models.DeviceStatusOffline
	}

	elapsed := now.Sub(*lastContact)

	switch {
	case elapsed < OnlineThreshold:
		return models.DeviceStatusOnline
	case elapsed < AlertThreshold:
		return models.DeviceStatusAlert
	default:
		return models.DeviceStatusOffline
	}
}
