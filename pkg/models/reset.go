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

package models

import "time"

// ConfigBackup is the last known-good configuration of a CPE, keyed by serial.
type ConfigBackup struct {
	Serial        string        `json:"serial"`
	ConnectionMAC string        `json:"connectionMac"`
	PPPoEUsername string        `json:"pppoeUsername"`
	WifiNetworks  []WifiNetwork `json:"wifiNetworks"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// ResetConfig captures what the device reported right after a reset.
type ResetConfig struct {
	PPPoEUsername string        `json:"pppoeUsername"`
	WifiNetworks  []WifiNetwork `json:"wifiNetworks"`
}

// ResetEvent records a detected factory reset. At most one unprocessed
// event exists per serial.
type ResetEvent struct {
	ID            string        `json:"id"`
	Serial        string        `json:"serial"`
	ConnectionMAC string        `json:"connectionMac"`
	ResetAt       time.Time     `json:"resetAt"`
	LinkedConfig  *ConfigBackup `json:"linkedConfig"`
	ResetConfig   ResetConfig   `json:"resetConfig"`
	Processed     bool          `json:"processed"`
	CreatedAt     time.Time     `json:"createdAt"`
}
