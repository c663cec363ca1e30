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

import "errors"

var (
	ErrDeviceNotFound     = errors.New("device not found in snapshot")
	ErrNoDeviceID         = errors.New("device has no GenieACS record")
	ErrSourceRequired     = errors.New("device source is required")
	ErrStoreRequired      = errors.New("config store is required")
	ErrInvalidInterval    = errors.New("rebuild interval must be positive")
	ErrInvalidReadTimeout = errors.New("read timeout must not be negative")
	ErrRebuildPanicked    = errors.New("rebuild cycle panicked")
	ErrRawReadFailed      = errors.New("failed to read raw devices")
	ErrInvalidStaleAge    = errors.New("stale age must be positive")
)
