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

package genieacs

import "errors"

var (
	// ErrDeviceNotFound is returned when the NBI answers 404 for a device.
	ErrDeviceNotFound = errors.New("device not found in GenieACS")
	// ErrEndpointRequired is returned by Config.Validate when no NBI URL is set.
	ErrEndpointRequired = errors.New("genieacs endpoint is required")

	errUnexpectedStatusCode = errors.New("unexpected status code")
	errUnexpectedPayload    = errors.New("unexpected NBI payload")
	errInvalidEndpoint      = errors.New("invalid genieacs endpoint")
)
