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

import "errors"

var (
	ErrConfigBackupNotFound = errors.New("config backup not found")
	ErrResetEventNotFound   = errors.New("reset event not found")

	ErrSerialRequired  = errors.New("serial is required")
	ErrResetEventNil   = errors.New("reset event is nil")
	ErrConfigBackupNil = errors.New("config backup is nil")

	ErrFailedOpenDB  = errors.New("failed to open database")
	ErrFailedToInit  = errors.New("failed to initialize schema")
	ErrFailedToQuery = errors.New("failed to query")
	ErrFailedToScan  = errors.New("failed to scan")

	// CNPG connection validation.

	ErrCNPGHostRequired   = errors.New("cnpg host is required")
	ErrCNPGTLSDisabled    = errors.New("cnpg tls is configured but sslmode is disable")
	ErrCNPGTLSIncomplete  = errors.New("cnpg tls: cert_file, key_file, and ca_file are required")
	ErrCNPGInvalidSSLMode = errors.New("cnpg: unsupported sslmode")
	errCNPGAppendCA       = errors.New("cnpg tls: unable to append CA certificate")
)
