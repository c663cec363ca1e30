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

package main

import (
	"errors"

	"github.com/carverauto/cpesync/pkg/cpe"
	"github.com/carverauto/cpesync/pkg/genieacs"
	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
	"github.com/carverauto/cpesync/pkg/natsutil"
)

const defaultSQLitePath = "/var/lib/cpesync/cpesync.db"

var errNATSDomainWithoutURL = errors.New("nats_domain requires nats_url")

// Config is the cpesync service configuration file.
type Config struct {
	ListenAddr string                 `json:"listen_addr" yaml:"listen_addr"`
	GenieACS   genieacs.Config        `json:"genieacs" yaml:"genieacs"`
	Engine     cpe.Config             `json:"engine" yaml:"engine"`
	CNPG       *models.CNPGDatabase   `json:"cnpg,omitempty" yaml:"cnpg,omitempty"`
	SQLitePath string                 `json:"sqlite_path" yaml:"sqlite_path"`
	NATSURL    string                 `json:"nats_url" yaml:"nats_url"`
	NATSDomain string                 `json:"nats_domain" yaml:"nats_domain"`
	StreamName string                 `json:"stream_name" yaml:"stream_name"`
	Security   *models.SecurityConfig `json:"security,omitempty" yaml:"security,omitempty"`
	Logging    *logger.Config         `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if err := c.GenieACS.Validate(); err != nil {
		return err
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if c.CNPG == nil && c.SQLitePath == "" {
		c.SQLitePath = defaultSQLitePath
	}

	if c.NATSURL == "" && c.NATSDomain != "" {
		return errNATSDomainWithoutURL
	}

	if c.StreamName == "" {
		c.StreamName = natsutil.DefaultStreamName
	}

	return nil
}
