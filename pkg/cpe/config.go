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
	"strings"
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

const (
	defaultRebuildInterval = 60 * time.Second
	defaultReadTimeout     = 30 * time.Second
	defaultResetSentinel   = "reset"
	defaultRecentLimit     = 10
)

// DefaultSecondaryModels is the MERCUSYS product list recognised as mesh
// satellites when no override is configured.
func DefaultSecondaryModels() []string {
	return []string{"MR30G", "MR60X", "MR50G", "AC12G"}
}

// Config tunes the reconciliation engine.
type Config struct {
	RebuildInterval models.Duration `json:"rebuild_interval" yaml:"rebuild_interval"`
	// ReadTimeout bounds one full paged read of the device source. Zero
	// selects the default.
	ReadTimeout     models.Duration `json:"read_timeout" yaml:"read_timeout"`
	ResetSentinel   string          `json:"reset_sentinel" yaml:"reset_sentinel"`
	SecondaryModels []string        `json:"secondary_models" yaml:"secondary_models"`
}

// Validate fills defaults and rejects nonsensical values.
func (c *Config) Validate() error {
	if c.RebuildInterval == 0 {
		c.RebuildInterval = models.Duration(defaultRebuildInterval)
	}

	if c.RebuildInterval < 0 {
		return ErrInvalidInterval
	}

	if c.ReadTimeout < 0 {
		return ErrInvalidReadTimeout
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = models.Duration(defaultReadTimeout)
	}

	c.ResetSentinel = strings.TrimSpace(c.ResetSentinel)
	if c.ResetSentinel == "" {
		c.ResetSentinel = defaultResetSentinel
	}

	normalized := make([]string, 0, len(c.SecondaryModels))

	for _, m := range c.SecondaryModels {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			normalized = append(normalized, m)
		}
	}

	if len(normalized) == 0 {
		normalized = DefaultSecondaryModels()
	}

	c.SecondaryModels = normalized

	return nil
}
