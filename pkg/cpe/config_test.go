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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cpesync/pkg/models"
)

func TestConfigValidateDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())

	assert.Equal(t, models.Duration(60*time.Second), cfg.RebuildInterval)
	assert.Equal(t, models.Duration(30*time.Second), cfg.ReadTimeout)
	assert.Equal(t, "reset", cfg.ResetSentinel)
	assert.Equal(t, []string{"MR30G", "MR60X", "MR50G", "AC12G"}, cfg.SecondaryModels)
}

func TestConfigValidateNormalizes(t *testing.T) {
	cfg := Config{
		RebuildInterval: models.Duration(5 * time.Minute),
		ResetSentinel:   "  factory ",
		SecondaryModels: []string{" mr80x", "", "Deco"},
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, models.Duration(5*time.Minute), cfg.RebuildInterval)
	assert.Equal(t, "factory", cfg.ResetSentinel)
	assert.Equal(t, []string{"MR80X", "DECO"}, cfg.SecondaryModels)
}

func TestConfigValidateRejects(t *testing.T) {
	cfg := Config{RebuildInterval: models.Duration(-time.Second)}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidInterval)

	cfg = Config{ReadTimeout: models.Duration(-time.Second)}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidReadTimeout)
}
