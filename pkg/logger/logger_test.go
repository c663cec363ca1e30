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

package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	err := Init(context.Background(), &Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)

	assert.Equal(t, zerolog.WarnLevel, GetLogger().GetLevel())

	err = Init(context.Background(), &Config{Level: "debug", Debug: true})
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(context.Background(), &Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())

	SetDebug(false)
	assert.Equal(t, zerolog.InfoLevel, GetLogger().GetLevel())
}

func TestWithComponent(t *testing.T) {
	componentLogger := WithComponent("engine")
	assert.NotEqual(t, zerolog.Disabled, componentLogger.GetLevel())
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DEBUG", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS", "x-api-key=abc, tenant = acme")
	t.Setenv("OTEL_SERVICE_NAME", "")

	config := DefaultConfig()

	assert.Equal(t, "error", config.Level)
	assert.True(t, config.Debug)
	assert.Equal(t, "stdout", config.Output)
	assert.Equal(t, map[string]string{"x-api-key": "abc", "tenant": "acme"}, config.OTel.Headers)
	assert.Equal(t, "cpesync", config.OTel.ServiceName)
	assert.False(t, config.OTel.Enabled)
}

func TestNewTestLogger(t *testing.T) {
	l := NewTestLogger()
	l.Info().Str("serial", "FHTT0001").Msg("discarded")
	l.SetLevel(zerolog.DebugLevel)

	assert.NotNil(t, l.WithComponent("test"))
}
