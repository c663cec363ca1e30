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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/cpesync/pkg/models"
)

func TestJSONColumn_ValueAndScan(t *testing.T) {
	col := NewJSONColumn([]models.WifiNetwork{{Index: "1", SSID: "home", Enabled: true}})

	val, err := col.Value()
	require.NoError(t, err)

	s, ok := val.(string)
	require.True(t, ok, "Value should return a string")
	assert.JSONEq(t, `[{"index":"1","ssid":"home","passphrase":"","enabled":true}]`, s)

	var back JSONColumn[[]models.WifiNetwork]
	require.NoError(t, back.Scan([]byte(s)))
	assert.True(t, back.Valid)
	assert.Equal(t, col.Val, back.Val)
}

func TestJSONColumn_Null(t *testing.T) {
	var col JSONColumn[models.ConfigBackup]

	val, err := col.Value()
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, col.Scan(nil))
	assert.False(t, col.Valid)

	require.NoError(t, col.Scan("null"))
	assert.False(t, col.Valid)
}

func TestJSONColumn_ScanRejectsUnknownSource(t *testing.T) {
	var col JSONColumn[models.ResetConfig]

	err := col.Scan(42)
	require.ErrorIs(t, err, errUnsupportedJSONSource)
}
