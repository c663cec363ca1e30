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
)

func TestSplitSQLStatements(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain statements",
			content: "CREATE TABLE t (id TEXT);\nCREATE INDEX i ON t (id);\n",
			want:    []string{"CREATE TABLE t (id TEXT)", "CREATE INDEX i ON t (id)"},
		},
		{
			name:    "semicolon in single quotes",
			content: "INSERT INTO cpe_config_backups(serial) VALUES('FHTT;0001');SELECT 1",
			want:    []string{"INSERT INTO cpe_config_backups(serial) VALUES('FHTT;0001')", "SELECT 1"},
		},
		{
			name:    "semicolon in quoted identifier",
			content: `SELECT "a;b" FROM t;`,
			want:    []string{`SELECT "a;b" FROM t`},
		},
		{
			name:    "comments dropped",
			content: "/* header;\n block */\nCREATE TABLE t (id TEXT); -- trailing; comment\nSELECT 2;",
			want:    []string{"CREATE TABLE t (id TEXT)", "SELECT 2"},
		},
		{
			name:    "positional parameter is not a tag",
			content: "UPDATE t SET a = $1 WHERE b = $2;",
			want:    []string{"UPDATE t SET a = $1 WHERE b = $2"},
		},
		{
			name:    "unterminated comment",
			content: "SELECT 1; /* open",
			want:    []string{"SELECT 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSQLStatements(tt.content))
		})
	}
}

func TestSplitSQLStatementsDollarQuotedBody(t *testing.T) {
	content := `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

DO $tag$
BEGIN
    PERFORM set_config('application_name', 'cpesync;engine', false);
END $tag$;

SELECT 1;
`

	statements := splitSQLStatements(content)
	require.Len(t, statements, 3)

	assert.Contains(t, statements[1], "'cpesync;engine'")
	assert.True(t, len(statements[1]) > 2 && statements[1][:2] == "DO")
	assert.Equal(t, "SELECT 1", statements[2])
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, "00001", migrationVersion("00001_cpe_state.up.sql"))
	assert.Equal(t, "noversion.sql", migrationVersion("noversion.sql"))
}
