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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/carverauto/cpesync/pkg/logger"
)

var errUnsupportedFormat = errors.New("unsupported config file extension")

// FileConfigLoader loads configuration from a local file. The format is
// chosen by extension: .json, .jsonc (comments and trailing commas allowed)
// or .yaml/.yml.
type FileConfigLoader struct {
	logger logger.Logger
}

func NewFileConfigLoader(log logger.Logger) *FileConfigLoader {
	return &FileConfigLoader{logger: log}
}

// Load implements ConfigLoader.
func (f *FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json", "":
		err = decodeJSON(data, dst)
	case ".jsonc":
		err = decodeJSON(jsonc.ToJSON(data), dst)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, dst)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFormat, ext)
	}

	if err != nil {
		return fmt.Errorf("failed to decode '%s': %w", path, err)
	}

	if f.logger != nil {
		f.logger.Debug().Str("path", path).Str("format", ext).Msg("Loaded configuration file")
	}

	return nil
}

func decodeJSON(data []byte, dst interface{}) error {
	return json.Unmarshal(data, dst)
}
