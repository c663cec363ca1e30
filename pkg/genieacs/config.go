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

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

const (
	defaultPageSize = 500
	defaultTimeout  = 30 * time.Second
)

// Config describes how to reach the GenieACS northbound interface.
type Config struct {
	Endpoint           string          `json:"endpoint" yaml:"endpoint"`
	Username           string          `json:"username,omitempty" yaml:"username,omitempty"`
	Password           string          `json:"password,omitempty" yaml:"password,omitempty"`
	PageSize           int             `json:"page_size,omitempty" yaml:"page_size,omitempty"`
	Timeout            models.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	InsecureSkipVerify bool            `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
}

// Validate fills defaults and checks the endpoint.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrEndpointRequired
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidEndpoint, c.Endpoint)
	}

	c.Endpoint = strings.TrimRight(c.Endpoint, "/")

	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}

	if c.Timeout <= 0 {
		c.Timeout = models.Duration(defaultTimeout)
	}

	return nil
}
