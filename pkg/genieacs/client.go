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

// Package genieacs is a small client for the GenieACS northbound interface.
package genieacs

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carverauto/cpesync/pkg/logger"
	"github.com/carverauto/cpesync/pkg/models"
)

// Client reads device documents from GenieACS and deletes decommissioned ones.
type Client struct {
	config     Config
	httpClient HTTPClient
	projection []string
	logger     logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport. The circuit breaker
// still wraps it.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProjection overrides DefaultProjection.
func WithProjection(paths []string) Option {
	return func(c *Client) {
		c.projection = paths
	}
}

// NewClient validates cfg and builds a client guarded by a circuit breaker.
func NewClient(cfg Config, log logger.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:     cfg,
		projection: DefaultProjection,
		logger:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		//nolint:gosec // operators opt in for lab ACS instances with self-signed certs
		c.httpClient = &http.Client{
			Timeout: time.Duration(cfg.Timeout),
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: cfg.InsecureSkipVerify,
				},
			},
		}
	}

	cb := NewCircuitBreaker("genieacs-nbi", DefaultCircuitBreakerConfig(), log)
	c.httpClient = NewCircuitBreakerHTTPClient(c.httpClient, cb)

	return c, nil
}

// ListDevices streams every device document to fn, one page at a time.
// Iteration stops at the first error returned by fn.
func (c *Client) ListDevices(ctx context.Context, fn func(models.RawDevice) error) error {
	skip := 0

	for {
		n, err := c.fetchPage(ctx, skip, fn)
		if err != nil {
			return err
		}

		c.logger.Debug().
			Int("skip", skip).
			Int("count", n).
			Msg("Fetched device page from GenieACS")

		if n < c.config.PageSize {
			return nil
		}

		skip += n
	}
}

func (c *Client) fetchPage(ctx context.Context, skip int, fn func(models.RawDevice) error) (int, error) {
	params := url.Values{}
	params.Set("query", "{}")
	params.Set("sort", `{"_id":1}`)
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(c.config.PageSize))

	if len(c.projection) > 0 {
		params.Set("projection", projectionParam(c.projection))
	}

	resp, err := c.do(ctx, http.MethodGet, "/devices/?"+params.Encode())
	if err != nil {
		return 0, err
	}
	defer c.closeResponse(resp)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	return decodeDevices(resp.Body, fn)
}

// decodeDevices walks a JSON array without buffering the whole page.
func decodeDevices(r io.Reader, fn func(models.RawDevice) error) (int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errUnexpectedPayload, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, fmt.Errorf("%w: expected array, got %v", errUnexpectedPayload, tok)
	}

	count := 0

	for dec.More() {
		var raw models.RawDevice
		if err := dec.Decode(&raw); err != nil {
			return count, fmt.Errorf("%w: device %d: %w", errUnexpectedPayload, count, err)
		}

		count++

		if err := fn(raw); err != nil {
			return count, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return count, fmt.Errorf("%w: %w", errUnexpectedPayload, err)
	}

	return count, nil
}

// DeleteDevice removes a device document by its GenieACS id.
func (c *Client) DeleteDevice(ctx context.Context, deviceID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/devices/"+url.PathEscape(deviceID))
	if err != nil {
		return err
	}
	defer c.closeResponse(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	c.logger.Info().Str("device_id", deviceID).Msg("Deleted device from GenieACS")

	return nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	return c.httpClient.Do(req)
}

func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
