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
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var errUnsupportedJSONSource = errors.New("unsupported JSON column source")

// JSONColumn stores a value as a JSON document in a text or jsonb column.
// A column with Valid == false maps to SQL NULL.
type JSONColumn[T any] struct {
	Val   T
	Valid bool
}

// NewJSONColumn wraps a non-null value.
func NewJSONColumn[T any](v T) JSONColumn[T] {
	return JSONColumn[T]{Val: v, Valid: true}
}

// Value implements driver.Valuer.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	if !c.Valid {
		return nil, nil
	}

	b, err := json.Marshal(c.Val)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *JSONColumn[T]) Scan(src interface{}) error {
	var zero T

	var raw []byte

	switch v := src.(type) {
	case nil:
		c.Val, c.Valid = zero, false
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("%w: %T", errUnsupportedJSONSource, src)
	}

	if len(raw) == 0 || string(raw) == "null" {
		c.Val, c.Valid = zero, false
		return nil
	}

	if err := json.Unmarshal(raw, &c.Val); err != nil {
		return err
	}

	c.Valid = true

	return nil
}
