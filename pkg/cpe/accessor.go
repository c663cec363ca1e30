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
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/cpesync/pkg/models"
)

const (
	notAvailable = "N/A"
	valueKey     = "_value"
	identityKey  = "_deviceId"
)

// Accessor reads parameters out of a raw GenieACS document. Every lookup
// tolerates missing or oddly shaped nodes and reports absence instead.
type Accessor struct {
	root map[string]interface{}
}

// NewAccessor wraps raw for read-only lookups.
func NewAccessor(raw models.RawDevice) Accessor {
	return Accessor{root: raw}
}

// Node returns the object at the dotted path.
func (a Accessor) Node(path string) (map[string]interface{}, bool) {
	return walk(a.root, path)
}

// Raw returns the untyped _value of the parameter at path.
func (a Accessor) Raw(path string) (interface{}, bool) {
	n, ok := walk(a.root, path)
	if !ok {
		return nil, false
	}

	v, ok := n[valueKey]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// Value returns the parameter at path rendered as a non-empty string.
func (a Accessor) Value(path string) (string, bool) {
	v, ok := a.Raw(path)
	if !ok {
		return "", false
	}

	return stringify(v)
}

// Identity reads one of the _deviceId fields GenieACS keeps beside the tree.
func (a Accessor) Identity(key string) (string, bool) {
	id, ok := a.root[identityKey].(map[string]interface{})
	if !ok {
		return "", false
	}

	return stringify(id[key])
}

// Top reads a top-level scalar such as _id.
func (a Accessor) Top(key string) (interface{}, bool) {
	v, ok := a.root[key]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}

// Children returns the indexed child objects at path in index order.
// Metadata keys (leading underscore) and non-object children are skipped.
func (a Accessor) Children(path string) []indexedNode {
	n, ok := walk(a.root, path)
	if !ok {
		return nil
	}

	return indexedChildren(n)
}

type indexedNode struct {
	index string
	node  Accessor
}

func indexedChildren(n map[string]interface{}) []indexedNode {
	keys := make([]string, 0, len(n))

	for k := range n {
		if strings.HasPrefix(k, "_") {
			continue
		}

		keys = append(keys, k)
	}

	sortIndexKeys(keys)

	out := make([]indexedNode, 0, len(keys))

	for _, k := range keys {
		child, ok := n[k].(map[string]interface{})
		if !ok {
			continue
		}

		out = append(out, indexedNode{index: k, node: Accessor{root: child}})
	}

	return out
}

// sortIndexKeys orders numeric keys ascending ahead of any other keys,
// which sort lexically.
func sortIndexKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])

		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

func walk(root map[string]interface{}, path string) (map[string]interface{}, bool) {
	if root == nil {
		return nil, false
	}

	cur := root

	if path == "" {
		return cur, true
	}

	for _, seg := range strings.Split(path, ".") {
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}

func stringify(v interface{}) (string, bool) {
	var s string

	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case bool:
		s = strconv.FormatBool(val)
	case json.Number:
		s = val.String()
	default:
		return "", false
	}

	if s == "" {
		return "", false
	}

	return s, true
}

// accessorFunc yields one candidate value for a field.
type accessorFunc func(Accessor) (string, bool)

// fieldChain evaluates fns in order and keeps the first present value.
func fieldChain(fns ...accessorFunc) accessorFunc {
	return func(a Accessor) (string, bool) {
		for _, fn := range fns {
			if v, ok := fn(a); ok {
				return v, true
			}
		}

		return "", false
	}
}

func param(path string) accessorFunc {
	return func(a Accessor) (string, bool) {
		return a.Value(path)
	}
}

func identity(key string) accessorFunc {
	return func(a Accessor) (string, bool) {
		return a.Identity(key)
	}
}

// orDefault resolves chain against a, falling back to def.
func orDefault(a Accessor, chain accessorFunc, def string) string {
	if v, ok := chain(a); ok {
		return v
	}

	return def
}

// truthy normalizes the encodings CPEs use for enable flags.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "1" || val == "true"
	case float64:
		return val == 1
	case json.Number:
		return val.String() == "1"
	default:
		return false
	}
}

// parseTimestamp understands the shapes _lastInform takes across NBI
// versions and exports: RFC 3339 strings, epoch milliseconds and
// extended-JSON {"$date": ...} wrappers.
func parseTimestamp(v interface{}) *time.Time {
	var ts time.Time

	switch val := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return nil
		}

		ts = parsed
	case float64:
		ts = time.UnixMilli(int64(val))
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return nil
			}

			ms = int64(f)
		}

		ts = time.UnixMilli(ms)
	case time.Time:
		ts = val
	case map[string]interface{}:
		return parseTimestamp(val["$date"])
	default:
		return nil
	}

	ts = ts.UTC()

	return &ts
}

func parseUptime(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return 0
		}

		return int64(val)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil && n > 0 {
			return n
		}

		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil && f > 0 {
			return int64(f)
		}
	case json.Number:
		if n, err := val.Int64(); err == nil && n > 0 {
			return n
		}

		if f, err := val.Float64(); err == nil && f > 0 {
			return int64(f)
		}
	}

	return 0
}
