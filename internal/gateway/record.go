// ABOUTME: Record type exchanged with gateways plus typed accessors.
// ABOUTME: Normalizes JSON-decoded numbers and nested maps across backends.
package gateway

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one row of a collection. Values are strings, numbers, bools,
// nil, or nested map[string]any.
type Record map[string]any

// ID returns the record's "id" field.
func (r Record) ID() string { return r.String("id") }

// String returns the string at key, or "".
func (r Record) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// StringPtr returns the string at key, or nil when absent or null.
func (r Record) StringPtr(key string) *string {
	s, ok := r[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Int returns the number at key as an int.
func (r Record) Int(key string) int {
	f, _ := toFloat(r[key])
	return int(f)
}

// Float returns the number at key.
func (r Record) Float(key string) float64 {
	f, _ := toFloat(r[key])
	return f
}

// FloatPtr returns the number at key, or nil when absent or null.
func (r Record) FloatPtr(key string) *float64 {
	f, ok := toFloat(r[key])
	if !ok {
		return nil
	}
	return &f
}

// Bool returns the bool at key. Numeric 0/1 are accepted.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

// Map returns the nested object at key. JSON text is decoded.
func (r Record) Map(key string) map[string]any {
	switch v := r[key].(type) {
	case map[string]any:
		return v
	case Record:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
	}
	return nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of r with patch applied on top.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return map[string]any(t.Clone())
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ba == bb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValues orders numbers numerically and everything else as text.
// nil sorts first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// SortRecords sorts recs ascending by order.Field. The sort is stable, so
// callers control tie order through the input order.
func SortRecords(recs []Record, order *Order) {
	if order == nil || order.Field == "" {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return compareValues(recs[i][order.Field], recs[j][order.Field]) < 0
	})
}
