// ABOUTME: Column layout of each gateway collection and value conversion to SQLite.
// ABOUTME: Records travel as maps; booleans are stored as integers and objects as JSON text.
package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/gateway"
)

type colKind int

const (
	colText colKind = iota
	colInt
	colReal
	colBool
	colJSON
)

type column struct {
	name string
	kind colKind
}

// table is the SQLite layout of one collection. The first column is the key.
type table struct {
	name string
	cols []column
}

var tables = map[gateway.Collection]table{
	gateway.Exercises: {name: "exercises", cols: []column{
		{"id", colText},
		{"name", colText},
		{"primary_muscle", colText},
		{"equipment", colText},
		{"category", colText},
		{"media_url", colText},
		{"description", colText},
	}},
	gateway.Programs: {name: "programs", cols: []column{
		{"id", colText},
		{"user_id", colText},
		{"title", colText},
		{"notes", colText},
		{"created_at", colText},
	}},
	gateway.Days: {name: "program_days", cols: []column{
		{"id", colText},
		{"program_id", colText},
		{"day_index", colInt},
		{"title", colText},
		{"notes", colText},
	}},
	gateway.DayItems: {name: "program_day_items", cols: []column{
		{"id", colText},
		{"program_day_id", colText},
		{"exercise_id", colText},
		{"sort_order", colInt},
		{"prescription", colJSON},
		{"weight_kg", colReal},
		{"notes", colText},
		{"done", colBool},
		{"done_at", colText},
	}},
}

func tableFor(c gateway.Collection) (table, error) {
	t, ok := tables[c]
	if !ok {
		return table{}, fmt.Errorf("unknown collection %q", c)
	}
	return t, nil
}

func (t table) column(name string) (column, bool) {
	for _, col := range t.cols {
		if col.name == name {
			return col, true
		}
	}
	return column{}, false
}

func (t table) columnList() string {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.name
	}
	return strings.Join(names, ", ")
}

// encode converts a record value into a SQLite argument.
func (col column) encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.kind {
	case colText:
		switch s := v.(type) {
		case string:
			return s, nil
		case time.Time:
			return s.UTC().Format(time.RFC3339Nano), nil
		}
	case colInt:
		if f, ok := number(v); ok && f == math.Trunc(f) {
			return int64(f), nil
		}
	case colReal:
		if f, ok := number(v); ok {
			return f, nil
		}
	case colBool:
		switch b := v.(type) {
		case bool:
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		default:
			if f, ok := number(v); ok {
				if f != 0 {
					return int64(1), nil
				}
				return int64(0), nil
			}
		}
	case colJSON:
		if s, ok := v.(string); ok {
			return s, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", col.name, err)
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("field %s: unsupported value %T", col.name, v)
}

// decode converts a scanned SQLite value back into a record value.
func (col column) decode(v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}
	switch col.kind {
	case colInt:
		if f, ok := number(v); ok {
			return int(f), nil
		}
	case colReal:
		if f, ok := number(v); ok {
			return f, nil
		}
	case colBool:
		if f, ok := number(v); ok {
			return f != 0, nil
		}
	case colJSON:
		s, ok := v.(string)
		if !ok {
			break
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
		return m, nil
	default:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
	}
	return nil, fmt.Errorf("field %s: unexpected stored value %T", col.name, v)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
