// ABOUTME: Sync Gateway contract consumed by the composition engine.
// ABOUTME: Collection-generic CRUD with equality/containment filters and ascending order.

// Package gateway defines the persistence surface the composition engine talks
// to. Implementations live in storage (SQLite), charm (KV), and this package
// (in-memory). Calls block until the backend settles; the engine is the one
// that runs them off the caller's path.
package gateway

import (
	"context"
	"errors"
)

// Collection names a record family. Names match the backend tables.
type Collection string

const (
	Programs  Collection = "programs"
	Days      Collection = "program_days"
	DayItems  Collection = "program_day_items"
	Exercises Collection = "exercises"
)

// Collections lists every collection in parent-before-child order.
var Collections = []Collection{Exercises, Programs, Days, DayItems}

// ErrNotFound is wrapped by gateways when an id does not exist.
var ErrNotFound = errors.New("not found")

// Gateway is the asynchronous CRUD surface, expressed as blocking calls.
// Every call either succeeds or fails as a whole; there are no retries and no
// multi-row transactions.
type Gateway interface {
	Create(ctx context.Context, c Collection, payload Record) (Record, error)
	Read(ctx context.Context, c Collection, filters []Filter, order *Order) ([]Record, error)
	Update(ctx context.Context, c Collection, id string, patch Record) (Record, error)
	Delete(ctx context.Context, c Collection, id string) error
	Close() error
}

// FilterOp is the comparison a Filter applies.
type FilterOp int

const (
	// OpEq matches records whose field equals the single value.
	OpEq FilterOp = iota
	// OpIn matches records whose field equals any of the values.
	OpIn
)

// Filter restricts a Read to matching records.
type Filter struct {
	Field  string
	Op     FilterOp
	Values []any
}

// Eq builds an equality filter.
func Eq(field string, v any) Filter {
	return Filter{Field: field, Op: OpEq, Values: []any{v}}
}

// In builds a "field is one of" filter.
func In(field string, vals ...any) Filter {
	return Filter{Field: field, Op: OpIn, Values: vals}
}

// InStrings builds an In filter from string ids.
func InStrings(field string, ids []string) Filter {
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	return In(field, vals...)
}

// Match reports whether r satisfies the filter.
func (f Filter) Match(r Record) bool {
	v, ok := r[f.Field]
	if !ok {
		return false
	}
	for _, want := range f.Values {
		if valuesEqual(v, want) {
			return true
		}
	}
	return false
}

// MatchAll reports whether r satisfies every filter.
func MatchAll(filters []Filter, r Record) bool {
	for _, f := range filters {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

// Order sorts a Read ascending by one field.
type Order struct {
	Field string
}

// Asc builds an ascending order on field.
func Asc(field string) *Order {
	return &Order{Field: field}
}

// Child describes a collection that is deleted along with its parent.
type Child struct {
	Collection Collection
	ParentKey  string
}

// cascades lists, per collection, the children removed on delete.
var cascades = map[Collection][]Child{
	Programs: {{Collection: Days, ParentKey: "program_id"}},
	Days:     {{Collection: DayItems, ParentKey: "program_day_id"}},
}

// CascadeChildren returns the children of c that a delete must remove.
// Backends without foreign keys use it to cascade by hand.
func CascadeChildren(c Collection) []Child {
	return cascades[c]
}
