// ABOUTME: In-memory Gateway used by tests and the "memory" backend.
// ABOUTME: Supports failure injection, holding calls in flight, and call recording.
package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Method identifies a gateway call for failure injection and recording.
type Method string

const (
	MethodCreate Method = "create"
	MethodRead   Method = "read"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// Call is one recorded gateway invocation.
type Call struct {
	Method     Method
	Collection Collection
	ID         string
	Record     Record
}

type failure struct {
	method Method
	coll   Collection
	err    error
	once   bool
}

type entry struct {
	rec Record
	seq int
}

// Memory keeps collections in maps. Reads without an order return records
// in insertion order.
type Memory struct {
	mu       sync.Mutex
	data     map[Collection]map[string]entry
	seq      int
	failures []failure
	gate     chan struct{}
	calls    []Call
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{data: make(map[Collection]map[string]entry)}
}

// FailNext makes the next matching call return err. An empty collection
// matches any collection.
func (m *Memory) FailNext(method Method, c Collection, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, failure{method: method, coll: c, err: err, once: true})
}

// FailAlways makes every matching call return err until ClearFailures.
func (m *Memory) FailAlways(method Method, c Collection, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, failure{method: method, coll: c, err: err})
}

// ClearFailures removes all injected failures.
func (m *Memory) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = nil
}

// Hold blocks every subsequent call until Release.
func (m *Memory) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Release lets held calls proceed.
func (m *Memory) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Calls returns the recorded invocations in arrival order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// ResetCalls clears the call log.
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Seed inserts records directly, bypassing failures and the call log.
func (m *Memory) Seed(c Collection, recs ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		r = r.Clone()
		if r.ID() == "" {
			r["id"] = uuid.NewString()
		}
		m.put(c, r)
	}
}

// Get returns a stored record for assertions.
func (m *Memory) Get(c Collection, id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[c][id]
	if !ok {
		return nil, false
	}
	return e.rec.Clone(), true
}

// Len returns the number of records in c.
func (m *Memory) Len(c Collection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[c])
}

// Create stores payload, generating an id when absent.
func (m *Memory) Create(ctx context.Context, c Collection, payload Record) (Record, error) {
	if err := m.enter(ctx, Call{Method: MethodCreate, Collection: c, ID: payload.ID(), Record: payload.Clone()}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := payload.Clone()
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}
	if _, exists := m.data[c][rec.ID()]; exists {
		return nil, fmt.Errorf("duplicate key %s in %s", rec.ID(), c)
	}
	m.put(c, rec)
	return rec.Clone(), nil
}

// Read returns matching records, optionally ordered.
func (m *Memory) Read(ctx context.Context, c Collection, filters []Filter, order *Order) ([]Record, error) {
	if err := m.enter(ctx, Call{Method: MethodRead, Collection: c}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]entry, 0, len(m.data[c]))
	for _, e := range m.data[c] {
		if MatchAll(filters, e.rec) {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)

	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec.Clone()
	}
	SortRecords(out, order)
	return out, nil
}

// Update merges patch into the stored record.
func (m *Memory) Update(ctx context.Context, c Collection, id string, patch Record) (Record, error) {
	if err := m.enter(ctx, Call{Method: MethodUpdate, Collection: c, ID: id, Record: patch.Clone()}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[c][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", c, id, ErrNotFound)
	}
	e.rec = e.rec.Merge(patch)
	e.rec["id"] = id
	m.data[c][id] = e
	return e.rec.Clone(), nil
}

// Delete removes the record and its cascade children.
func (m *Memory) Delete(ctx context.Context, c Collection, id string) error {
	if err := m.enter(ctx, Call{Method: MethodDelete, Collection: c, ID: id}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[c][id]; !ok {
		return fmt.Errorf("%s %s: %w", c, id, ErrNotFound)
	}
	m.remove(c, id)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// enter records the call, waits on any hold, then applies injected failures.
func (m *Memory) enter(ctx context.Context, call Call) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.failures {
		if f.method != call.Method || (f.coll != "" && f.coll != call.Collection) {
			continue
		}
		if f.once {
			m.failures = append(m.failures[:i], m.failures[i+1:]...)
		}
		return f.err
	}
	return nil
}

func (m *Memory) put(c Collection, rec Record) {
	if m.data[c] == nil {
		m.data[c] = make(map[string]entry)
	}
	m.seq++
	m.data[c][rec.ID()] = entry{rec: rec, seq: m.seq}
}

func (m *Memory) remove(c Collection, id string) {
	delete(m.data[c], id)
	for _, child := range CascadeChildren(c) {
		for cid, e := range m.data[child.Collection] {
			if e.rec.String(child.ParentKey) == id {
				m.remove(child.Collection, cid)
			}
		}
	}
}

func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
}
