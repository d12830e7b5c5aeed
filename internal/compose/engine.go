// ABOUTME: Program composition engine: an owned store of programs, days, and items.
// ABOUTME: Commands mutate local state optimistically and reconcile through a Gateway.

// Package compose implements the program composition state engine. Every
// command validates synchronously, applies its mutation to the local store,
// and persists it in the background through a gateway.Gateway. A rejected
// call reverts exactly the mutation that provoked it.
package compose

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
)

// EventKind says which part of the store changed.
type EventKind int

const (
	ProgramsChanged EventKind = iota
	DaysChanged
	ItemsChanged
	SelectionChanged
	RolledBack
)

func (k EventKind) String() string {
	switch k {
	case ProgramsChanged:
		return "programs"
	case DaysChanged:
		return "days"
	case ItemsChanged:
		return "items"
	case SelectionChanged:
		return "selection"
	case RolledBack:
		return "rollback"
	default:
		return "unknown"
	}
}

// Event is a change notification. Err is set for RolledBack.
type Event struct {
	Kind      EventKind
	ProgramID string
	DayID     string
	Op        string
	Err       error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source for createdAt and doneAt stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithOwner stamps programs with a user id and scopes program reads to it.
func WithOwner(id string) Option {
	return func(e *Engine) { e.owner = id }
}

// Engine owns the composition state. All methods are safe for concurrent use;
// mutations are applied one at a time.
type Engine struct {
	gw    gateway.Gateway
	log   *log.Logger
	now   func() time.Time
	owner string
	ctx   context.Context

	mu       sync.Mutex
	programs map[string]*models.Program
	days     map[string]*models.Day
	items    map[string]*models.DayItem
	lists    map[string][]string // day id -> item ids in sortOrder
	revs     map[string]uint64   // day id -> list revision
	selected string

	guards map[string]*fieldGuard
	seq    uint64
	// saved is the sort_order the backend holds per item.
	saved map[string]int
	// dead marks entities whose create was rejected.
	dead map[string]bool

	lanes    *lanes
	// inflight counts issued tasks not yet settled; idle is closed when it
	// drops to zero.
	inflight int
	idle     chan struct{}
	closed   bool

	subs    map[int]func(Event)
	nextSub int
	pending []Event
}

// New returns an engine persisting through gw.
func New(gw gateway.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:       gw,
		log:      logging.Discard(),
		now:      time.Now,
		ctx:      context.Background(),
		programs: make(map[string]*models.Program),
		days:     make(map[string]*models.Day),
		items:    make(map[string]*models.DayItem),
		lists:    make(map[string][]string),
		revs:     make(map[string]uint64),
		guards:   make(map[string]*fieldGuard),
		saved:    make(map[string]int),
		dead:     make(map[string]bool),
		lanes:    newLanes(),
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers fn for change notifications and returns a func that
// removes it. fn runs outside the engine lock and may call readers.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) emit(ev Event) {
	e.pending = append(e.pending, ev)
}

func (e *Engine) takeEvents() []func() {
	if len(e.pending) == 0 || len(e.subs) == 0 {
		e.pending = nil
		return nil
	}
	subs := make([]func(Event), 0, len(e.subs))
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		subs = append(subs, e.subs[id])
	}

	calls := make([]func(), 0, len(e.pending)*len(subs))
	for _, ev := range e.pending {
		for _, fn := range subs {
			calls = append(calls, func() { fn(ev) })
		}
	}
	e.pending = nil
	return calls
}

func (e *Engine) deliver(calls []func()) {
	for _, call := range calls {
		call()
	}
}

// unlock releases e.mu and then notifies subscribers.
func (e *Engine) unlock() {
	calls := e.takeEvents()
	e.mu.Unlock()
	e.deliver(calls)
}

func (e *Engine) checkOpen() error {
	if e.closed {
		return &models.StateError{Message: "engine is closed"}
	}
	return nil
}

// Drain waits until every issued persistence call has settled. Commands
// issued while draining are waited for too.
func (e *Engine) Drain(ctx context.Context) error {
	e.mu.Lock()
	if e.inflight == 0 {
		e.mu.Unlock()
		return nil
	}
	if e.idle == nil {
		e.idle = make(chan struct{})
	}
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting commands. Calls already in flight still reach the
// gateway, but their results are no longer applied to local state.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.subs = make(map[int]func(Event))
	return nil
}

// Programs lists programs by createdAt, newest first.
func (e *Engine) Programs() []models.Program {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Program, 0, len(e.programs))
	for _, p := range e.programs {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Program returns one program.
func (e *Engine) Program(id string) (models.Program, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.programs[id]
	if !ok {
		return models.Program{}, false
	}
	return p.Clone(), true
}

// Days lists a program's days by dayIndex.
func (e *Engine) Days(programID string) []models.Day {
	e.mu.Lock()
	defer e.mu.Unlock()
	days := e.daysOf(programID)
	out := make([]models.Day, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}

// Day returns one day.
func (e *Engine) Day(id string) (models.Day, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.days[id]
	if !ok {
		return models.Day{}, false
	}
	return d.Clone(), true
}

// Items lists a day's items in sortOrder.
func (e *Engine) Items(dayID string) []models.DayItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.lists[dayID]
	out := make([]models.DayItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.items[id].Clone())
	}
	return out
}

// Item returns one item.
func (e *Engine) Item(id string) (models.DayItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, ok := e.items[id]
	if !ok {
		return models.DayItem{}, false
	}
	return it.Clone(), true
}

// SelectedDay returns the day add-operations target, if any.
func (e *Engine) SelectedDay() (models.Day, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.days[e.selected]
	if !ok {
		return models.Day{}, false
	}
	return d.Clone(), true
}

// daysOf returns the program's days sorted by dayIndex. Callers hold e.mu.
func (e *Engine) daysOf(programID string) []*models.Day {
	var out []*models.Day
	for _, d := range e.days {
		if d.ProgramID == programID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayIndex < out[j].DayIndex })
	return out
}

// dropDay removes a day and its items from local state. Callers hold e.mu.
func (e *Engine) dropDay(dayID string) {
	for _, id := range e.lists[dayID] {
		e.dropItem(id)
	}
	delete(e.lists, dayID)
	delete(e.revs, dayID)
	delete(e.days, dayID)
	if e.selected == dayID {
		e.selected = ""
		e.emit(Event{Kind: SelectionChanged})
	}
}

func (e *Engine) dropItem(id string) {
	delete(e.items, id)
	delete(e.saved, id)
	e.dropGuards("item", id, itemFields...)
}

// ownerFilters scopes program reads to the configured owner.
func (e *Engine) ownerFilters() []gateway.Filter {
	if e.owner == "" {
		return nil
	}
	return []gateway.Filter{gateway.Eq("user_id", e.owner)}
}
