// ABOUTME: Per-entity lanes that run gateway calls in issuance order.
// ABOUTME: Each task waits for the previous task on every lane it joins.
package compose

import (
	"context"
	"errors"

	"github.com/harperreed/lift/internal/models"
)

// ErrParentRejected settles a queued child write whose parent create was
// rejected. The child never reaches the gateway.
var ErrParentRejected = errors.New("parent create was rejected")

func programLane(id string) string { return "program:" + id }
func dayLane(id string) string     { return "day:" + id }

// lanes maps a lane key to the done channel of its most recent task.
type lanes struct {
	tails map[string]chan struct{}
	busy  map[string]int
	// gen counts tasks ever issued per lane.
	gen map[string]uint64
}

func newLanes() *lanes {
	return &lanes{
		tails: make(map[string]chan struct{}),
		busy:  make(map[string]int),
		gen:   make(map[string]uint64),
	}
}

func (l *lanes) acquire(keys []string) (waits []chan struct{}, done chan struct{}) {
	done = make(chan struct{})
	for _, k := range keys {
		if t, ok := l.tails[k]; ok {
			waits = append(waits, t)
		}
		l.tails[k] = done
		l.busy[k]++
		l.gen[k]++
	}
	return waits, done
}

func (l *lanes) release(keys []string, done chan struct{}) {
	for _, k := range keys {
		if l.tails[k] == done {
			delete(l.tails, k)
		}
		if l.busy[k]--; l.busy[k] <= 0 {
			delete(l.busy, k)
		}
	}
}

// laneMark is the state of every lane at one instant.
type laneMark struct {
	gen  map[string]uint64
	busy map[string]bool
}

func (l *lanes) mark() laneMark {
	m := laneMark{gen: make(map[string]uint64, len(l.gen)), busy: make(map[string]bool, len(l.busy))}
	for k, v := range l.gen {
		m.gen[k] = v
	}
	for k := range l.busy {
		m.busy[k] = true
	}
	return m
}

// quietSince reports whether lane key had nothing in flight at m and has
// issued nothing since, so a read started at m is not stale for it.
func (l *lanes) quietSince(key string, m laneMark) bool {
	return !m.busy[key] && l.gen[key] == m.gen[key]
}

// task is a command object: the forward mutation is already applied when it
// is issued; run persists it and exactly one of onSuccess/onFailure settles it.
type task struct {
	name string
	keys []string
	// run performs the gateway calls. It must not hold e.mu while blocking.
	run       func(ctx context.Context) error
	onSuccess func()
	onFailure func(err error)
	// bestEffort tasks log failures and never roll back.
	bestEffort bool
}

// issue schedules t behind its lanes. Callers hold e.mu.
func (e *Engine) issue(t task) *Op {
	op := newOp()
	waits, done := e.lanes.acquire(t.keys)
	e.inflight++
	e.log.Debug("issue", "op", t.name, "lane", t.keys)

	go func() {
		for _, w := range waits {
			<-w
		}

		var perr error
		if err := t.run(e.ctx); err != nil {
			perr = &models.PersistenceError{Op: t.name, Err: err}
		}

		e.mu.Lock()
		switch {
		case e.closed:
			e.log.Debug("dropping late result", "op", t.name, "lane", t.keys, "err", perr)
		case perr != nil && t.bestEffort:
			e.log.Warn("best-effort write failed", "op", t.name, "lane", t.keys, "err", perr)
		case perr != nil:
			e.log.Warn("rollback", "op", t.name, "lane", t.keys, "err", perr)
			if t.onFailure != nil {
				t.onFailure(perr)
			}
			e.emit(Event{Kind: RolledBack, Op: t.name, Err: perr})
		default:
			if t.onSuccess != nil {
				t.onSuccess()
			}
		}
		e.lanes.release(t.keys, done)
		events := e.takeEvents()
		e.mu.Unlock()

		close(done)
		e.deliver(events)
		op.finish(perr)

		e.mu.Lock()
		e.settle()
		e.mu.Unlock()
	}()
	return op
}

// settle counts one issued task as finished and wakes Drain when none are
// left. Callers hold e.mu.
func (e *Engine) settle() {
	e.inflight--
	if e.inflight == 0 && e.idle != nil {
		close(e.idle)
		e.idle = nil
	}
}
