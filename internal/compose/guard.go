// ABOUTME: Per-field sequence tokens that decide whether a failed patch may roll back.
// ABOUTME: Each field remembers its last confirmed value and the latest claim.
package compose

type fieldGuard struct {
	token     uint64
	confirmed any
}

func fieldKey(entity, id, field string) string {
	return entity + ":" + id + ":" + field
}

// claim records a new optimistic write to key. current is the value before
// the write; it becomes the confirmed value the first time key is claimed.
func (e *Engine) claim(key string, current any) uint64 {
	e.seq++
	g, ok := e.guards[key]
	if !ok {
		g = &fieldGuard{confirmed: current}
		e.guards[key] = g
	}
	g.token = e.seq
	return e.seq
}

// confirm records that the backend now holds v for key.
func (e *Engine) confirm(key string, v any) {
	if g, ok := e.guards[key]; ok {
		g.confirmed = v
	}
}

// revertTo returns the confirmed value of key when tok is still the latest
// claim, meaning no later command has touched the field.
func (e *Engine) revertTo(key string, tok uint64) (any, bool) {
	g, ok := e.guards[key]
	if !ok || g.token != tok {
		return nil, false
	}
	return g.confirmed, true
}

// resetGuard sets the confirmed value of key after a reload.
func (e *Engine) resetGuard(key string, v any) {
	if g, ok := e.guards[key]; ok {
		g.confirmed = v
	}
}

func (e *Engine) dropGuards(entity, id string, fields ...string) {
	for _, f := range fields {
		delete(e.guards, fieldKey(entity, id, f))
	}
}
