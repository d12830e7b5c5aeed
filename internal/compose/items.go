// ABOUTME: Day item commands: add, remove, patch, and toggle completion.
// ABOUTME: Keeps sortOrder contiguous and rolls back exactly the rejected change.
package compose

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
)

var itemFields = []string{"prescription", "weight_kg", "notes", "done"}

func itemKey(id string) string { return "item:" + id }

// doneState is the done/doneAt pair, which always changes as one field.
type doneState struct {
	done bool
	at   *time.Time
}

// ItemPatch lists the item fields to change. Zero fields are left alone.
type ItemPatch struct {
	Prescription *models.Prescription
	WeightKg     models.Nullable[float64]
	Notes        models.Nullable[string]
}

// AddItemToDay appends exerciseID to a day with the default prescription.
// An empty dayID targets the selected day. Adding an exercise that is
// already in the day returns the existing item and does nothing. If the
// day's own create is rejected, the Op fails with ErrParentRejected.
func (e *Engine) AddItemToDay(dayID, exerciseID string) (models.DayItem, *Op, error) {
	exerciseID = strings.TrimSpace(exerciseID)
	if exerciseID == "" {
		return models.DayItem{}, nil, &models.ValidationError{Field: "exercise_id", Message: "must not be empty"}
	}

	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return models.DayItem{}, nil, err
	}
	if dayID == "" {
		dayID = e.selected
		if dayID == "" {
			return models.DayItem{}, nil, &models.StateError{Message: "no day selected"}
		}
	}
	if _, ok := e.days[dayID]; !ok {
		return models.DayItem{}, nil, &models.NotFoundError{Entity: "day", ID: dayID}
	}
	for _, id := range e.lists[dayID] {
		if existing := e.items[id]; existing.ExerciseID == exerciseID {
			return existing.Clone(), settledOp(nil), nil
		}
	}

	it := models.NewDayItem(dayID, exerciseID, len(e.lists[dayID])+1)
	e.items[it.ID] = it
	e.lists[dayID] = append(e.lists[dayID], it.ID)
	e.revs[dayID]++
	e.emit(Event{Kind: ItemsChanged, DayID: dayID})

	rec := ItemRecord(*it)
	id := it.ID
	op := e.issue(task{
		name: "add_item",
		keys: []string{dayLane(dayID)},
		run: func(ctx context.Context) error {
			// sortOrder may have shifted while queued
			e.mu.Lock()
			parentDead := e.dead[dayLane(dayID)]
			superseded := e.dead[itemKey(id)]
			if cur, ok := e.items[id]; ok {
				rec["sort_order"] = cur.SortOrder
			}
			e.mu.Unlock()
			switch {
			case parentDead:
				return ErrParentRejected
			case superseded:
				// a rejected removal brought the exercise back first
				return nil
			}
			_, err := e.gw.Create(ctx, gateway.DayItems, rec)
			return err
		},
		onSuccess: func() {
			if _, ok := e.items[id]; ok {
				e.saved[id] = rec.Int("sort_order")
			}
		},
		onFailure: func(error) {
			e.dead[itemKey(id)] = true
			if e.unlist(dayID, id) {
				e.renumber(dayID)
				e.revs[dayID]++
				e.emit(Event{Kind: ItemsChanged, DayID: dayID})
				e.syncOrder(dayID)
			}
			e.dropItem(id)
		},
	})
	return it.Clone(), op, nil
}

// RemoveItem deletes an item and renumbers its siblings. An empty dayID
// means the item's own day.
func (e *Engine) RemoveItem(dayID, itemID string) (*Op, error) {
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	it, ok := e.items[itemID]
	if !ok || (dayID != "" && it.DayID != dayID) {
		return nil, &models.NotFoundError{Entity: "item", ID: itemID}
	}
	dayID = it.DayID

	prevIDs := append([]string(nil), e.lists[dayID]...)
	prevOrder := make(map[string]int, len(prevIDs))
	pos := 0
	for i, id := range prevIDs {
		prevOrder[id] = e.items[id].SortOrder
		if id == itemID {
			pos = i
		}
	}
	removed := it.Clone()

	e.unlist(dayID, itemID)
	delete(e.items, itemID)
	e.renumber(dayID)
	e.revs[dayID]++
	revAfter := e.revs[dayID]
	e.emit(Event{Kind: ItemsChanged, DayID: dayID})

	return e.issue(task{
		name: "remove_item",
		keys: []string{dayLane(dayID)},
		run: func(ctx context.Context) error {
			e.mu.Lock()
			skip := e.dead[itemKey(itemID)]
			e.mu.Unlock()
			if skip {
				return nil
			}
			return e.gw.Delete(ctx, gateway.DayItems, itemID)
		},
		onSuccess: func() {
			delete(e.saved, itemID)
			e.dropGuards("item", itemID, itemFields...)
			if _, ok := e.days[dayID]; ok {
				e.syncOrder(dayID)
			}
		},
		onFailure: func(error) {
			e.restoreItem(dayID, removed, pos, prevIDs, prevOrder, revAfter)
		},
	}), nil
}

// restoreItem undoes a rejected removal. When nothing else touched the list
// the exact previous list comes back; otherwise the item is reinserted at
// its old position and the list renumbered. A pending re-add of the same
// exercise is discarded so the day never holds it twice.
func (e *Engine) restoreItem(dayID string, removed models.DayItem, pos int, prevIDs []string, prevOrder map[string]int, revAfter uint64) {
	if _, ok := e.days[dayID]; !ok {
		return
	}
	if _, exists := e.items[removed.ID]; exists {
		return
	}
	// A later add of the same exercise is still queued behind this removal,
	// so it has not reached the backend and can be dropped.
	for _, id := range append([]string(nil), e.lists[dayID]...) {
		if e.items[id].ExerciseID == removed.ExerciseID {
			e.dead[itemKey(id)] = true
			e.unlist(dayID, id)
			e.dropItem(id)
		}
	}

	item := removed.Clone()
	e.items[item.ID] = &item

	if e.revs[dayID] == revAfter && e.allPresent(prevIDs) {
		e.lists[dayID] = append([]string(nil), prevIDs...)
		for _, id := range prevIDs {
			e.items[id].SortOrder = prevOrder[id]
		}
	} else {
		list := e.lists[dayID]
		if pos > len(list) {
			pos = len(list)
		}
		list = append(list[:pos], append([]string{item.ID}, list[pos:]...)...)
		e.lists[dayID] = list
		e.renumber(dayID)
		e.syncOrder(dayID)
	}
	e.revs[dayID]++
	e.emit(Event{Kind: ItemsChanged, DayID: dayID})
}

func (e *Engine) allPresent(ids []string) bool {
	for _, id := range ids {
		if _, ok := e.items[id]; !ok {
			return false
		}
	}
	return true
}

type fieldChange struct {
	key   string
	tok   uint64
	value any
	apply func(*models.DayItem, any)
}

// UpdateItem validates and applies a patch to one item. On rejection each
// patched field reverts unless a later command has written it since.
func (e *Engine) UpdateItem(itemID string, patch ItemPatch) (models.DayItem, *Op, error) {
	rec := gateway.Record{}
	var pres models.Prescription
	if patch.Prescription != nil {
		pres = patch.Prescription.Normalized()
		if err := pres.Validate(); err != nil {
			return models.DayItem{}, nil, err
		}
		rec["prescription"] = prescriptionMap(pres)
	}
	weight := patch.WeightKg.Ptr()
	if patch.WeightKg.IsSet() {
		if weight != nil {
			if err := models.ValidateWeight(*weight); err != nil {
				return models.DayItem{}, nil, err
			}
		}
		rec["weight_kg"] = orNil(weight)
	}
	var notes *string
	if patch.Notes.IsSet() {
		if n := patch.Notes.Ptr(); n != nil {
			if t := strings.TrimSpace(*n); t != "" {
				notes = &t
			}
		}
		rec["notes"] = orNil(notes)
	}
	if len(rec) == 0 {
		return models.DayItem{}, nil, &models.ValidationError{Field: "patch", Message: "nothing to update"}
	}

	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return models.DayItem{}, nil, err
	}
	it, ok := e.items[itemID]
	if !ok {
		return models.DayItem{}, nil, &models.NotFoundError{Entity: "item", ID: itemID}
	}

	var changes []fieldChange
	if patch.Prescription != nil {
		key := fieldKey("item", itemID, "prescription")
		changes = append(changes, fieldChange{key, e.claim(key, it.Prescription), pres, applyPrescription})
		it.Prescription = pres
	}
	if patch.WeightKg.IsSet() {
		key := fieldKey("item", itemID, "weight_kg")
		changes = append(changes, fieldChange{key, e.claim(key, copyPtr(it.WeightKg)), copyPtr(weight), applyWeight})
		it.WeightKg = copyPtr(weight)
	}
	if patch.Notes.IsSet() {
		key := fieldKey("item", itemID, "notes")
		changes = append(changes, fieldChange{key, e.claim(key, copyPtr(it.Notes)), copyPtr(notes), applyNotes})
		it.Notes = copyPtr(notes)
	}
	e.emit(Event{Kind: ItemsChanged, DayID: it.DayID})

	op := e.issue(task{
		name: "update_item",
		keys: []string{dayLane(it.DayID)},
		run: func(ctx context.Context) error {
			_, err := e.gw.Update(ctx, gateway.DayItems, itemID, rec)
			return err
		},
		onSuccess: func() {
			for _, c := range changes {
				e.confirm(c.key, c.value)
			}
		},
		onFailure: func(error) { e.revertFields(itemID, changes) },
	})
	return it.Clone(), op, nil
}

// ToggleDone flips an item between Active and Done, stamping doneAt on the
// way to Done and clearing it on the way back.
func (e *Engine) ToggleDone(itemID string) (models.DayItem, *Op, error) {
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return models.DayItem{}, nil, err
	}
	it, ok := e.items[itemID]
	if !ok {
		return models.DayItem{}, nil, &models.NotFoundError{Entity: "item", ID: itemID}
	}

	key := fieldKey("item", itemID, "done")
	tok := e.claim(key, doneState{done: it.Done, at: copyPtr(it.DoneAt)})
	it.SetDone(!it.Done, e.now())
	next := doneState{done: it.Done, at: copyPtr(it.DoneAt)}
	changes := []fieldChange{{key, tok, next, applyDone}}
	e.emit(Event{Kind: ItemsChanged, DayID: it.DayID})

	rec := gateway.Record{"done": next.done, "done_at": timeOrNil(next.at)}
	op := e.issue(task{
		name: "toggle_done",
		keys: []string{dayLane(it.DayID)},
		run: func(ctx context.Context) error {
			_, err := e.gw.Update(ctx, gateway.DayItems, itemID, rec)
			return err
		},
		onSuccess: func() { e.confirm(key, next) },
		onFailure: func(error) { e.revertFields(itemID, changes) },
	})
	return it.Clone(), op, nil
}

func (e *Engine) revertFields(itemID string, changes []fieldChange) {
	it, ok := e.items[itemID]
	if !ok {
		return
	}
	reverted := false
	for _, c := range changes {
		if v, ok := e.revertTo(c.key, c.tok); ok {
			c.apply(it, v)
			reverted = true
		}
	}
	if reverted {
		e.emit(Event{Kind: ItemsChanged, DayID: it.DayID})
	}
}

func applyPrescription(it *models.DayItem, v any) {
	if p, ok := v.(models.Prescription); ok {
		it.Prescription = p
	}
}

func applyWeight(it *models.DayItem, v any) {
	p, _ := v.(*float64)
	it.WeightKg = copyPtr(p)
}

func applyNotes(it *models.DayItem, v any) {
	p, _ := v.(*string)
	it.Notes = copyPtr(p)
}

func applyDone(it *models.DayItem, v any) {
	if s, ok := v.(doneState); ok {
		it.Done = s.done
		it.DoneAt = copyPtr(s.at)
	}
}

// unlist removes id from a day's list. Callers hold e.mu.
func (e *Engine) unlist(dayID, id string) bool {
	list := e.lists[dayID]
	for i, x := range list {
		if x == id {
			e.lists[dayID] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// renumber rewrites sortOrder to 1..N in list order. Callers hold e.mu.
func (e *Engine) renumber(dayID string) {
	for i, id := range e.lists[dayID] {
		e.items[id].SortOrder = i + 1
	}
}

// syncOrder queues a best-effort write of every sort_order the backend holds
// differently from local state. Callers hold e.mu.
func (e *Engine) syncOrder(dayID string) {
	type move struct {
		id    string
		order int
	}
	e.issue(task{
		name:       "renumber_items",
		keys:       []string{dayLane(dayID)},
		bestEffort: true,
		run: func(ctx context.Context) error {
			e.mu.Lock()
			var moves []move
			for _, id := range e.lists[dayID] {
				if saved, ok := e.saved[id]; ok && saved != e.items[id].SortOrder {
					moves = append(moves, move{id: id, order: e.items[id].SortOrder})
				}
			}
			e.mu.Unlock()

			var errs []error
			for _, m := range moves {
				if _, err := e.gw.Update(ctx, gateway.DayItems, m.id, gateway.Record{"sort_order": m.order}); err != nil {
					errs = append(errs, err)
					continue
				}
				e.mu.Lock()
				if _, ok := e.saved[m.id]; ok {
					e.saved[m.id] = m.order
				}
				e.mu.Unlock()
			}
			return errors.Join(errs...)
		},
	})
}

// Picker returns a catalog picker bound to the selected day: exercises
// already in it are hidden and a pick adds the exercise to it.
func (e *Engine) Picker(cat *catalog.Catalog) *catalog.Picker {
	return &catalog.Picker{
		Catalog: cat,
		Exclude: func(exerciseID string) bool {
			e.mu.Lock()
			defer e.mu.Unlock()
			for _, id := range e.lists[e.selected] {
				if e.items[id].ExerciseID == exerciseID {
					return true
				}
			}
			return false
		},
		OnPick: func(ex models.Exercise) error {
			_, _, err := e.AddItemToDay("", ex.ID)
			return err
		},
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
