// ABOUTME: Program commands: create, rename, notes, delete, and loading from the gateway.
// ABOUTME: Deletion snapshots the program subtree and restores it on rejection.
package compose

import (
	"context"
	"strings"

	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
)

// CreateProgram inserts a program locally and persists it.
func (e *Engine) CreateProgram(title string) (models.Program, *Op, error) {
	t, err := models.ValidateTitle(title)
	if err != nil {
		return models.Program{}, nil, err
	}

	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return models.Program{}, nil, err
	}

	p := models.NewProgram(t).WithCreatedAt(e.now())
	e.programs[p.ID] = p
	e.emit(Event{Kind: ProgramsChanged, ProgramID: p.ID})

	rec := ProgramRecord(*p, e.owner)
	id := p.ID
	op := e.issue(task{
		name: "create_program",
		keys: []string{programLane(id)},
		run: func(ctx context.Context) error {
			_, err := e.gw.Create(ctx, gateway.Programs, rec)
			return err
		},
		onFailure: func(error) {
			e.dead[programLane(id)] = true
			e.removeProgramLocal(id)
		},
	})
	return p.Clone(), op, nil
}

// RenameProgram changes a program's title.
func (e *Engine) RenameProgram(id, title string) (*Op, error) {
	t, err := models.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	return e.patchProgram(id, "title", t, "rename_program")
}

// UpdateProgramNotes replaces a program's notes. Blank notes clear them.
func (e *Engine) UpdateProgramNotes(id, notes string) (*Op, error) {
	var v any
	if n := strings.TrimSpace(notes); n != "" {
		v = n
	}
	return e.patchProgram(id, "notes", v, "update_program_notes")
}

func (e *Engine) patchProgram(id, field string, value any, name string) (*Op, error) {
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	p, ok := e.programs[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "program", ID: id}
	}

	key := fieldKey("program", id, field)
	tok := e.claim(key, programField(p, field))
	setProgramField(p, field, value)
	e.emit(Event{Kind: ProgramsChanged, ProgramID: id})

	patch := gateway.Record{field: value}
	return e.issue(task{
		name: name,
		keys: []string{programLane(id)},
		run: func(ctx context.Context) error {
			_, err := e.gw.Update(ctx, gateway.Programs, id, patch)
			return err
		},
		onSuccess: func() { e.confirm(key, value) },
		onFailure: func(error) {
			prev, ok := e.revertTo(key, tok)
			if !ok {
				return
			}
			if p, exists := e.programs[id]; exists {
				setProgramField(p, field, prev)
				e.emit(Event{Kind: ProgramsChanged, ProgramID: id})
			}
		},
	}), nil
}

func programField(p *models.Program, field string) any {
	if field == "title" {
		return p.Title
	}
	return orNil(p.Notes)
}

func setProgramField(p *models.Program, field string, v any) {
	if field == "title" {
		p.Title, _ = v.(string)
		return
	}
	if s, ok := v.(string); ok {
		p.Notes = &s
	} else {
		p.Notes = nil
	}
}

type programSnapshot struct {
	program  models.Program
	days     []models.Day
	items    map[string][]models.DayItem
	revs     map[string]uint64
	saved    map[string]int
	selected string
}

// DeleteProgram removes a program and its subtree locally and deletes it in
// the backend, which cascades to days and items.
func (e *Engine) DeleteProgram(id string) (*Op, error) {
	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	p, ok := e.programs[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "program", ID: id}
	}

	snap := programSnapshot{
		program:  p.Clone(),
		items:    make(map[string][]models.DayItem),
		revs:     make(map[string]uint64),
		saved:    make(map[string]int),
		selected: e.selected,
	}
	keys := []string{programLane(id)}
	for _, d := range e.daysOf(id) {
		snap.days = append(snap.days, d.Clone())
		for _, itemID := range e.lists[d.ID] {
			snap.items[d.ID] = append(snap.items[d.ID], e.items[itemID].Clone())
			if n, ok := e.saved[itemID]; ok {
				snap.saved[itemID] = n
			}
		}
		snap.revs[d.ID] = e.revs[d.ID]
		keys = append(keys, dayLane(d.ID))
	}

	e.removeProgramLocal(id)

	return e.issue(task{
		name: "delete_program",
		keys: keys,
		run: func(ctx context.Context) error {
			e.mu.Lock()
			skip := e.dead[programLane(id)]
			e.mu.Unlock()
			if skip {
				return nil
			}
			return e.gw.Delete(ctx, gateway.Programs, id)
		},
		onFailure: func(error) { e.restoreProgram(snap) },
	}), nil
}

// removeProgramLocal drops a program and everything under it. Callers hold e.mu.
func (e *Engine) removeProgramLocal(id string) {
	if _, ok := e.programs[id]; !ok {
		return
	}
	for _, d := range e.daysOf(id) {
		e.dropDay(d.ID)
	}
	delete(e.programs, id)
	e.dropGuards("program", id, "title", "notes")
	e.emit(Event{Kind: ProgramsChanged, ProgramID: id})
	e.emit(Event{Kind: DaysChanged, ProgramID: id})
}

func (e *Engine) restoreProgram(snap programSnapshot) {
	id := snap.program.ID
	if _, exists := e.programs[id]; exists {
		return
	}
	p := snap.program.Clone()
	e.programs[id] = &p
	for _, d := range snap.days {
		day := d.Clone()
		e.days[day.ID] = &day
		ids := make([]string, 0, len(snap.items[day.ID]))
		for _, it := range snap.items[day.ID] {
			item := it.Clone()
			e.items[item.ID] = &item
			if n, ok := snap.saved[item.ID]; ok {
				e.saved[item.ID] = n
			}
			ids = append(ids, item.ID)
		}
		e.lists[day.ID] = ids
		e.revs[day.ID] = snap.revs[day.ID] + 1
	}
	if e.selected == "" && snap.selected != "" {
		if _, ok := e.days[snap.selected]; ok {
			e.selected = snap.selected
			e.emit(Event{Kind: SelectionChanged, DayID: snap.selected})
		}
	}
	e.emit(Event{Kind: ProgramsChanged, ProgramID: id})
	e.emit(Event{Kind: DaysChanged, ProgramID: id})
}

// LoadPrograms replaces the program list with the backend's. Programs with
// calls in flight or issued during the read keep their local state.
func (e *Engine) LoadPrograms(ctx context.Context) error {
	e.mu.Lock()
	mark := e.lanes.mark()
	e.mu.Unlock()

	recs, err := e.gw.Read(ctx, gateway.Programs, e.ownerFilters(), gateway.Asc("created_at"))
	if err != nil {
		return &models.PersistenceError{Op: "load_programs", Err: err}
	}

	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return err
	}

	loaded := make(map[string]bool, len(recs))
	for _, r := range recs {
		p := ProgramFromRecord(r)
		loaded[p.ID] = true
		e.mergeProgram(p, mark)
	}
	for id := range e.programs {
		if !loaded[id] && e.lanes.quietSince(programLane(id), mark) {
			e.removeProgramLocal(id)
		}
	}
	e.emit(Event{Kind: ProgramsChanged})
	return nil
}

// mergeProgram installs a loaded program unless its lane has moved since
// the read began. Callers hold e.mu.
func (e *Engine) mergeProgram(p models.Program, mark laneMark) {
	if !e.lanes.quietSince(programLane(p.ID), mark) {
		return
	}
	e.resetGuard(fieldKey("program", p.ID, "title"), p.Title)
	e.resetGuard(fieldKey("program", p.ID, "notes"), orNil(p.Notes))
	e.programs[p.ID] = &p
}

// OpenProgram loads a program with its days and items. A missing program is
// a NotFoundError and leaves local state untouched. The first day is
// selected when nothing is.
func (e *Engine) OpenProgram(ctx context.Context, id string) (models.Program, error) {
	e.mu.Lock()
	mark := e.lanes.mark()
	e.mu.Unlock()

	filters := append([]gateway.Filter{gateway.Eq("id", id)}, e.ownerFilters()...)
	recs, err := e.gw.Read(ctx, gateway.Programs, filters, nil)
	if err != nil {
		return models.Program{}, &models.PersistenceError{Op: "open_program", Err: err}
	}
	if len(recs) == 0 {
		return models.Program{}, &models.NotFoundError{Entity: "program", ID: id}
	}
	program := ProgramFromRecord(recs[0])

	dayRecs, err := e.gw.Read(ctx, gateway.Days, []gateway.Filter{gateway.Eq("program_id", id)}, gateway.Asc("day_index"))
	if err != nil {
		return models.Program{}, &models.PersistenceError{Op: "open_program", Err: err}
	}
	dayIDs := make([]string, len(dayRecs))
	for i, r := range dayRecs {
		dayIDs[i] = r.ID()
	}

	var itemRecs []gateway.Record
	if len(dayIDs) > 0 {
		itemRecs, err = e.gw.Read(ctx, gateway.DayItems, []gateway.Filter{gateway.InStrings("program_day_id", dayIDs)}, gateway.Asc("sort_order"))
		if err != nil {
			return models.Program{}, &models.PersistenceError{Op: "open_program", Err: err}
		}
	}

	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return models.Program{}, err
	}

	e.mergeProgram(program, mark)

	byDay := make(map[string][]models.DayItem, len(dayIDs))
	for _, r := range itemRecs {
		it := ItemFromRecord(r)
		byDay[it.DayID] = append(byDay[it.DayID], it)
	}

	loaded := make(map[string]bool, len(dayRecs))
	for _, r := range dayRecs {
		d := DayFromRecord(r)
		loaded[d.ID] = true
		if !e.lanes.quietSince(dayLane(d.ID), mark) {
			continue
		}
		e.days[d.ID] = &d
		e.replaceItems(d.ID, byDay[d.ID])
	}
	for _, d := range e.daysOf(id) {
		if !loaded[d.ID] && e.lanes.quietSince(dayLane(d.ID), mark) {
			e.dropDay(d.ID)
		}
	}

	if _, ok := e.days[e.selected]; !ok {
		if days := e.daysOf(id); len(days) > 0 {
			e.selected = days[0].ID
			e.emit(Event{Kind: SelectionChanged, DayID: e.selected})
		}
	}

	e.emit(Event{Kind: ProgramsChanged, ProgramID: id})
	e.emit(Event{Kind: DaysChanged, ProgramID: id})

	p, ok := e.programs[id]
	if !ok {
		return program, nil
	}
	return p.Clone(), nil
}

// replaceItems installs a day's persisted items. Lists whose stored sort
// order drifted from 1..N are renumbered and the new order is written back.
// Callers hold e.mu.
func (e *Engine) replaceItems(dayID string, items []models.DayItem) {
	for _, id := range e.lists[dayID] {
		e.dropItem(id)
	}

	ids := make([]string, len(items))
	drifted := false
	for i := range items {
		it := items[i]
		e.saved[it.ID] = it.SortOrder
		if it.SortOrder != i+1 {
			drifted = true
			it.SortOrder = i + 1
		}
		e.items[it.ID] = &it
		ids[i] = it.ID
		e.resetItemGuards(&it)
	}
	e.lists[dayID] = ids
	e.revs[dayID]++
	e.emit(Event{Kind: ItemsChanged, DayID: dayID})

	if drifted {
		e.log.Info("renumbered drifted items", "day", dayID, "items", len(ids))
		e.syncOrder(dayID)
	}
}

func (e *Engine) resetItemGuards(it *models.DayItem) {
	e.resetGuard(fieldKey("item", it.ID, "prescription"), it.Prescription)
	e.resetGuard(fieldKey("item", it.ID, "weight_kg"), it.WeightKg)
	e.resetGuard(fieldKey("item", it.ID, "notes"), it.Notes)
	e.resetGuard(fieldKey("item", it.ID, "done"), doneState{done: it.Done, at: it.DoneAt})
}
