// ABOUTME: Day commands: create under a program, select, and title suggestion.
// ABOUTME: dayIndex is assigned once at creation and never reassigned.
package compose

import (
	"context"
	"fmt"

	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
)

// CreateDay appends a day to a program with dayIndex one past the highest
// existing index. The new day becomes selected when no day is.
func (e *Engine) CreateDay(programID, title string) (models.Day, *Op, error) {
	t, err := models.ValidateTitle(title)
	if err != nil {
		return models.Day{}, nil, err
	}

	e.mu.Lock()
	defer e.unlock()
	if err := e.checkOpen(); err != nil {
		return models.Day{}, nil, err
	}
	if _, ok := e.programs[programID]; !ok {
		return models.Day{}, nil, &models.NotFoundError{Entity: "program", ID: programID}
	}

	next := 1
	for _, d := range e.daysOf(programID) {
		if d.DayIndex >= next {
			next = d.DayIndex + 1
		}
	}

	d := models.NewDay(programID, next, t)
	e.days[d.ID] = d
	e.lists[d.ID] = nil
	e.emit(Event{Kind: DaysChanged, ProgramID: programID, DayID: d.ID})
	if e.selected == "" {
		e.selected = d.ID
		e.emit(Event{Kind: SelectionChanged, DayID: d.ID})
	}

	rec := DayRecord(*d)
	id := d.ID
	op := e.issue(task{
		name: "create_day",
		keys: []string{programLane(programID), dayLane(id)},
		run: func(ctx context.Context) error {
			e.mu.Lock()
			parentDead := e.dead[programLane(programID)]
			e.mu.Unlock()
			if parentDead {
				return ErrParentRejected
			}
			_, err := e.gw.Create(ctx, gateway.Days, rec)
			return err
		},
		onFailure: func(error) {
			e.dead[dayLane(id)] = true
			if _, ok := e.days[id]; ok {
				e.dropDay(id)
				e.emit(Event{Kind: DaysChanged, ProgramID: programID, DayID: id})
			}
		},
	})
	return d.Clone(), op, nil
}

// SelectDay points add-operations at dayID. An empty id clears the selection.
func (e *Engine) SelectDay(dayID string) error {
	e.mu.Lock()
	defer e.unlock()
	if dayID != "" {
		if _, ok := e.days[dayID]; !ok {
			return &models.NotFoundError{Entity: "day", ID: dayID}
		}
	}
	if e.selected != dayID {
		e.selected = dayID
		e.emit(Event{Kind: SelectionChanged, DayID: dayID})
	}
	return nil
}

// SuggestDayTitle proposes a title for the program's next day: "Día A",
// "Día B", and so on, then "Día 27" onwards.
func (e *Engine) SuggestDayTitle(programID string) string {
	e.mu.Lock()
	n := len(e.daysOf(programID))
	e.mu.Unlock()
	if n < 26 {
		return fmt.Sprintf("Día %c", 'A'+n)
	}
	return fmt.Sprintf("Día %d", n+1)
}
