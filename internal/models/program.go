// ABOUTME: Program and Day models for multi-day workout programs.
// ABOUTME: Programs own Days; Days are ordered by a creation-time dayIndex.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Program is a named, user-owned workout plan.
type Program struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Notes     *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewProgram creates a new Program with generated ID and current timestamp.
// The title is stored trimmed; callers validate it with ValidateTitle first.
func NewProgram(title string) *Program {
	return &Program{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		CreatedAt: time.Now(),
	}
}

// WithNotes sets notes on the program.
func (p *Program) WithNotes(notes string) *Program {
	p.Notes = &notes
	return p
}

// WithCreatedAt sets a custom creation timestamp.
func (p *Program) WithCreatedAt(t time.Time) *Program {
	p.CreatedAt = t
	return p
}

// Clone returns a deep copy of the program.
func (p Program) Clone() Program {
	p.Notes = clonePtr(p.Notes)
	return p
}

// Day is one training-session template inside a Program.
type Day struct {
	ID        string  `json:"id" yaml:"id"`
	ProgramID string  `json:"program_id" yaml:"program_id"`
	DayIndex  int     `json:"day_index" yaml:"day_index"`
	Title     string  `json:"title" yaml:"title"`
	Notes     *string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewDay creates a new Day under programID at the given index.
func NewDay(programID string, dayIndex int, title string) *Day {
	return &Day{
		ID:        uuid.NewString(),
		ProgramID: programID,
		DayIndex:  dayIndex,
		Title:     strings.TrimSpace(title),
	}
}

// Clone returns a deep copy of the day.
func (d Day) Clone() Day {
	d.Notes = clonePtr(d.Notes)
	return d
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
