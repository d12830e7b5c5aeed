// ABOUTME: DayItem and Prescription models for exercises placed in a Day.
// ABOUTME: Carries sets/reps/rest, optional weight and notes, and completion state.
package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default prescription applied to newly added items.
const (
	DefaultSeries      = 3
	DefaultRepetitions = "8-12"
	DefaultRestSeconds = 90
)

// Prescription is the sets/reps/rest target for a DayItem.
// Repetitions is free-form ("8-12", "AMRAP", "5").
type Prescription struct {
	Series      float64 `json:"sets" yaml:"sets"`
	Repetitions string  `json:"reps" yaml:"reps"`
	RestSeconds float64 `json:"rest" yaml:"rest"`
}

// DefaultPrescription returns the prescription given to new items.
func DefaultPrescription() Prescription {
	return Prescription{
		Series:      DefaultSeries,
		Repetitions: DefaultRepetitions,
		RestSeconds: DefaultRestSeconds,
	}
}

// Validate checks that series is a finite number > 0, repetitions is not blank,
// and rest is a finite number >= 0.
func (p Prescription) Validate() error {
	if !isFinite(p.Series) || p.Series <= 0 {
		return &ValidationError{Field: "series", Message: "must be a finite number greater than 0"}
	}
	if strings.TrimSpace(p.Repetitions) == "" {
		return &ValidationError{Field: "repetitions", Message: "must not be empty"}
	}
	if !isFinite(p.RestSeconds) || p.RestSeconds < 0 {
		return &ValidationError{Field: "rest_seconds", Message: "must be a finite number of at least 0"}
	}
	return nil
}

// Normalized returns the prescription with repetitions trimmed.
func (p Prescription) Normalized() Prescription {
	p.Repetitions = strings.TrimSpace(p.Repetitions)
	return p
}

// DayItem is one exercise placement within a Day.
// DoneAt is non-nil exactly when Done is true.
type DayItem struct {
	ID           string       `json:"id" yaml:"id"`
	DayID        string       `json:"day_id" yaml:"day_id"`
	ExerciseID   string       `json:"exercise_id" yaml:"exercise_id"`
	SortOrder    int          `json:"sort_order" yaml:"sort_order"`
	Prescription Prescription `json:"prescription" yaml:"prescription"`
	WeightKg     *float64     `json:"weight_kg,omitempty" yaml:"weight_kg,omitempty"`
	Notes        *string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Done         bool         `json:"done" yaml:"done"`
	DoneAt       *time.Time   `json:"done_at,omitempty" yaml:"done_at,omitempty"`
}

// NewDayItem creates an Active item with the default prescription.
func NewDayItem(dayID, exerciseID string, sortOrder int) *DayItem {
	return &DayItem{
		ID:           uuid.NewString(),
		DayID:        dayID,
		ExerciseID:   exerciseID,
		SortOrder:    sortOrder,
		Prescription: DefaultPrescription(),
	}
}

// SetDone moves the item to Done (stamping at) or back to Active.
// Done and DoneAt always change together.
func (it *DayItem) SetDone(done bool, at time.Time) {
	it.Done = done
	if done {
		it.DoneAt = &at
	} else {
		it.DoneAt = nil
	}
}

// Clone returns a deep copy of the item.
func (it DayItem) Clone() DayItem {
	it.WeightKg = clonePtr(it.WeightKg)
	it.Notes = clonePtr(it.Notes)
	it.DoneAt = clonePtr(it.DoneAt)
	return it
}

// ValidateWeight rejects non-finite or negative weights.
func ValidateWeight(kg float64) error {
	if !isFinite(kg) || kg < 0 {
		return &ValidationError{Field: "weight_kg", Message: "must be a finite number of at least 0"}
	}
	return nil
}

// ValidateTitle trims title and rejects it when nothing is left.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", &ValidationError{Field: "title", Message: "must not be empty"}
	}
	return t, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
