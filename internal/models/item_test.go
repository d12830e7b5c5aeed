// ABOUTME: Tests for Program, Day, DayItem, and Prescription models.
// ABOUTME: Validates constructors, validation rules, and the done/doneAt pairing.
package models

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func TestNewProgram(t *testing.T) {
	p := NewProgram("  Push Pull Legs ")

	if p.ID == "" {
		t.Error("expected ID to be set")
	}
	if p.Title != "Push Pull Legs" {
		t.Errorf("Title = %q, want %q", p.Title, "Push Pull Legs")
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestProgramWithNotes(t *testing.T) {
	p := NewProgram("Full body").WithNotes("3x per week")

	if p.Notes == nil || *p.Notes != "3x per week" {
		t.Error("expected Notes to be '3x per week'")
	}
}

func TestNewDayItemDefaults(t *testing.T) {
	it := NewDayItem("day-1", "ex-1", 4)

	if it.DayID != "day-1" || it.ExerciseID != "ex-1" {
		t.Errorf("unexpected ownership: %+v", it)
	}
	if it.SortOrder != 4 {
		t.Errorf("SortOrder = %d, want 4", it.SortOrder)
	}
	want := Prescription{Series: 3, Repetitions: "8-12", RestSeconds: 90}
	if it.Prescription != want {
		t.Errorf("Prescription = %+v, want %+v", it.Prescription, want)
	}
	if it.WeightKg != nil || it.Notes != nil {
		t.Error("expected WeightKg and Notes to be nil")
	}
	if it.Done || it.DoneAt != nil {
		t.Error("expected new item to be Active")
	}
}

func TestSetDonePairsDoneAt(t *testing.T) {
	it := NewDayItem("d", "e", 1)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	it.SetDone(true, at)
	if !it.Done || it.DoneAt == nil || !it.DoneAt.Equal(at) {
		t.Fatalf("after SetDone(true): done=%v doneAt=%v", it.Done, it.DoneAt)
	}

	it.SetDone(false, at)
	if it.Done || it.DoneAt != nil {
		t.Fatalf("after SetDone(false): done=%v doneAt=%v", it.Done, it.DoneAt)
	}
}

func TestPrescriptionValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Prescription
		field   string
		wantErr bool
	}{
		{"default", DefaultPrescription(), "", false},
		{"zero rest", Prescription{Series: 5, Repetitions: "5", RestSeconds: 0}, "", false},
		{"zero series", Prescription{Series: 0, Repetitions: "5", RestSeconds: 60}, "series", true},
		{"negative series", Prescription{Series: -1, Repetitions: "5", RestSeconds: 60}, "series", true},
		{"NaN series", Prescription{Series: math.NaN(), Repetitions: "5", RestSeconds: 60}, "series", true},
		{"inf series", Prescription{Series: math.Inf(1), Repetitions: "5", RestSeconds: 60}, "series", true},
		{"blank reps", Prescription{Series: 3, Repetitions: "   ", RestSeconds: 60}, "repetitions", true},
		{"negative rest", Prescription{Series: 3, Repetitions: "5", RestSeconds: -5}, "rest_seconds", true},
		{"inf rest", Prescription{Series: 3, Repetitions: "5", RestSeconds: math.Inf(1)}, "rest_seconds", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			ve := err.(*ValidationError)
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("  Día A ")
	if err != nil {
		t.Fatalf("ValidateTitle failed: %v", err)
	}
	if got != "Día A" {
		t.Errorf("ValidateTitle = %q, want %q", got, "Día A")
	}

	if _, err := ValidateTitle(" \t "); !IsValidation(err) {
		t.Errorf("expected ValidationError for blank title, got %v", err)
	}
}

func TestValidateWeight(t *testing.T) {
	if err := ValidateWeight(82.5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateWeight(-1); err == nil {
		t.Error("expected error for negative weight")
	}
	if err := ValidateWeight(math.NaN()); err == nil {
		t.Error("expected error for NaN weight")
	}
}

func TestDayItemCloneIsDeep(t *testing.T) {
	it := NewDayItem("d", "e", 1)
	w := 40.0
	it.WeightKg = &w

	c := it.Clone()
	*c.WeightKg = 50

	if *it.WeightKg != 40 {
		t.Error("Clone shared the WeightKg pointer")
	}
}

func TestNullable(t *testing.T) {
	var zero Nullable[float64]
	if zero.IsSet() {
		t.Error("zero value should not be set")
	}

	s := Set(12.5)
	if !s.IsSet() || s.Ptr() == nil || *s.Ptr() != 12.5 {
		t.Error("Set(12.5) should carry 12.5")
	}

	n := Null[string]()
	if !n.IsSet() || n.Ptr() != nil {
		t.Error("Null should be set with nil value")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{&ValidationError{Field: "title", Message: "must not be empty"}, KindValidation},
		{&StateError{Message: "no day selected"}, KindState},
		{&PersistenceError{Op: "create", Err: fmt.Errorf("boom")}, KindPersistence},
		{&NotFoundError{Entity: "program", ID: "x"}, KindNotFound},
		{fmt.Errorf("wrapped: %w", &StateError{Message: "x"}), KindState},
		{fmt.Errorf("plain"), ""},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.kind)
		}
	}
}

func TestPersistenceErrorIsVerbatim(t *testing.T) {
	err := &PersistenceError{Op: "delete", Err: fmt.Errorf("row is locked")}
	if err.Error() != "row is locked" {
		t.Errorf("Error() = %q, want %q", err.Error(), "row is locked")
	}
}
