// ABOUTME: Conversion between domain models and gateway records.
// ABOUTME: Timestamps travel as RFC 3339 text; prescriptions as a nested object.
package compose

import (
	"time"

	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
)

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"}

// ProgramRecord encodes a program. A non-empty owner is stamped as user_id.
func ProgramRecord(p models.Program, owner string) gateway.Record {
	r := gateway.Record{
		"id":         p.ID,
		"title":      p.Title,
		"notes":      orNil(p.Notes),
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if owner != "" {
		r["user_id"] = owner
	}
	return r
}

// ProgramFromRecord decodes a programs record.
func ProgramFromRecord(r gateway.Record) models.Program {
	p := models.Program{
		ID:    r.ID(),
		Title: r.String("title"),
		Notes: r.StringPtr("notes"),
	}
	if t := parseTime(r["created_at"]); t != nil {
		p.CreatedAt = *t
	}
	return p
}

// DayRecord encodes a day.
func DayRecord(d models.Day) gateway.Record {
	return gateway.Record{
		"id":         d.ID,
		"program_id": d.ProgramID,
		"day_index":  d.DayIndex,
		"title":      d.Title,
		"notes":      orNil(d.Notes),
	}
}

// DayFromRecord decodes a program_days record.
func DayFromRecord(r gateway.Record) models.Day {
	return models.Day{
		ID:        r.ID(),
		ProgramID: r.String("program_id"),
		DayIndex:  r.Int("day_index"),
		Title:     r.String("title"),
		Notes:     r.StringPtr("notes"),
	}
}

// ItemRecord encodes a day item.
func ItemRecord(it models.DayItem) gateway.Record {
	return gateway.Record{
		"id":             it.ID,
		"program_day_id": it.DayID,
		"exercise_id":    it.ExerciseID,
		"sort_order":     it.SortOrder,
		"prescription":   prescriptionMap(it.Prescription),
		"weight_kg":      orNil(it.WeightKg),
		"notes":          orNil(it.Notes),
		"done":           it.Done,
		"done_at":        timeOrNil(it.DoneAt),
	}
}

// ItemFromRecord decodes a program_day_items record.
func ItemFromRecord(r gateway.Record) models.DayItem {
	it := models.DayItem{
		ID:           r.ID(),
		DayID:        r.String("program_day_id"),
		ExerciseID:   r.String("exercise_id"),
		SortOrder:    r.Int("sort_order"),
		Prescription: prescriptionFromMap(r.Map("prescription")),
		WeightKg:     r.FloatPtr("weight_kg"),
		Notes:        r.StringPtr("notes"),
		Done:         r.Bool("done"),
	}
	if it.Done {
		it.DoneAt = parseTime(r["done_at"])
		if it.DoneAt == nil {
			// keep done/done_at paired even for rows written without a stamp
			zero := time.Time{}
			it.DoneAt = &zero
		}
	}
	return it
}

func prescriptionMap(p models.Prescription) map[string]any {
	return map[string]any{
		"sets": p.Series,
		"reps": p.Repetitions,
		"rest": p.RestSeconds,
	}
}

func prescriptionFromMap(m map[string]any) models.Prescription {
	p := models.DefaultPrescription()
	if m == nil {
		return p
	}
	r := gateway.Record(m)
	if _, ok := m["sets"]; ok {
		p.Series = r.Float("sets")
	}
	if s, ok := m["reps"].(string); ok {
		p.Repetitions = s
	}
	if _, ok := m["rest"]; ok {
		p.RestSeconds = r.Float("rest")
	}
	return p
}

func parseTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func orNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
