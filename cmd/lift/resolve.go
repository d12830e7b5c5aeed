// ABOUTME: ID prefix resolution and shared output helpers for lift commands.
// ABOUTME: Resolves programs, days, and items from short references.
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/models"
)

// resolveProgram finds a program by full ID or unique prefix and loads its
// days and items.
func resolveProgram(ctx context.Context, ref string) (models.Program, error) {
	if err := engine.LoadPrograms(ctx); err != nil {
		return models.Program{}, fmt.Errorf("failed to list programs: %w", err)
	}

	var matches []models.Program
	for _, p := range engine.Programs() {
		if p.ID == ref {
			matches = []models.Program{p}
			break
		}
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return models.Program{}, &models.NotFoundError{Entity: "program", ID: ref}
	case 1:
		return engine.OpenProgram(ctx, matches[0].ID)
	default:
		return models.Program{}, fmt.Errorf("ambiguous program prefix %q matches %d programs", ref, len(matches))
	}
}

// resolveDay finds a day of programID by day number or ID prefix.
func resolveDay(programID, ref string) (models.Day, error) {
	days := engine.Days(programID)
	if n, err := strconv.Atoi(ref); err == nil {
		for _, d := range days {
			if d.DayIndex == n {
				return d, nil
			}
		}
	}

	var matches []models.Day
	for _, d := range days {
		if d.ID == ref {
			return d, nil
		}
		if strings.HasPrefix(d.ID, ref) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return models.Day{}, &models.NotFoundError{Entity: "day", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return models.Day{}, fmt.Errorf("ambiguous day prefix %q matches %d days", ref, len(matches))
	}
}

// resolveItem finds an item of programID by ID prefix or exercise ID.
func resolveItem(programID, ref string) (models.DayItem, error) {
	var matches []models.DayItem
	for _, d := range engine.Days(programID) {
		for _, it := range engine.Items(d.ID) {
			if it.ID == ref {
				return it, nil
			}
			if strings.HasPrefix(it.ID, ref) || it.ExerciseID == ref {
				matches = append(matches, it)
			}
		}
	}
	switch len(matches) {
	case 0:
		return models.DayItem{}, &models.NotFoundError{Entity: "item", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return models.DayItem{}, fmt.Errorf("ambiguous item reference %q matches %d items", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

// prescriptionLine renders "3 × 8-12 · 90s" plus weight when set.
func prescriptionLine(it models.DayItem) string {
	rx := it.Prescription
	line := fmt.Sprintf("%g × %s · %gs", rx.Series, rx.Repetitions, rx.RestSeconds)
	if it.WeightKg != nil {
		line += fmt.Sprintf(" · %g kg", *it.WeightKg)
	}
	return line
}

// exerciseName falls back to the exercise ID when the catalog lacks it.
func exerciseName(cat *catalog.Catalog, id string) string {
	if cat != nil {
		if ex, ok := cat.Get(id); ok {
			return ex.Name
		}
	}
	return id
}

var (
	faint  = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)
