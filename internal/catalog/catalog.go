// ABOUTME: Immutable exercise catalog snapshot plus its gateway record codec.
// ABOUTME: Fetches exercises name-ascending and seeds missing entries.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Catalog is a read-only, name-ordered list of exercises.
type Catalog struct {
	exercises []models.Exercise
	byID      map[string]int
}

// New builds a catalog from exercises, sorted by name under Spanish
// collation, so accented initials sort with their base letter.
func New(exercises []models.Exercise) *Catalog {
	sorted := make([]models.Exercise, len(exercises))
	copy(sorted, exercises)
	coll := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(sorted, func(i, j int) bool {
		return coll.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	byID := make(map[string]int, len(sorted))
	for i, ex := range sorted {
		byID[ex.ID] = i
	}
	return &Catalog{exercises: sorted, byID: byID}
}

// Fetch loads the catalog from the gateway's exercises collection.
func Fetch(ctx context.Context, gw gateway.Gateway) (*Catalog, error) {
	recs, err := gw.Read(ctx, gateway.Exercises, nil, gateway.Asc("name"))
	if err != nil {
		return nil, fmt.Errorf("failed to read exercises: %w", err)
	}
	exercises := make([]models.Exercise, len(recs))
	for i, r := range recs {
		exercises[i] = FromRecord(r)
	}
	return New(exercises), nil
}

// All returns the exercises in name order. Callers must not modify it.
func (c *Catalog) All() []models.Exercise {
	return c.exercises
}

// Len returns the number of exercises.
func (c *Catalog) Len() int { return len(c.exercises) }

// Get looks up an exercise by id.
func (c *Catalog) Get(id string) (models.Exercise, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Exercise{}, false
	}
	return c.exercises[i], true
}

// Search filters the catalog and groups the result.
func (c *Catalog) Search(query string) []Group {
	return GroupExercises(Filter(c.exercises, query))
}

// Seed creates every exercise not already present in the gateway and returns
// how many were created.
func Seed(ctx context.Context, gw gateway.Gateway, exercises []models.Exercise) (int, error) {
	existing, err := gw.Read(ctx, gateway.Exercises, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read exercises: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		have[r.ID()] = true
	}

	created := 0
	for _, ex := range exercises {
		if have[ex.ID] {
			continue
		}
		if _, err := gw.Create(ctx, gateway.Exercises, ToRecord(ex)); err != nil {
			return created, fmt.Errorf("failed to create exercise %s: %w", ex.ID, err)
		}
		have[ex.ID] = true
		created++
	}
	return created, nil
}

// ToRecord encodes an exercise for the exercises collection.
func ToRecord(ex models.Exercise) gateway.Record {
	return gateway.Record{
		"id":             ex.ID,
		"name":           ex.Name,
		"primary_muscle": nullable(ex.PrimaryMuscle),
		"equipment":      nullable(ex.Equipment),
		"category":       nullable(ex.Category),
		"media_url":      nullable(ex.MediaURL),
		"description":    nullable(ex.Description),
	}
}

// FromRecord decodes an exercises collection record.
func FromRecord(r gateway.Record) models.Exercise {
	return models.Exercise{
		ID:            r.ID(),
		Name:          r.String("name"),
		PrimaryMuscle: r.StringPtr("primary_muscle"),
		Equipment:     r.StringPtr("equipment"),
		Category:      r.StringPtr("category"),
		MediaURL:      r.StringPtr("media_url"),
		Description:   r.StringPtr("description"),
	}
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
