// ABOUTME: Catalog picker boundary used by the "add exercise" flow.
// ABOUTME: Hides exercises already in the target day and forwards picks.
package catalog

import (
	"github.com/harperreed/lift/internal/models"
)

// DefaultLimit caps how many filtered exercises a picker lists.
const DefaultLimit = 400

// Picker presents the catalog for one target day.
type Picker struct {
	Catalog *Catalog
	// Exclude reports whether an exercise id is already in the target day.
	Exclude func(exerciseID string) bool
	// OnPick receives the chosen exercise.
	OnPick func(models.Exercise) error
	// Limit caps filtered results before exclusion. Zero means DefaultLimit.
	Limit int
}

// ExcludeIDs returns an Exclude func backed by a fixed id set.
func ExcludeIDs(ids ...string) func(string) bool {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}

// Groups filters the catalog by query and returns the non-empty groups of
// selectable exercises.
func (p *Picker) Groups(query string) []Group {
	if p.Catalog == nil {
		return nil
	}
	filtered := Filter(p.Catalog.All(), query)
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	visible := make([]models.Exercise, 0, len(filtered))
	for _, ex := range filtered {
		if p.excluded(ex.ID) {
			continue
		}
		visible = append(visible, ex)
	}
	return GroupExercises(visible)
}

// Pick hands the exercise to OnPick. Unknown ids are NotFound and excluded
// ids are a StateError.
func (p *Picker) Pick(exerciseID string) error {
	if p.Catalog == nil {
		return &models.NotFoundError{Entity: "exercise", ID: exerciseID}
	}
	ex, ok := p.Catalog.Get(exerciseID)
	if !ok {
		return &models.NotFoundError{Entity: "exercise", ID: exerciseID}
	}
	if p.excluded(exerciseID) {
		return &models.StateError{Message: "exercise already in day: " + ex.Name}
	}
	if p.OnPick == nil {
		return nil
	}
	return p.OnPick(ex)
}

func (p *Picker) excluded(id string) bool {
	return p.Exclude != nil && p.Exclude(id)
}
