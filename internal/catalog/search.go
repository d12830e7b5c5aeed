// ABOUTME: Free-text filtering and muscle-group bucketing of catalog entries.
// ABOUTME: Pure functions; they never mutate their input slices.
package catalog

import (
	"sort"
	"strings"

	"github.com/harperreed/lift/internal/models"
)

// Group is one muscle-group bucket of exercises in catalog order.
type Group struct {
	Label     Label
	Rank      int
	Exercises []models.Exercise
}

// Filter returns exercises whose name, muscle, equipment, or category text
// contains query. A blank query returns exercises itself.
func Filter(exercises []models.Exercise, query string) []models.Exercise {
	q := fold(query)
	if q == "" {
		return exercises
	}
	var out []models.Exercise
	for _, ex := range exercises {
		if strings.Contains(searchBlob(ex), q) {
			out = append(out, ex)
		}
	}
	return out
}

func searchBlob(ex models.Exercise) string {
	return fold(ex.Name + " " + ex.Muscle() + " " + ex.EquipmentText() + " " + ex.CategoryText())
}

// GroupExercises buckets exercises by Classify(primary muscle) and orders the
// buckets by (rank, label).
func GroupExercises(exercises []models.Exercise) []Group {
	index := make(map[Label]int)
	var groups []Group
	for _, ex := range exercises {
		label := Classify(ex.Muscle())
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label, Rank: GroupOrder(label)})
		}
		groups[i].Exercises = append(groups[i].Exercises, ex)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Rank != groups[j].Rank {
			return groups[i].Rank < groups[j].Rank
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}
