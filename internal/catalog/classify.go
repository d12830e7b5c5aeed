// ABOUTME: Muscle-group classification of free-text muscle descriptions.
// ABOUTME: Ordered substring rules map text to a fixed Spanish taxonomy.

// Package catalog holds the read-only exercise catalog and the pure engines
// that classify, filter, and group it for the picker.
package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Label is a canonical muscle-group name.
type Label string

const (
	Chest      Label = "Pecho"
	Back       Label = "Espalda"
	Shoulders  Label = "Hombros"
	Biceps     Label = "Bíceps"
	Triceps    Label = "Tríceps"
	Core       Label = "Core"
	Quadriceps Label = "Cuádriceps"
	Hamstrings Label = "Isquios"
	Glutes     Label = "Glúteos"
	Calves     Label = "Gemelos"
	Adductors  Label = "Aductores"
	Legs       Label = "Piernas"
	Other      Label = "Otros"
)

// UnknownRank is the rank of any label outside the taxonomy.
const UnknownRank = 999

// taxonomy is the canonical display order. Other is always last.
var taxonomy = []Label{
	Chest, Back, Shoulders, Biceps, Triceps, Core,
	Quadriceps, Hamstrings, Glutes, Calves, Adductors, Legs,
	Other,
}

type rule struct {
	label Label
	subs  []string
}

// rules are evaluated in order and the first hit wins. Legs must come after
// every narrower leg bucket.
var rules = []rule{
	{Chest, []string{"pecho", "pector"}},
	{Back, []string{"espalda"}},
	{Shoulders, []string{"homb"}},
	{Biceps, []string{"bíceps", "biceps"}},
	{Triceps, []string{"tríceps", "triceps"}},
	{Core, []string{"core"}},
	{Quadriceps, []string{"cuádr", "cuadr"}},
	{Hamstrings, []string{"isqu"}},
	{Glutes, []string{"glút", "glut"}},
	{Calves, []string{"gemel"}},
	{Adductors, []string{"aductor"}},
	{Legs, []string{"pierna"}},
}

// Labels returns the taxonomy in display order.
func Labels() []Label {
	out := make([]Label, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Classify maps a muscle description to its group label. Blank text is Other.
func Classify(muscleText string) Label {
	m := fold(muscleText)
	if m == "" {
		return Other
	}
	for _, r := range rules {
		for _, s := range r.subs {
			if strings.Contains(m, s) {
				return r.label
			}
		}
	}
	return Other
}

// GroupOrder returns the label's position in the taxonomy, or UnknownRank.
func GroupOrder(label Label) int {
	for i, l := range taxonomy {
		if l == label {
			return i
		}
	}
	return UnknownRank
}

// fold composes accents and lowercases so "BÍCEPS" and "bíceps" match.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// Meta is display metadata for a group.
type Meta struct {
	Emoji string
}

// fallbackEmoji is shown for labels without metadata.
const fallbackEmoji = "🏷️"

var groupMeta = map[Label]Meta{
	Chest:      {Emoji: "🫁"},
	Back:       {Emoji: "🧱"},
	Shoulders:  {Emoji: "🧩"},
	Biceps:     {Emoji: "💪"},
	Triceps:    {Emoji: "🔧"},
	Core:       {Emoji: "⚡"},
	Quadriceps: {Emoji: "🦵"},
	Hamstrings: {Emoji: "🏃"},
	Glutes:     {Emoji: "🍑"},
	Calves:     {Emoji: "🦶"},
	Adductors:  {Emoji: "🧲"},
	Legs:       {Emoji: "🦿"},
	Other:      {Emoji: "📦"},
}

// MetaFor returns display metadata for label.
func MetaFor(label Label) Meta {
	if m, ok := groupMeta[label]; ok {
		return m
	}
	return Meta{Emoji: fallbackEmoji}
}
