// ABOUTME: Text helpers for presenting catalog groups and entries.
// ABOUTME: Two-letter initials badges, URL presence, and a grouped text tree.
package catalog

import (
	"fmt"
	"strings"
)

// Initials returns an upper-case two-letter badge for text, or "--" if blank.
// Multi-word text uses the first letter of the first two words.
func Initials(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return "--"
	}
	parts := strings.Fields(t)
	a := []rune(parts[0])[0]
	var b []rune
	if len(parts) > 1 {
		b = []rune(parts[1])[:1]
	} else if r := []rune(t); len(r) > 1 {
		b = r[1:2]
	}
	return strings.ToUpper(string(a) + string(b))
}

// HasURL reports whether u is a non-blank string.
func HasURL(u string) bool {
	return strings.TrimSpace(u) != ""
}

// Render draws groups as an indented text tree.
func Render(groups []Group) string {
	var sb strings.Builder
	for i, g := range groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s (%d)\n", MetaFor(g.Label).Emoji, g.Label, len(g.Exercises))
		for _, ex := range g.Exercises {
			fmt.Fprintf(&sb, "  [%s] %s", Initials(ex.Name), ex.Name)
			if details := detailLine(ex.EquipmentText(), ex.CategoryText()); details != "" {
				fmt.Fprintf(&sb, " · %s", details)
			}
			if HasURL(ex.Media()) {
				sb.WriteString(" ▶")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func detailLine(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
