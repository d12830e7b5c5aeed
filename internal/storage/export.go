// ABOUTME: Export and import of programs, days, items and the exercise catalog.
// ABOUTME: Works against any gateway; supports JSON, YAML, and Markdown output.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/compose"
	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for lift data.
type ExportData struct {
	Version    string            `json:"version" yaml:"version"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
	Tool       string            `json:"tool" yaml:"tool"`
	Exercises  []models.Exercise `json:"exercises" yaml:"exercises"`
	Programs   []ProgramExport   `json:"programs" yaml:"programs"`
}

// ProgramExport is a program with its days nested inside.
type ProgramExport struct {
	models.Program `yaml:",inline"`
	UserID         string      `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Days           []DayExport `json:"days" yaml:"days"`
}

// DayExport is a day with its items in sort order.
type DayExport struct {
	models.Day `yaml:",inline"`
	Items      []models.DayItem `json:"items" yaml:"items"`
}

// GetAllData reads every collection from gw into one nested document.
func GetAllData(ctx context.Context, gw gateway.Gateway) (*ExportData, error) {
	exRecs, err := gw.Read(ctx, gateway.Exercises, nil, gateway.Asc("name"))
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	progRecs, err := gw.Read(ctx, gateway.Programs, nil, gateway.Asc("created_at"))
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	dayRecs, err := gw.Read(ctx, gateway.Days, nil, gateway.Asc("day_index"))
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	itemRecs, err := gw.Read(ctx, gateway.DayItems, nil, gateway.Asc("sort_order"))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "lift",
		Exercises:  make([]models.Exercise, 0, len(exRecs)),
		Programs:   make([]ProgramExport, 0, len(progRecs)),
	}
	for _, r := range exRecs {
		data.Exercises = append(data.Exercises, catalog.FromRecord(r))
	}

	items := make(map[string][]models.DayItem)
	for _, r := range itemRecs {
		it := compose.ItemFromRecord(r)
		items[it.DayID] = append(items[it.DayID], it)
	}
	days := make(map[string][]DayExport)
	for _, r := range dayRecs {
		d := compose.DayFromRecord(r)
		days[d.ProgramID] = append(days[d.ProgramID], DayExport{Day: d, Items: items[d.ID]})
	}
	for _, r := range progRecs {
		p := compose.ProgramFromRecord(r)
		data.Programs = append(data.Programs, ProgramExport{
			Program: p,
			UserID:  r.String("user_id"),
			Days:    days[p.ID],
		})
	}
	return data, nil
}

// ImportData writes an export into gw, parents before children.
func ImportData(ctx context.Context, gw gateway.Gateway, data *ExportData) error {
	for _, ex := range data.Exercises {
		if _, err := gw.Create(ctx, gateway.Exercises, catalog.ToRecord(ex)); err != nil {
			return fmt.Errorf("import exercise %s: %w", ex.ID, err)
		}
	}
	for _, p := range data.Programs {
		if _, err := gw.Create(ctx, gateway.Programs, compose.ProgramRecord(p.Program, p.UserID)); err != nil {
			return fmt.Errorf("import program %s: %w", p.ID, err)
		}
		for _, d := range p.Days {
			d.ProgramID = p.ID
			if _, err := gw.Create(ctx, gateway.Days, compose.DayRecord(d.Day)); err != nil {
				return fmt.Errorf("import day %s: %w", d.ID, err)
			}
			for _, it := range d.Items {
				it.DayID = d.ID
				if _, err := gw.Create(ctx, gateway.DayItems, compose.ItemRecord(it)); err != nil {
					return fmt.Errorf("import item %s: %w", it.ID, err)
				}
			}
		}
	}
	return nil
}

// ExportJSON renders everything in gw as indented JSON.
func ExportJSON(ctx context.Context, gw gateway.Gateway) ([]byte, error) {
	data, err := GetAllData(ctx, gw)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML renders everything in gw as YAML.
func ExportYAML(ctx context.Context, gw gateway.Gateway) ([]byte, error) {
	data, err := GetAllData(ctx, gw)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ExportMarkdown renders programs as headed sections with one table per day.
func ExportMarkdown(ctx context.Context, gw gateway.Gateway) (string, error) {
	data, err := GetAllData(ctx, gw)
	if err != nil {
		return "", err
	}
	names := make(map[string]string, len(data.Exercises))
	for _, ex := range data.Exercises {
		names[ex.ID] = ex.Name
	}

	programs := data.Programs
	sort.SliceStable(programs, func(i, j int) bool {
		return programs[i].CreatedAt.After(programs[j].CreatedAt)
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Lift Export - %s\n\n", data.ExportedAt.Format("2006-01-02")))
	if len(programs) == 0 {
		sb.WriteString("No programs.\n")
		return sb.String(), nil
	}

	for _, p := range programs {
		sb.WriteString(fmt.Sprintf("## %s\n\n", p.Title))
		if p.Notes != nil {
			sb.WriteString(*p.Notes + "\n\n")
		}
		for _, d := range p.Days {
			sb.WriteString(fmt.Sprintf("### %d. %s\n\n", d.DayIndex, d.Title))
			if len(d.Items) == 0 {
				sb.WriteString("_No exercises._\n\n")
				continue
			}
			sb.WriteString("| # | Exercise | Sets | Reps | Rest | Weight | Done |\n")
			sb.WriteString("|---|----------|------|------|------|--------|------|\n")
			for _, it := range d.Items {
				name := names[it.ExerciseID]
				if name == "" {
					name = it.ExerciseID
				}
				weight := ""
				if it.WeightKg != nil {
					weight = fmt.Sprintf("%g kg", *it.WeightKg)
				}
				done := ""
				if it.Done {
					done = "✓"
				}
				sb.WriteString(fmt.Sprintf("| %d | %s | %g | %s | %gs | %s | %s |\n",
					it.SortOrder, name, it.Prescription.Series, it.Prescription.Repetitions,
					it.Prescription.RestSeconds, weight, done))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// ImportJSON parses a JSON export and writes it into gw.
func ImportJSON(ctx context.Context, gw gateway.Gateway, raw []byte) error {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return ImportData(ctx, gw, &data)
}

// ImportYAML parses a YAML export and writes it into gw.
func ImportYAML(ctx context.Context, gw gateway.Gateway, raw []byte) error {
	var data ExportData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal YAML: %w", err)
	}
	return ImportData(ctx, gw, &data)
}
