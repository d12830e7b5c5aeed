// ABOUTME: Tests for export and import functionality.
// ABOUTME: Covers JSON, YAML, and Markdown exports plus JSON/YAML import.
package storage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/compose"
	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
	"gopkg.in/yaml.v3"
)

// populate stores one exercise and a program with one day and two items.
func populate(t *testing.T, gw gateway.Gateway) (models.Program, models.Day) {
	t.Helper()
	ctx := context.Background()

	ex := models.Exercise{ID: "press-banca", Name: "Press banca", PrimaryMuscle: models.StringPtr("Pecho")}
	if _, err := gw.Create(ctx, gateway.Exercises, catalog.ToRecord(ex)); err != nil {
		t.Fatalf("create exercise failed: %v", err)
	}

	p := models.NewProgram("Empuje").WithNotes("lunes y jueves")
	if _, err := gw.Create(ctx, gateway.Programs, compose.ProgramRecord(*p, "owner-1")); err != nil {
		t.Fatalf("create program failed: %v", err)
	}
	d := models.NewDay(p.ID, 1, "Día A")
	if _, err := gw.Create(ctx, gateway.Days, compose.DayRecord(*d)); err != nil {
		t.Fatalf("create day failed: %v", err)
	}

	first := models.NewDayItem(d.ID, "press-banca", 1)
	w := 80.0
	first.WeightKg = &w
	second := models.NewDayItem(d.ID, "fondos", 2)
	for _, it := range []*models.DayItem{first, second} {
		if _, err := gw.Create(ctx, gateway.DayItems, compose.ItemRecord(*it)); err != nil {
			t.Fatalf("create item failed: %v", err)
		}
	}
	return *p, *d
}

func TestGetAllDataNestsChildren(t *testing.T) {
	db := setupTestDB(t)
	p, d := populate(t, db)

	data, err := GetAllData(context.Background(), db)
	if err != nil {
		t.Fatalf("GetAllData failed: %v", err)
	}
	if data.Tool != "lift" || data.Version != "1.0" {
		t.Errorf("Unexpected header: %s %s", data.Tool, data.Version)
	}
	if len(data.Exercises) != 1 {
		t.Errorf("Expected 1 exercise, got %d", len(data.Exercises))
	}
	if len(data.Programs) != 1 {
		t.Fatalf("Expected 1 program, got %d", len(data.Programs))
	}
	got := data.Programs[0]
	if got.ID != p.ID || got.UserID != "owner-1" {
		t.Errorf("Program mismatch: %+v", got)
	}
	if len(got.Days) != 1 || got.Days[0].ID != d.ID {
		t.Fatalf("Expected day %s, got %+v", d.ID, got.Days)
	}
	items := got.Days[0].Items
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ExerciseID != "press-banca" || items[1].ExerciseID != "fondos" {
		t.Errorf("Items out of order: %s, %s", items[0].ExerciseID, items[1].ExerciseID)
	}
}

func TestExportJSON(t *testing.T) {
	db := setupTestDB(t)
	populate(t, db)

	data, err := ExportJSON(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if parsed["tool"] != "lift" {
		t.Errorf("Expected tool 'lift', got %v", parsed["tool"])
	}
	programs, ok := parsed["programs"].([]any)
	if !ok || len(programs) != 1 {
		t.Fatalf("Expected 1 program, got %v", parsed["programs"])
	}
	prog := programs[0].(map[string]any)
	if prog["title"] != "Empuje" {
		t.Errorf("Expected flattened title, got %v", prog["title"])
	}
}

func TestExportYAML(t *testing.T) {
	db := setupTestDB(t)
	populate(t, db)

	data, err := ExportYAML(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}
	if parsed["version"] != "1.0" {
		t.Errorf("Expected version 1.0, got %v", parsed["version"])
	}
	if !strings.Contains(string(data), "title: Empuje") {
		t.Errorf("Expected inline program title in YAML:\n%s", data)
	}
}

func TestExportMarkdown(t *testing.T) {
	db := setupTestDB(t)
	populate(t, db)

	md, err := ExportMarkdown(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}
	for _, want := range []string{"# Lift Export", "## Empuje", "### 1. Día A", "| 1 | Press banca |", "80 kg", "| 2 | fondos |"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q:\n%s", want, md)
		}
	}
}

func TestExportMarkdownEmptyDB(t *testing.T) {
	db := setupTestDB(t)

	md, err := ExportMarkdown(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "No programs.") {
		t.Errorf("Expected empty notice, got:\n%s", md)
	}
}

func TestExportJSONEmpty(t *testing.T) {
	db := setupTestDB(t)

	data, err := ExportJSON(context.Background(), db)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	var parsed ExportData
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(parsed.Programs) != 0 || len(parsed.Exercises) != 0 {
		t.Errorf("Expected empty export, got %+v", parsed)
	}
}

func TestImportJSONRoundTrip(t *testing.T) {
	src := setupTestDB(t)
	p, d := populate(t, src)
	ctx := context.Background()

	raw, err := ExportJSON(ctx, src)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	dst := setupTestDB(t)
	if err := ImportJSON(ctx, dst, raw); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}

	progs, err := dst.Read(ctx, gateway.Programs, nil, nil)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(progs) != 1 || progs[0].ID() != p.ID || progs[0].String("user_id") != "owner-1" {
		t.Fatalf("Program not imported: %+v", progs)
	}
	items, err := dst.Read(ctx, gateway.DayItems, []gateway.Filter{gateway.Eq("program_day_id", d.ID)}, gateway.Asc("sort_order"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	first := compose.ItemFromRecord(items[0])
	if first.WeightKg == nil || *first.WeightKg != 80 {
		t.Errorf("Weight not preserved: %v", first.WeightKg)
	}
}

func TestImportYAMLIntoMemory(t *testing.T) {
	src := setupTestDB(t)
	populate(t, src)
	ctx := context.Background()

	raw, err := ExportYAML(ctx, src)
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	mem := gateway.NewMemory()
	if err := ImportYAML(ctx, mem, raw); err != nil {
		t.Fatalf("ImportYAML failed: %v", err)
	}
	if mem.Len(gateway.Exercises) != 1 || mem.Len(gateway.Programs) != 1 ||
		mem.Len(gateway.Days) != 1 || mem.Len(gateway.DayItems) != 2 {
		t.Errorf("Unexpected counts after import: %d/%d/%d/%d",
			mem.Len(gateway.Exercises), mem.Len(gateway.Programs), mem.Len(gateway.Days), mem.Len(gateway.DayItems))
	}
}

func TestImportJSONInvalid(t *testing.T) {
	db := setupTestDB(t)

	if err := ImportJSON(context.Background(), db, []byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestImportDuplicateFails(t *testing.T) {
	db := setupTestDB(t)
	populate(t, db)
	ctx := context.Background()

	raw, err := ExportJSON(ctx, db)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	if err := ImportJSON(ctx, db, raw); err == nil {
		t.Error("Expected error importing duplicate ids")
	}
}
