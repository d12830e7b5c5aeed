// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and resource handlers over SQLite.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/compose"
	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "lift-mcp-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "lift.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]models.Exercise{
		{ID: "press-banca", Name: "Press banca", PrimaryMuscle: models.StringPtr("Pectoral mayor")},
		{ID: "remo", Name: "Remo con barra", PrimaryMuscle: models.StringPtr("Espalda")},
		{ID: "sentadilla", Name: "Sentadilla", PrimaryMuscle: models.StringPtr("Cuádriceps")},
	})
}

// setupServer builds a server over a fresh SQLite gateway.
func setupServer(t *testing.T, gw gateway.Gateway) *Server {
	t.Helper()
	if gw == nil {
		gw = setupTestDB(t)
	}
	eng := compose.New(gw)
	t.Cleanup(func() {
		_ = eng.Drain(context.Background())
		_ = eng.Close()
	})
	server, err := NewServer(eng, testCatalog())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

// createProgramWithDay creates a program and one day through the tools.
func createProgramWithDay(t *testing.T, server *Server) (programOutput, dayOutput) {
	t.Helper()
	ctx := context.Background()

	_, p, err := server.handleCreateProgram(ctx, &mcp.CallToolRequest{}, createProgramInput{Title: "Empuje"})
	if err != nil {
		t.Fatalf("create_program failed: %v", err)
	}
	_, d, err := server.handleAddDay(ctx, &mcp.CallToolRequest{}, addDayInput{ProgramID: p.ID})
	if err != nil {
		t.Fatalf("add_day failed: %v", err)
	}
	return p, d
}

func addItem(t *testing.T, server *Server, programID, dayID, exerciseID string) itemOutput {
	t.Helper()
	_, out, err := server.handleAddItem(context.Background(), &mcp.CallToolRequest{},
		addItemInput{ProgramID: programID, DayID: dayID, ExerciseID: exerciseID})
	if err != nil {
		t.Fatalf("add_item failed: %v", err)
	}
	return out.(itemOutput)
}

func TestNewServer(t *testing.T) {
	server := setupServer(t, nil)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.engine == nil {
		t.Error("Expected non-nil engine")
	}
}

func TestNewServerRequiresEngine(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Error("Expected error for nil engine")
	}
}

func TestNewServerNilCatalog(t *testing.T) {
	eng := compose.New(gateway.NewMemory())
	defer eng.Close()

	server, err := NewServer(eng, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.catalog == nil || server.catalog.Len() != 0 {
		t.Error("Expected empty catalog")
	}
}

func TestHandleCreateProgram(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   createProgramInput
		wantErr bool
	}{
		{name: "title only", input: createProgramInput{Title: "Fuerza"}},
		{name: "with notes", input: createProgramInput{Title: "Hipertrofia", Notes: "4 días"}},
		{name: "blank title", input: createProgramInput{Title: "   "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleCreateProgram(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if !models.IsValidation(err) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.ID == "" {
				t.Error("Expected non-empty ID")
			}
			if !strings.Contains(out.Message, "Created program") {
				t.Errorf("Unexpected message: %s", out.Message)
			}
		})
	}
}

func TestHandleListPrograms(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleListPrograms(ctx, &mcp.CallToolRequest{}, emptyInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if msg := out.(map[string]interface{})["message"]; msg != "No programs found." {
		t.Errorf("Expected empty message, got %v", msg)
	}

	createProgramWithDay(t, server)
	_, out, err = server.handleListPrograms(ctx, &mcp.CallToolRequest{}, emptyInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	programs := out.(map[string]interface{})["programs"].([]models.Program)
	if len(programs) != 1 || programs[0].Title != "Empuje" {
		t.Errorf("Unexpected programs: %+v", programs)
	}
}

func TestHandleRenameProgram(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, _ := createProgramWithDay(t, server)

	notes := "semana de descarga"
	_, out, err := server.handleRenameProgram(ctx, &mcp.CallToolRequest{},
		renameProgramInput{ID: p.ID, Title: "Empuje v2", Notes: &notes})
	if err != nil {
		t.Fatalf("rename_program failed: %v", err)
	}
	if out.Title != "Empuje v2" {
		t.Errorf("Title = %q", out.Title)
	}
	got, _ := server.engine.Program(p.ID)
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("Notes = %v", got.Notes)
	}
}

func TestHandleRenameProgramNotFound(t *testing.T) {
	server := setupServer(t, nil)

	_, _, err := server.handleRenameProgram(context.Background(), &mcp.CallToolRequest{},
		renameProgramInput{ID: "missing", Title: "x"})
	if !models.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestHandleGetProgram(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, d := createProgramWithDay(t, server)
	addItem(t, server, p.ID, d.ID, "press-banca")
	addItem(t, server, p.ID, d.ID, "remo")

	_, out, err := server.handleGetProgram(ctx, &mcp.CallToolRequest{}, programIDInput{ID: p.ID})
	if err != nil {
		t.Fatalf("get_program failed: %v", err)
	}
	view := out.(programView)
	if len(view.Days) != 1 {
		t.Fatalf("Expected 1 day, got %d", len(view.Days))
	}
	items := view.Days[0].Items
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].ExerciseName != "Press banca" || items[1].SortOrder != 2 {
		t.Errorf("Unexpected items: %+v", items)
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"exercise_name":"Remo con barra"`) {
		t.Errorf("Expected exercise names in JSON: %s", data)
	}
}

func TestHandleGetProgramNotFound(t *testing.T) {
	server := setupServer(t, nil)

	_, _, err := server.handleGetProgram(context.Background(), &mcp.CallToolRequest{}, programIDInput{ID: "missing"})
	if !models.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestHandleAddDaySuggestsTitles(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, first := createProgramWithDay(t, server)

	if first.Title != "Día A" || first.DayIndex != 1 {
		t.Errorf("First day = %+v", first)
	}
	_, second, err := server.handleAddDay(ctx, &mcp.CallToolRequest{}, addDayInput{ProgramID: p.ID})
	if err != nil {
		t.Fatalf("add_day failed: %v", err)
	}
	if second.Title != "Día B" || second.DayIndex != 2 {
		t.Errorf("Second day = %+v", second)
	}
	_, named, err := server.handleAddDay(ctx, &mcp.CallToolRequest{}, addDayInput{ProgramID: p.ID, Title: "Pierna"})
	if err != nil {
		t.Fatalf("add_day failed: %v", err)
	}
	if named.Title != "Pierna" || named.DayIndex != 3 {
		t.Errorf("Named day = %+v", named)
	}
}

func TestHandleAddItem(t *testing.T) {
	server := setupServer(t, nil)
	p, d := createProgramWithDay(t, server)

	out := addItem(t, server, p.ID, d.ID, "sentadilla")
	if out.Item.SortOrder != 1 {
		t.Errorf("SortOrder = %d", out.Item.SortOrder)
	}
	if out.Item.Prescription != models.DefaultPrescription() {
		t.Errorf("Prescription = %+v", out.Item.Prescription)
	}

	// Adding the same exercise again returns the existing item.
	again := addItem(t, server, p.ID, d.ID, "sentadilla")
	if again.Item.ID != out.Item.ID {
		t.Errorf("Expected existing item %s, got %s", out.Item.ID, again.Item.ID)
	}
}

func TestHandleAddItemUnknownExercise(t *testing.T) {
	server := setupServer(t, nil)
	p, d := createProgramWithDay(t, server)

	_, _, err := server.handleAddItem(context.Background(), &mcp.CallToolRequest{},
		addItemInput{ProgramID: p.ID, DayID: d.ID, ExerciseID: "nope"})
	if !models.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestHandleRemoveItemRenumbers(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, d := createProgramWithDay(t, server)
	first := addItem(t, server, p.ID, d.ID, "press-banca")
	addItem(t, server, p.ID, d.ID, "remo")

	_, out, err := server.handleRemoveItem(ctx, &mcp.CallToolRequest{}, itemRefInput{ProgramID: p.ID, ItemID: first.Item.ID})
	if err != nil {
		t.Fatalf("remove_item failed: %v", err)
	}
	if !strings.Contains(out.Message, first.Item.ID) {
		t.Errorf("Unexpected message: %s", out.Message)
	}
	items := server.engine.Items(d.ID)
	if len(items) != 1 || items[0].ExerciseID != "remo" || items[0].SortOrder != 1 {
		t.Errorf("Unexpected items after remove: %+v", items)
	}
}

func TestHandleUpdateItem(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, d := createProgramWithDay(t, server)
	added := addItem(t, server, p.ID, d.ID, "press-banca")

	sets := 5.0
	weight := 70.0
	notes := "pausa abajo"
	_, out, err := server.handleUpdateItem(ctx, &mcp.CallToolRequest{}, updateItemInput{
		ProgramID: p.ID, ItemID: added.Item.ID, Sets: &sets, WeightKg: &weight, Notes: &notes,
	})
	if err != nil {
		t.Fatalf("update_item failed: %v", err)
	}
	it := out.(itemOutput).Item
	if it.Prescription.Series != 5 || it.Prescription.Repetitions != models.DefaultRepetitions {
		t.Errorf("Prescription = %+v", it.Prescription)
	}
	if it.WeightKg == nil || *it.WeightKg != 70 {
		t.Errorf("WeightKg = %v", it.WeightKg)
	}
	if it.Notes == nil || *it.Notes != notes {
		t.Errorf("Notes = %v", it.Notes)
	}

	_, out, err = server.handleUpdateItem(ctx, &mcp.CallToolRequest{}, updateItemInput{
		ProgramID: p.ID, ItemID: added.Item.ID, ClearWeight: true,
	})
	if err != nil {
		t.Fatalf("update_item failed: %v", err)
	}
	if out.(itemOutput).Item.WeightKg != nil {
		t.Error("Expected weight to be cleared")
	}
}

func TestHandleUpdateItemValidation(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, d := createProgramWithDay(t, server)
	added := addItem(t, server, p.ID, d.ID, "press-banca")

	zero := 0.0
	_, _, err := server.handleUpdateItem(ctx, &mcp.CallToolRequest{}, updateItemInput{
		ProgramID: p.ID, ItemID: added.Item.ID, Sets: &zero,
	})
	if !models.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}

	_, _, err = server.handleUpdateItem(ctx, &mcp.CallToolRequest{}, updateItemInput{
		ProgramID: p.ID, ItemID: added.Item.ID,
	})
	if !models.IsValidation(err) {
		t.Errorf("Expected validation error for empty patch, got %v", err)
	}
}

func TestHandleToggleDone(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, d := createProgramWithDay(t, server)
	added := addItem(t, server, p.ID, d.ID, "remo")

	_, out, err := server.handleToggleDone(ctx, &mcp.CallToolRequest{}, itemRefInput{ProgramID: p.ID, ItemID: added.Item.ID})
	if err != nil {
		t.Fatalf("toggle_done failed: %v", err)
	}
	res := out.(itemOutput)
	if !res.Item.Done || res.Item.DoneAt == nil || res.Message != "Marked done" {
		t.Errorf("Unexpected toggle result: %+v", res)
	}

	_, out, err = server.handleToggleDone(ctx, &mcp.CallToolRequest{}, itemRefInput{ProgramID: p.ID, ItemID: added.Item.ID})
	if err != nil {
		t.Fatalf("toggle_done failed: %v", err)
	}
	res = out.(itemOutput)
	if res.Item.Done || res.Item.DoneAt != nil || res.Message != "Marked pending" {
		t.Errorf("Unexpected toggle result: %+v", res)
	}
}

func TestHandleToggleDoneRollsBack(t *testing.T) {
	mem := gateway.NewMemory()
	server := setupServer(t, mem)
	ctx := context.Background()
	p, d := createProgramWithDay(t, server)
	added := addItem(t, server, p.ID, d.ID, "remo")

	mem.FailNext(gateway.MethodUpdate, gateway.DayItems, errors.New("offline"))
	_, _, err := server.handleToggleDone(ctx, &mcp.CallToolRequest{}, itemRefInput{ProgramID: p.ID, ItemID: added.Item.ID})
	if !models.IsPersistence(err) {
		t.Fatalf("Expected persistence error, got %v", err)
	}
	it, _ := server.engine.Item(added.Item.ID)
	if it.Done || it.DoneAt != nil {
		t.Errorf("Expected rollback to pending, got %+v", it)
	}
}

func TestHandleDeleteProgram(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()
	p, _ := createProgramWithDay(t, server)

	if _, _, err := server.handleDeleteProgram(ctx, &mcp.CallToolRequest{}, programIDInput{ID: p.ID}); err != nil {
		t.Fatalf("delete_program failed: %v", err)
	}
	if _, ok := server.engine.Program(p.ID); ok {
		t.Error("Expected program to be gone")
	}
	_, _, err := server.handleGetProgram(ctx, &mcp.CallToolRequest{}, programIDInput{ID: p.ID})
	if !models.IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestHandleSearchExercises(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleSearchExercises(ctx, &mcp.CallToolRequest{}, searchInput{})
	if err != nil {
		t.Fatalf("search_exercises failed: %v", err)
	}
	if out.Count != 3 || len(out.Groups) != 3 {
		t.Errorf("Expected 3 exercises in 3 groups, got %d in %d", out.Count, len(out.Groups))
	}
	if out.Groups[0].Label != string(catalog.Chest) {
		t.Errorf("Expected chest first, got %s", out.Groups[0].Label)
	}

	_, out, err = server.handleSearchExercises(ctx, &mcp.CallToolRequest{}, searchInput{Query: "ESPALDA"})
	if err != nil {
		t.Fatalf("search_exercises failed: %v", err)
	}
	if out.Count != 1 || out.Groups[0].Exercises[0].ID != "remo" {
		t.Errorf("Unexpected search result: %+v", out)
	}
}

func TestHandleProgramsResource(t *testing.T) {
	server := setupServer(t, nil)
	createProgramWithDay(t, server)

	result, err := server.handleProgramsResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Contents) == 0 {
		t.Fatal("Expected non-empty contents")
	}
	if result.Contents[0].URI != programsURI {
		t.Errorf("URI = %s, want %s", result.Contents[0].URI, programsURI)
	}
	if result.Contents[0].MIMEType != "application/json" {
		t.Errorf("MIMEType = %s, want application/json", result.Contents[0].MIMEType)
	}
	if !strings.Contains(result.Contents[0].Text, `"count": 1`) {
		t.Errorf("Unexpected text: %s", result.Contents[0].Text)
	}
}

func TestHandleGroupsResource(t *testing.T) {
	server := setupServer(t, nil)

	result, err := server.handleGroupsResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := result.Contents[0].Text
	for _, want := range []string{`"label": "Pecho"`, `"label": "Espalda"`, `"label": "Cuádriceps"`} {
		if !strings.Contains(text, want) {
			t.Errorf("Missing %s in %s", want, text)
		}
	}
}

func TestHandleSelectedResource(t *testing.T) {
	server := setupServer(t, nil)
	ctx := context.Background()

	result, err := server.handleSelectedResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(result.Contents[0].Text, `"selected": null`) {
		t.Errorf("Expected no selection: %s", result.Contents[0].Text)
	}

	p, d := createProgramWithDay(t, server)
	addItem(t, server, p.ID, d.ID, "remo")
	result, err = server.handleSelectedResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(result.Contents[0].Text, d.ID) || !strings.Contains(result.Contents[0].Text, "Remo con barra") {
		t.Errorf("Expected selected day with items: %s", result.Contents[0].Text)
	}
}
