// ABOUTME: MCP tool implementations for workout programs and the exercise catalog.
// ABOUTME: Each mutating tool waits for persistence and reports rollbacks as errors.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/compose"
	"github.com/harperreed/lift/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// list_programs
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_programs",
		Description: "List workout programs, newest first",
	}, s.handleListPrograms)

	// create_program
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_program",
		Description: "Create a new workout program",
	}, s.handleCreateProgram)

	// rename_program
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "rename_program",
		Description: "Rename a program and optionally replace its notes",
	}, s.handleRenameProgram)

	// delete_program
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_program",
		Description: "Delete a program with all its days and exercises",
	}, s.handleDeleteProgram)

	// get_program
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_program",
		Description: "Get a program with its days and exercises",
	}, s.handleGetProgram)

	// add_day
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_day",
		Description: "Add a training day to a program",
	}, s.handleAddDay)

	// add_item
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_item",
		Description: "Add a catalog exercise to a day with the default 3 x 8-12, 90s rest",
	}, s.handleAddItem)

	// remove_item
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove an exercise from its day",
	}, s.handleRemoveItem)

	// update_item
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_item",
		Description: "Change sets, reps, rest, weight, or notes of an exercise in a day",
	}, s.handleUpdateItem)

	// toggle_done
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "toggle_done",
		Description: "Mark an exercise done, or back to pending",
	}, s.handleToggleDone)

	// search_exercises
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_exercises",
		Description: "Search the exercise catalog, grouped by muscle",
	}, s.handleSearchExercises)
}

// Tool input/output types

type emptyInput struct{}

type createProgramInput struct {
	Title string `json:"title" jsonschema:"Program title"`
	Notes string `json:"notes,omitempty" jsonschema:"Optional program notes"`
}

type renameProgramInput struct {
	ID    string  `json:"id" jsonschema:"Program ID"`
	Title string  `json:"title" jsonschema:"New program title"`
	Notes *string `json:"notes,omitempty" jsonschema:"Replacement notes; empty clears them"`
}

type programIDInput struct {
	ID string `json:"id" jsonschema:"Program ID"`
}

type addDayInput struct {
	ProgramID string `json:"program_id" jsonschema:"Program ID"`
	Title     string `json:"title,omitempty" jsonschema:"Day title; defaults to the next suggestion (Día A, Día B, ...)"`
}

type addItemInput struct {
	ProgramID  string `json:"program_id" jsonschema:"Program ID"`
	DayID      string `json:"day_id" jsonschema:"Day ID"`
	ExerciseID string `json:"exercise_id" jsonschema:"Catalog exercise ID"`
}

type itemRefInput struct {
	ProgramID string `json:"program_id" jsonschema:"Program ID"`
	ItemID    string `json:"item_id" jsonschema:"Day item ID"`
}

type updateItemInput struct {
	ProgramID   string   `json:"program_id" jsonschema:"Program ID"`
	ItemID      string   `json:"item_id" jsonschema:"Day item ID"`
	Sets        *float64 `json:"sets,omitempty" jsonschema:"Number of sets, greater than 0"`
	Reps        *string  `json:"reps,omitempty" jsonschema:"Repetitions, free text such as 8-12 or AMRAP"`
	RestSeconds *float64 `json:"rest_seconds,omitempty" jsonschema:"Rest between sets in seconds"`
	WeightKg    *float64 `json:"weight_kg,omitempty" jsonschema:"Working weight in kg"`
	ClearWeight bool     `json:"clear_weight,omitempty" jsonschema:"Remove the working weight"`
	Notes       *string  `json:"notes,omitempty" jsonschema:"Item notes; empty clears them"`
}

type searchInput struct {
	Query string `json:"query,omitempty" jsonschema:"Text matched against name, muscle, equipment, and category"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max exercises (default 400)"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type programOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type dayOutput struct {
	ID       string `json:"id"`
	DayIndex int    `json:"day_index"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

type itemOutput struct {
	Item    itemView `json:"item"`
	Message string   `json:"message"`
}

type itemView struct {
	models.DayItem
	ExerciseName string `json:"exercise_name,omitempty"`
}

type dayView struct {
	models.Day
	Items []itemView `json:"items"`
}

type programView struct {
	models.Program
	Days []dayView `json:"days"`
}

type groupView struct {
	Label     string            `json:"label"`
	Emoji     string            `json:"emoji"`
	Exercises []models.Exercise `json:"exercises"`
}

type searchOutput struct {
	Count  int         `json:"count"`
	Groups []groupView `json:"groups"`
}

// Tool handlers

func (s *Server) handleListPrograms(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	if err := s.engine.LoadPrograms(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to list programs: %w", err)
	}

	programs := s.engine.Programs()
	if len(programs) == 0 {
		return nil, map[string]interface{}{"message": "No programs found."}, nil
	}
	return nil, map[string]interface{}{"programs": programs}, nil
}

func (s *Server) handleCreateProgram(ctx context.Context, req *mcp.CallToolRequest, input createProgramInput) (*mcp.CallToolResult, programOutput, error) {
	p, op, err := s.engine.CreateProgram(input.Title)
	if err != nil {
		return nil, programOutput{}, err
	}
	if err := await(ctx, op); err != nil {
		return nil, programOutput{}, fmt.Errorf("failed to create program: %w", err)
	}

	if strings.TrimSpace(input.Notes) != "" {
		op, err := s.engine.UpdateProgramNotes(p.ID, input.Notes)
		if err != nil {
			return nil, programOutput{}, err
		}
		if err := await(ctx, op); err != nil {
			return nil, programOutput{}, fmt.Errorf("failed to save notes: %w", err)
		}
	}

	return nil, programOutput{
		ID:      p.ID,
		Title:   p.Title,
		Message: fmt.Sprintf("Created program %q (ID: %s)", p.Title, p.ID),
	}, nil
}

func (s *Server) handleRenameProgram(ctx context.Context, req *mcp.CallToolRequest, input renameProgramInput) (*mcp.CallToolResult, programOutput, error) {
	if err := s.ensureProgram(ctx, input.ID); err != nil {
		return nil, programOutput{}, err
	}

	op, err := s.engine.RenameProgram(input.ID, input.Title)
	if err != nil {
		return nil, programOutput{}, err
	}
	if input.Notes != nil {
		notesOp, err := s.engine.UpdateProgramNotes(input.ID, *input.Notes)
		if err != nil {
			return nil, programOutput{}, err
		}
		if err := await(ctx, notesOp); err != nil {
			return nil, programOutput{}, fmt.Errorf("failed to save notes: %w", err)
		}
	}
	if err := await(ctx, op); err != nil {
		return nil, programOutput{}, fmt.Errorf("failed to rename program: %w", err)
	}

	p, _ := s.engine.Program(input.ID)
	return nil, programOutput{
		ID:      p.ID,
		Title:   p.Title,
		Message: fmt.Sprintf("Renamed program to %q", p.Title),
	}, nil
}

func (s *Server) handleDeleteProgram(ctx context.Context, req *mcp.CallToolRequest, input programIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.ensureProgram(ctx, input.ID); err != nil {
		return nil, simpleOutput{}, err
	}

	op, err := s.engine.DeleteProgram(input.ID)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := await(ctx, op); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete program: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted program: %s", input.ID),
	}, nil
}

func (s *Server) handleGetProgram(ctx context.Context, req *mcp.CallToolRequest, input programIDInput) (*mcp.CallToolResult, any, error) {
	p, err := s.engine.OpenProgram(ctx, input.ID)
	if err != nil {
		return nil, nil, err
	}
	return nil, s.programView(p), nil
}

func (s *Server) handleAddDay(ctx context.Context, req *mcp.CallToolRequest, input addDayInput) (*mcp.CallToolResult, dayOutput, error) {
	if err := s.ensureProgram(ctx, input.ProgramID); err != nil {
		return nil, dayOutput{}, err
	}

	title := input.Title
	if strings.TrimSpace(title) == "" {
		title = s.engine.SuggestDayTitle(input.ProgramID)
	}
	d, op, err := s.engine.CreateDay(input.ProgramID, title)
	if err != nil {
		return nil, dayOutput{}, err
	}
	if err := await(ctx, op); err != nil {
		return nil, dayOutput{}, fmt.Errorf("failed to add day: %w", err)
	}

	return nil, dayOutput{
		ID:       d.ID,
		DayIndex: d.DayIndex,
		Title:    d.Title,
		Message:  fmt.Sprintf("Added day %d %q (ID: %s)", d.DayIndex, d.Title, d.ID),
	}, nil
}

func (s *Server) handleAddItem(ctx context.Context, req *mcp.CallToolRequest, input addItemInput) (*mcp.CallToolResult, any, error) {
	if err := s.ensureProgram(ctx, input.ProgramID); err != nil {
		return nil, nil, err
	}
	ex, ok := s.catalog.Get(input.ExerciseID)
	if !ok {
		return nil, nil, &models.NotFoundError{Entity: "exercise", ID: input.ExerciseID}
	}

	it, op, err := s.engine.AddItemToDay(input.DayID, ex.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := await(ctx, op); err != nil {
		return nil, nil, fmt.Errorf("failed to add exercise: %w", err)
	}

	return nil, itemOutput{
		Item:    s.itemView(it),
		Message: fmt.Sprintf("Added %s at position %d", ex.Name, it.SortOrder),
	}, nil
}

func (s *Server) handleRemoveItem(ctx context.Context, req *mcp.CallToolRequest, input itemRefInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.ensureProgram(ctx, input.ProgramID); err != nil {
		return nil, simpleOutput{}, err
	}

	op, err := s.engine.RemoveItem("", input.ItemID)
	if err != nil {
		return nil, simpleOutput{}, err
	}
	if err := await(ctx, op); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to remove exercise: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Removed item: %s", input.ItemID),
	}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, req *mcp.CallToolRequest, input updateItemInput) (*mcp.CallToolResult, any, error) {
	if err := s.ensureProgram(ctx, input.ProgramID); err != nil {
		return nil, nil, err
	}
	current, ok := s.engine.Item(input.ItemID)
	if !ok {
		return nil, nil, &models.NotFoundError{Entity: "item", ID: input.ItemID}
	}

	var patch compose.ItemPatch
	if input.Sets != nil || input.Reps != nil || input.RestSeconds != nil {
		rx := current.Prescription
		if input.Sets != nil {
			rx.Series = *input.Sets
		}
		if input.Reps != nil {
			rx.Repetitions = *input.Reps
		}
		if input.RestSeconds != nil {
			rx.RestSeconds = *input.RestSeconds
		}
		patch.Prescription = &rx
	}
	switch {
	case input.ClearWeight:
		patch.WeightKg = models.Null[float64]()
	case input.WeightKg != nil:
		patch.WeightKg = models.Set(*input.WeightKg)
	}
	if input.Notes != nil {
		if strings.TrimSpace(*input.Notes) == "" {
			patch.Notes = models.Null[string]()
		} else {
			patch.Notes = models.Set(*input.Notes)
		}
	}

	it, op, err := s.engine.UpdateItem(input.ItemID, patch)
	if err != nil {
		return nil, nil, err
	}
	if err := await(ctx, op); err != nil {
		return nil, nil, fmt.Errorf("failed to update exercise: %w", err)
	}

	return nil, itemOutput{
		Item:    s.itemView(it),
		Message: "Updated item",
	}, nil
}

func (s *Server) handleToggleDone(ctx context.Context, req *mcp.CallToolRequest, input itemRefInput) (*mcp.CallToolResult, any, error) {
	if err := s.ensureProgram(ctx, input.ProgramID); err != nil {
		return nil, nil, err
	}

	it, op, err := s.engine.ToggleDone(input.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if err := await(ctx, op); err != nil {
		return nil, nil, fmt.Errorf("failed to toggle exercise: %w", err)
	}

	msg := "Marked pending"
	if it.Done {
		msg = "Marked done"
	}
	return nil, itemOutput{Item: s.itemView(it), Message: msg}, nil
}

func (s *Server) handleSearchExercises(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, searchOutput, error) {
	picker := &catalog.Picker{Catalog: s.catalog, Limit: input.Limit}
	groups := picker.Groups(input.Query)

	out := searchOutput{Groups: make([]groupView, 0, len(groups))}
	for _, g := range groups {
		out.Groups = append(out.Groups, toGroupView(g))
		out.Count += len(g.Exercises)
	}
	return nil, out, nil
}

// Views

func (s *Server) programView(p models.Program) programView {
	view := programView{Program: p, Days: []dayView{}}
	for _, d := range s.engine.Days(p.ID) {
		dv := dayView{Day: d, Items: []itemView{}}
		for _, it := range s.engine.Items(d.ID) {
			dv.Items = append(dv.Items, s.itemView(it))
		}
		view.Days = append(view.Days, dv)
	}
	return view
}

func (s *Server) itemView(it models.DayItem) itemView {
	v := itemView{DayItem: it}
	if ex, ok := s.catalog.Get(it.ExerciseID); ok {
		v.ExerciseName = ex.Name
	}
	return v
}

func toGroupView(g catalog.Group) groupView {
	return groupView{
		Label:     string(g.Label),
		Emoji:     catalog.MetaFor(g.Label).Emoji,
		Exercises: g.Exercises,
	}
}
