// ABOUTME: MCP resource implementations for lift programs and the exercise catalog.
// ABOUTME: Provides lift://programs, lift://exercises/groups, and lift://selected resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	programsURI = "lift://programs"
	groupsURI   = "lift://exercises/groups"
	selectedURI = "lift://selected"
)

func (s *Server) registerResources() {
	// lift://programs - Program list, newest first
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         programsURI,
		Name:        "Workout Programs",
		Description: "All programs, newest first",
		MIMEType:    "application/json",
	}, s.handleProgramsResource)

	// lift://exercises/groups - Catalog bucketed by muscle group
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         groupsURI,
		Name:        "Exercise Catalog by Muscle Group",
		Description: "Every catalog exercise grouped by primary muscle",
		MIMEType:    "application/json",
	}, s.handleGroupsResource)

	// lift://selected - Currently selected day with its exercises
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         selectedURI,
		Name:        "Selected Day",
		Description: "The day new exercises are added to, with its items",
		MIMEType:    "application/json",
	}, s.handleSelectedResource)
}

// Resource handlers

func (s *Server) handleProgramsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if err := s.engine.LoadPrograms(ctx); err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}

	programs := s.engine.Programs()
	result := map[string]interface{}{
		"programs": programs,
		"count":    len(programs),
	}
	return jsonResource(programsURI, result)
}

func (s *Server) handleGroupsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	groups := s.catalog.Search("")
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, toGroupView(g))
	}

	result := map[string]interface{}{
		"groups": views,
		"count":  s.catalog.Len(),
	}
	return jsonResource(groupsURI, result)
}

func (s *Server) handleSelectedResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	d, ok := s.engine.SelectedDay()
	if !ok {
		return jsonResource(selectedURI, map[string]interface{}{"selected": nil})
	}

	dv := dayView{Day: d, Items: []itemView{}}
	for _, it := range s.engine.Items(d.ID) {
		dv.Items = append(dv.Items, s.itemView(it))
	}
	return jsonResource(selectedURI, map[string]interface{}{"selected": dv})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
