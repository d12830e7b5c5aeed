// ABOUTME: MCP server setup for lift workout programs.
// ABOUTME: Wraps the MCP server around the composition engine and exercise catalog.
package mcp

import (
	"context"
	"errors"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/compose"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with engine and catalog access.
type Server struct {
	mcpServer *mcp.Server
	engine    *compose.Engine
	catalog   *catalog.Catalog
}

// NewServer creates a new MCP server over engine. A nil catalog is treated
// as empty.
func NewServer(engine *compose.Engine, cat *catalog.Catalog) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if cat == nil {
		cat = catalog.New(nil)
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lift",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    engine,
		catalog:   cat,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// ensureProgram loads the program into the engine unless it is already there.
func (s *Server) ensureProgram(ctx context.Context, id string) error {
	if _, ok := s.engine.Program(id); ok {
		return nil
	}
	_, err := s.engine.OpenProgram(ctx, id)
	return err
}

// await waits for a command's persistence so tool callers see real failures.
func await(ctx context.Context, op *compose.Op) error {
	if op == nil {
		return nil
	}
	return op.Wait(ctx)
}
