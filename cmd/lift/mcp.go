// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/lift/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and works on the configured backend.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "lift": {
        "command": "lift",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_programs      List programs, newest first
  create_program     Create a program
  rename_program     Rename a program or replace its notes
  delete_program     Delete a program with its days and exercises
  get_program        Get a program with days and exercises
  add_day            Add a day ("Día A", "Día B", ... by default)
  add_item           Add a catalog exercise to a day
  remove_item        Remove an exercise from its day
  update_item        Change sets, reps, rest, weight, or notes
  toggle_done        Toggle an exercise's done mark
  search_exercises   Search the catalog, grouped by muscle

AVAILABLE RESOURCES:

  lift://programs            All programs
  lift://exercises/groups    The catalog grouped by muscle
  lift://selected            The day new exercises go to`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		server, err := mcp.NewServer(engine, cat)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
