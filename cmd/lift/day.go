// ABOUTME: CLI command for adding training days to a program.
// ABOUTME: Suggests "Día A", "Día B", ... when no title is given.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var dayCmd = &cobra.Command{
	Use:     "day",
	Aliases: []string{"d"},
	Short:   "Manage training days",
}

var dayAddCmd = &cobra.Command{
	Use:   "add <program> [title]",
	Short: "Add a day to a program",
	Long: `Add a training day to a program. Days are numbered in creation order.
Without a title the next suggestion is used: "Día A", "Día B", and so on.

Examples:
  lift day add abc123
  lift day add abc123 Pierna`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		title := strings.Join(args[1:], " ")
		if strings.TrimSpace(title) == "" {
			title = engine.SuggestDayTitle(p.ID)
		}

		d, op, err := engine.CreateDay(p.ID, title)
		if err != nil {
			return err
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to add day: %w", err)
		}

		out := cmd.OutOrStdout()
		green.Fprintf(out, "✓ Added day %d %s to %s\n", d.DayIndex, d.Title, p.Title)
		fmt.Fprintf(out, "  ID: %s\n", shortID(d.ID))
		return nil
	},
}

func init() {
	dayCmd.AddCommand(dayAddCmd)
	rootCmd.AddCommand(dayCmd)
}
