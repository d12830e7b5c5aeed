// ABOUTME: CLI commands for managing programs.
// ABOUTME: Supports add, list, rename, rm, and show subcommands.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	programNotes string
)

var programCmd = &cobra.Command{
	Use:     "program",
	Aliases: []string{"p"},
	Short:   "Manage programs",
	Long: `Create, list, rename, delete, and view workout programs.

A program groups training days. Deleting a program deletes its days and
their exercises too.

COMMANDS:

  add      Create a new program
  list     List programs, newest first
  rename   Change a program's title or notes
  rm       Delete a program with everything in it
  show     View a program with its days and exercises`,
}

var programAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new program",
	Long: `Create a new program.

Examples:
  lift program add "Empuje"
  lift program add "Torso/Pierna" --notes "4 días por semana"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")

		p, op, err := engine.CreateProgram(title)
		if err != nil {
			return err
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to create program: %w", err)
		}
		if programNotes != "" {
			op, err := engine.UpdateProgramNotes(p.ID, programNotes)
			if err != nil {
				return err
			}
			if err := await(cmd, op); err != nil {
				return fmt.Errorf("failed to save notes: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		green.Fprintf(out, "✓ Created program %s\n", p.Title)
		fmt.Fprintf(out, "  ID: %s\n", shortID(p.ID))
		return nil
	},
}

var programListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List programs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.LoadPrograms(cmd.Context()); err != nil {
			return fmt.Errorf("failed to list programs: %w", err)
		}

		out := cmd.OutOrStdout()
		programs := engine.Programs()
		if len(programs) == 0 {
			fmt.Fprintln(out, "No programs found.")
			return nil
		}

		for _, p := range programs {
			notes := ""
			if p.Notes != nil && *p.Notes != "" {
				notes = faint.Sprintf(" (%s)", truncate(*p.Notes, 30))
			}
			fmt.Fprintf(out, "%s %s %s%s\n",
				faint.Sprint(shortID(p.ID)),
				faint.Sprint(p.CreatedAt.Local().Format("2006-01-02 15:04")),
				p.Title,
				notes)
		}
		return nil
	},
}

var programRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a program",
	Long: `Change a program's title. Use --notes to replace its notes as well;
an empty --notes clears them.

Examples:
  lift program rename abc123 "Empuje v2"
  lift program rename abc123 "Empuje" --notes "semana de descarga"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		op, err := engine.RenameProgram(p.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("notes") {
			notesOp, err := engine.UpdateProgramNotes(p.ID, programNotes)
			if err != nil {
				return err
			}
			if err := await(cmd, notesOp); err != nil {
				return fmt.Errorf("failed to save notes: %w", err)
			}
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to rename program: %w", err)
		}

		renamed, _ := engine.Program(p.ID)
		green.Fprintf(cmd.OutOrStdout(), "✓ Renamed to %s\n", renamed.Title)
		return nil
	},
}

var programRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete", "del"},
	Short:   "Delete a program",
	Long: `Delete a program by its ID or ID prefix.

CAUTION:

  This permanently deletes the program with all of its days and exercises.
  There is no undo.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		op, err := engine.DeleteProgram(p.ID)
		if err != nil {
			return err
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to delete program: %w", err)
		}

		out := cmd.OutOrStdout()
		yellow.Fprintf(out, "✗ Deleted %s\n", p.Title)
		fmt.Fprintf(out, "  %s\n", faint.Sprint(shortID(p.ID)))
		return nil
	},
}

var programShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a program with its days and exercises",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Program: %s\n", p.Title)
		fmt.Fprintf(out, "ID: %s\n", p.ID)
		fmt.Fprintf(out, "Created: %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
		if p.Notes != nil {
			fmt.Fprintf(out, "Notes: %s\n", *p.Notes)
		}

		days := engine.Days(p.ID)
		if len(days) == 0 {
			fmt.Fprintln(out, "\nNo days yet. Add one with 'lift day add'.")
			return nil
		}
		for _, d := range days {
			fmt.Fprintf(out, "\n%d. %s %s\n", d.DayIndex, d.Title, faint.Sprint(shortID(d.ID)))
			items := engine.Items(d.ID)
			if len(items) == 0 {
				fmt.Fprintln(out, faint.Sprint("   no exercises"))
				continue
			}
			for _, it := range items {
				mark := " "
				if it.Done {
					mark = green.Sprint("✓")
				}
				fmt.Fprintf(out, "   %s %s %d. %s %s\n",
					mark,
					faint.Sprint(shortID(it.ID)),
					it.SortOrder,
					padRight(exerciseName(cat, it.ExerciseID), 28),
					prescriptionLine(it))
				if it.Notes != nil {
					fmt.Fprintf(out, "        %s\n", faint.Sprint(*it.Notes))
				}
			}
		}
		return nil
	},
}

func init() {
	programAddCmd.Flags().StringVar(&programNotes, "notes", "", "program notes")
	programRenameCmd.Flags().StringVar(&programNotes, "notes", "", "replacement notes (empty clears)")

	programCmd.AddCommand(programAddCmd)
	programCmd.AddCommand(programListCmd)
	programCmd.AddCommand(programRenameCmd)
	programCmd.AddCommand(programRmCmd)
	programCmd.AddCommand(programShowCmd)
	rootCmd.AddCommand(programCmd)
}
