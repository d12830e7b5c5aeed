// ABOUTME: CLI commands for the exercises placed in a day.
// ABOUTME: Supports add, rm, set (prescription, weight, notes), and done.
package main

import (
	"fmt"

	"github.com/harperreed/lift/internal/compose"
	"github.com/harperreed/lift/internal/models"
	"github.com/spf13/cobra"
)

var (
	itemSets        float64
	itemReps        string
	itemRest        float64
	itemWeight      float64
	itemClearWeight bool
	itemNotes       string
)

var itemCmd = &cobra.Command{
	Use:     "item",
	Aliases: []string{"i"},
	Short:   "Manage exercises in a day",
	Long: `Place catalog exercises in a day and edit them.

Items are referenced by ID prefix or by exercise ID, within one program.

COMMANDS:

  add    Put a catalog exercise at the end of a day
  rm     Remove an exercise; the rest are renumbered
  set    Change sets, reps, rest, weight, or notes
  done   Toggle the done mark`,
}

var itemAddCmd = &cobra.Command{
	Use:   "add <program> <day> <exercise-id>",
	Short: "Add a catalog exercise to a day",
	Long: `Add a catalog exercise to a day, by day number or ID prefix. New items get
3 sets of 8-12 with 90s rest. Adding an exercise already in the day does nothing.

Examples:
  lift item add abc123 1 press-banca
  lift item add abc123 2 sentadilla`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		d, err := resolveDay(p.ID, args[1])
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		if err := engine.SelectDay(d.ID); err != nil {
			return err
		}
		var added models.DayItem
		picker := engine.Picker(cat)
		picker.OnPick = func(ex models.Exercise) error {
			it, op, err := engine.AddItemToDay(d.ID, ex.ID)
			if err != nil {
				return err
			}
			added = it
			return await(cmd, op)
		}
		if err := picker.Pick(args[2]); err != nil {
			if models.IsState(err) {
				yellow.Fprintf(cmd.OutOrStdout(), "⚠ %s is already in %s\n", args[2], d.Title)
				return nil
			}
			return fmt.Errorf("failed to add exercise: %w", err)
		}

		out := cmd.OutOrStdout()
		green.Fprintf(out, "✓ Added %s to %s\n", exerciseName(cat, added.ExerciseID), d.Title)
		fmt.Fprintf(out, "  %s %d. %s\n", faint.Sprint(shortID(added.ID)), added.SortOrder, prescriptionLine(added))
		return nil
	},
}

var itemRmCmd = &cobra.Command{
	Use:     "rm <program> <item>",
	Aliases: []string{"delete", "del"},
	Short:   "Remove an exercise from its day",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		it, err := resolveItem(p.ID, args[1])
		if err != nil {
			return err
		}

		op, err := engine.RemoveItem(it.DayID, it.ID)
		if err != nil {
			return err
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to remove exercise: %w", err)
		}

		out := cmd.OutOrStdout()
		yellow.Fprintf(out, "✗ Removed %s\n", it.ExerciseID)
		fmt.Fprintf(out, "  %s\n", faint.Sprint(shortID(it.ID)))
		return nil
	},
}

var itemSetCmd = &cobra.Command{
	Use:   "set <program> <item>",
	Short: "Edit an exercise's prescription, weight, or notes",
	Long: `Edit an exercise in a day. Only the flags you pass are changed.

Examples:
  lift item set abc123 press-banca --sets 4 --reps 6-8
  lift item set abc123 f00d --rest 120 --weight 82.5
  lift item set abc123 f00d --clear-weight --notes ""`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		it, err := resolveItem(p.ID, args[1])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var patch compose.ItemPatch
		if flags.Changed("sets") || flags.Changed("reps") || flags.Changed("rest") {
			rx := it.Prescription
			if flags.Changed("sets") {
				rx.Series = itemSets
			}
			if flags.Changed("reps") {
				rx.Repetitions = itemReps
			}
			if flags.Changed("rest") {
				rx.RestSeconds = itemRest
			}
			patch.Prescription = &rx
		}
		switch {
		case itemClearWeight:
			patch.WeightKg = models.Null[float64]()
		case flags.Changed("weight"):
			patch.WeightKg = models.Set(itemWeight)
		}
		if flags.Changed("notes") {
			patch.Notes = models.Set(itemNotes)
		}

		updated, op, err := engine.UpdateItem(it.ID, patch)
		if err != nil {
			return err
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to update exercise: %w", err)
		}

		out := cmd.OutOrStdout()
		green.Fprintf(out, "✓ Updated %s\n", updated.ExerciseID)
		fmt.Fprintf(out, "  %s %s\n", faint.Sprint(shortID(updated.ID)), prescriptionLine(updated))
		return nil
	},
}

var itemDoneCmd = &cobra.Command{
	Use:   "done <program> <item>",
	Short: "Toggle an exercise's done mark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		it, err := resolveItem(p.ID, args[1])
		if err != nil {
			return err
		}

		toggled, op, err := engine.ToggleDone(it.ID)
		if err != nil {
			return err
		}
		if err := await(cmd, op); err != nil {
			return fmt.Errorf("failed to toggle exercise: %w", err)
		}

		if toggled.Done {
			green.Fprintf(cmd.OutOrStdout(), "✓ %s done\n", toggled.ExerciseID)
		} else {
			yellow.Fprintf(cmd.OutOrStdout(), "○ %s pending\n", toggled.ExerciseID)
		}
		return nil
	},
}

func init() {
	itemSetCmd.Flags().Float64Var(&itemSets, "sets", 0, "number of sets")
	itemSetCmd.Flags().StringVar(&itemReps, "reps", "", "repetitions, e.g. 8-12 or AMRAP")
	itemSetCmd.Flags().Float64Var(&itemRest, "rest", 0, "rest between sets in seconds")
	itemSetCmd.Flags().Float64Var(&itemWeight, "weight", 0, "working weight in kg")
	itemSetCmd.Flags().BoolVar(&itemClearWeight, "clear-weight", false, "remove the working weight")
	itemSetCmd.Flags().StringVar(&itemNotes, "notes", "", "notes (empty clears)")

	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemRmCmd)
	itemCmd.AddCommand(itemSetCmd)
	itemCmd.AddCommand(itemDoneCmd)
	rootCmd.AddCommand(itemCmd)
}
