// ABOUTME: CLI commands for the exercise catalog.
// ABOUTME: Searches grouped by muscle and imports YAML seed files.
package main

import (
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	exercisesLimit int
)

var exercisesCmd = &cobra.Command{
	Use:     "exercises",
	Aliases: []string{"ex"},
	Short:   "Browse and import the exercise catalog",
}

var exercisesSearchCmd = &cobra.Command{
	Use:     "search [query]",
	Aliases: []string{"s", "ls"},
	Short:   "Search exercises, grouped by muscle",
	Long: `Search the exercise catalog. The query matches name, primary muscle,
equipment, and category, ignoring case. Results are grouped by muscle group
(Pecho, Espalda, Hombros, ...) with "Otros" last.

Examples:
  lift exercises search
  lift exercises search espalda
  lift exercises search "mancuerna" --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if cat.Len() == 0 {
			fmt.Fprintln(out, "Catalog is empty. Import one with 'lift exercises import <file>'.")
			return nil
		}

		picker := &catalog.Picker{Catalog: cat, Limit: exercisesLimit}
		groups := picker.Groups(strings.Join(args, " "))
		if len(groups) == 0 {
			fmt.Fprintln(out, "No exercises found.")
			return nil
		}
		fmt.Fprint(out, catalog.Render(groups))
		return nil
	},
}

var exercisesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import exercises from a YAML seed file",
	Long: `Import exercises from a YAML seed file into the current backend.
Exercises whose ID already exists are skipped.

FORMAT:

  exercises:
    - id: press-banca
      name: Press banca
      primary_muscle: Pectoral mayor
      equipment: Barra
      category: Fuerza`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exercises, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}

		n, err := catalog.Seed(cmd.Context(), gw, exercises)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		green.Fprintf(cmd.OutOrStdout(), "✓ Imported %d exercises (%d skipped)\n", n, len(exercises)-n)
		return nil
	},
}

func init() {
	exercisesSearchCmd.Flags().IntVarP(&exercisesLimit, "limit", "n", catalog.DefaultLimit, "max exercises to list")

	exercisesCmd.AddCommand(exercisesSearchCmd)
	exercisesCmd.AddCommand(exercisesImportCmd)
	rootCmd.AddCommand(exercisesCmd)
}
