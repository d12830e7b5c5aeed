// ABOUTME: CLI command for copying all data between storage backends.
// ABOUTME: Refuses non-empty destinations unless --force is given.
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/charm"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom   string
	migrateTo     string
	migrateForce  bool
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data between storage backends",
	Long: `Copy every exercise, program, day, and item from one backend to another.

Both backends use the same --data-dir. The destination should be empty;
records that already exist there make the copy fail part way.

USAGE:

  lift migrate --from sqlite --to charm --dry-run   # Preview counts
  lift migrate --from sqlite --to charm             # Move to Charm Cloud
  lift migrate --from charm --to badger             # Keep a local KV copy

AFTER MIGRATION:

  Point lift at the new backend in ~/.config/lift/config.json:

  { "backend": "charm" }`,
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateFrom == migrateTo {
			return fmt.Errorf("source and destination are both %s", migrateFrom)
		}

		src, err := openBackend(migrateFrom)
		if err != nil {
			return err
		}
		defer src.Close()

		out := cmd.OutOrStdout()
		if migrateDryRun {
			yellow.Fprintln(out, "Dry run mode - no changes will be made")
			fmt.Fprintln(out)
			if err := printCounts(cmd.Context(), cmd, src); err != nil {
				return err
			}
			color.New(color.Bold).Fprintf(out, "Would copy from %s to %s\n", migrateFrom, migrateTo)
			return nil
		}

		if migrateTo == "badger" && !migrateForce {
			dir := filepath.Join(cfg.GetDataDir(), "badger")
			nonEmpty, err := storage.IsDirNonEmpty(dir)
			if err != nil {
				return err
			}
			if nonEmpty {
				return fmt.Errorf("destination %s is not empty (use --force to merge)", dir)
			}
		}

		dst, err := openBackend(migrateTo)
		if err != nil {
			return err
		}
		defer dst.Close()

		if !migrateForce {
			existing, err := dst.Read(cmd.Context(), gateway.Programs, nil, nil)
			if err != nil {
				return fmt.Errorf("failed to check destination: %w", err)
			}
			if len(existing) > 0 {
				return fmt.Errorf("destination %s already has %d programs (use --force to merge)", migrateTo, len(existing))
			}
		}

		// Push to Charm Cloud once at the end instead of after every record.
		kvDst, isKV := dst.(*charm.Client)
		if isKV {
			kvDst.SetAutoSync(false)
		}

		summary, err := storage.MigrateData(cmd.Context(), src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if isKV {
			if err := kvDst.Sync(); err != nil {
				yellow.Fprintf(out, "⚠ Sync after migration failed: %v\n", err)
			}
		}

		green.Fprintf(out, "✓ Migrated %d records from %s to %s\n", summary.Total(), migrateFrom, migrateTo)
		fmt.Fprintf(out, "  exercises %d · programs %d · days %d · items %d\n",
			summary.Exercises, summary.Programs, summary.Days, summary.Items)
		return nil
	},
}

// openBackend opens a gateway for backend with the current data dir.
func openBackend(backend string) (gateway.Gateway, error) {
	c := *cfg
	c.Backend = backend
	g, err := c.OpenGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", backend, err)
	}
	return g, nil
}

// printCounts lists how many records each collection of g holds.
func printCounts(ctx context.Context, cmd *cobra.Command, g gateway.Gateway) error {
	for _, c := range gateway.Collections {
		recs, err := g.Read(ctx, c, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", c, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %d\n", padRight(string(c), 20), len(recs))
	}
	return nil
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "sqlite", "source backend: "+strings.Join(config.Backends, ", "))
	migrateCmd.Flags().StringVar(&migrateTo, "to", "charm", "destination backend: "+strings.Join(config.Backends, ", "))
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "copy even when the destination has data")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	rootCmd.AddCommand(migrateCmd)
}
