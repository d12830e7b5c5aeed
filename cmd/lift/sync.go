// ABOUTME: CLI commands for Charm-based sync of lift data.
// ABOUTME: Supports link, unlink, status, now, repair, reset, and wipe operations.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/lift/internal/charm"
	"github.com/spf13/cobra"
)

const charmDB = "lift"

var syncRepairForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync programs across devices",
	Long: `Sync programs and the exercise catalog across devices using Charm Cloud.

Your data is E2E encrypted with your SSH key before upload.
These commands act on the charm backend whatever --backend says.

GETTING STARTED:

  1. Link your device (creates/uses SSH key automatically):
     lift sync link

  2. Switch lift to the charm backend in ~/.config/lift/config.json:
     { "backend": "charm" }

  3. Check sync status:
     lift sync status

COMMANDS:

  link        Link this device to your Charm account
  unlink      Disconnect this device from Charm
  status      Show sync status and record counts
  now         Pull and push changes immediately
  repair      Repair local database corruption
  reset       Reset local data and restore from cloud (destructive)
  wipe        Delete cloud and local data (destructive)

Data syncs automatically after each change on the charm backend.`,
}

var syncLinkCmd = &cobra.Command{
	Use:         "link",
	Short:       "Link this device to Charm",
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharm(cmd, "link"); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}
		out := cmd.OutOrStdout()
		green.Fprintln(out, "\n✓ Device linked to Charm")

		c, err := charm.GetClient()
		if err != nil {
			yellow.Fprintf(out, "⚠ Initial sync skipped: %v\n", err)
			return nil
		}
		defer c.Close()
		if err := c.Sync(); err != nil {
			yellow.Fprintf(out, "⚠ Initial sync failed: %v\n", err)
			return nil
		}
		green.Fprintln(out, "✓ Initial sync complete")
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:         "unlink",
	Short:       "Disconnect from Charm",
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharm(cmd, "unlink"); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}
		green.Fprintln(cmd.OutOrStdout(), "✓ Device unlinked from Charm")
		fmt.Fprintln(cmd.OutOrStdout(), "Your local lift data is preserved.")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show sync status",
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c, err := charm.GetClient()
		if err != nil {
			yellow.Fprintf(out, "Charm client not available: %v\n", err)
			fmt.Fprintln(out, "\nRun 'lift sync link' to connect to Charm.")
			return nil
		}
		defer c.Close()

		id, err := c.ID()
		if err != nil {
			yellow.Fprintln(out, "Not linked to Charm")
			fmt.Fprintln(out, "\nRun 'lift sync link' to connect to Charm.")
			return nil
		}
		fmt.Fprintln(out, "Charm ID:", id)
		if c.IsReadOnly() {
			yellow.Fprintln(out, "⚠ Read-only: another process holds the database lock")
		}
		fmt.Fprintln(out)
		green.Fprintln(out, "✓ Connected to Charm")
		return printCounts(cmd.Context(), cmd, c)
	},
}

var syncNowCmd = &cobra.Command{
	Use:         "now",
	Short:       "Pull and push changes immediately",
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := charm.GetClient()
		if err != nil {
			return fmt.Errorf("failed to open charm: %w", err)
		}
		defer c.Close()
		if c.IsReadOnly() {
			return fmt.Errorf("cannot sync: database is locked by another process")
		}
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		green.Fprintln(cmd.OutOrStdout(), "✓ Synced with Charm Cloud")
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:         "repair",
	Short:       "Repair database corruption",
	Long:        `Repair the local Charm database by checkpointing WAL, removing SHM files, checking integrity, and vacuuming.`,
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Repairing lift database...")
		result, err := kv.Repair(charmDB, syncRepairForce)

		if result.WalCheckpointed {
			green.Fprintln(out, "  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			green.Fprintln(out, "  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			green.Fprintln(out, "  ✓ Integrity check passed")
		} else {
			red.Fprintln(out, "  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			green.Fprintln(out, "  ✓ Database vacuumed")
		}

		if err != nil {
			if !syncRepairForce {
				yellow.Fprintln(out, "\nRun with --force to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}
		green.Fprintln(out, "\n✓ Repair complete")
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:         "reset",
	Short:       "Reset local data and restore from cloud",
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "This will DELETE all local lift data and restore from cloud.")
		if !confirm(out, cmd.InOrStdin(), "Continue? [y/N]: ", "y") {
			fmt.Fprintln(out, "Canceled.")
			return nil
		}

		c, err := charm.GetClient()
		if err != nil {
			return fmt.Errorf("failed to open charm: %w", err)
		}
		defer c.Close()
		if err := c.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		green.Fprintln(out, "✓ Local data reset and restored from cloud")
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:         "wipe",
	Short:       "Delete all cloud and local data",
	Annotations: map[string]string{noGateway: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "This will PERMANENTLY DELETE all cloud backups and local lift data.")
		if !confirm(out, cmd.InOrStdin(), "Type 'wipe' to confirm: ", "wipe") {
			fmt.Fprintln(out, "Canceled.")
			return nil
		}

		result, err := kv.Wipe(charmDB)
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}
		green.Fprintln(out, "✓ Data wiped successfully")
		fmt.Fprintf(out, "  Cloud backups deleted: %d\n", result.CloudBackupsDeleted)
		fmt.Fprintf(out, "  Local files deleted: %d\n", result.LocalFilesDeleted)
		return nil
	},
}

func runCharm(cmd *cobra.Command, verb string) error {
	c := exec.CommandContext(cmd.Context(), "charm", verb)
	c.Stdin = os.Stdin
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}

// confirm prompts on out and reports whether the answer matches want,
// ignoring case. EOF counts as no.
func confirm(out io.Writer, in io.Reader, prompt, want string) bool {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), want)
}

func init() {
	syncRepairCmd.Flags().BoolVar(&syncRepairForce, "force", false, "attempt recovery even if integrity checks fail")

	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)
	rootCmd.AddCommand(syncCmd)
}
