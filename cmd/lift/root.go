// ABOUTME: Root Cobra command for lift CLI.
// ABOUTME: Opens the configured gateway and engine in PersistentPreRunE and drains them afterwards.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/charm"
	"github.com/harperreed/lift/internal/compose"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/gateway"
	"github.com/harperreed/lift/internal/logging"
	"github.com/spf13/cobra"
)

// noGateway marks commands that manage their own storage or need none.
const noGateway = "no-gateway"

const drainTimeout = 10 * time.Second

var (
	flagBackend  string
	flagDataDir  string
	flagLogLevel string

	cfg    *config.Config
	gw     gateway.Gateway
	engine *compose.Engine
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lift",
	Short: "Compose workout programs from an exercise catalog",
	Long: `Lift is a CLI tool for composing workout programs.

A program holds ordered training days ("Día A", "Día B", ...). Each day holds
exercises picked from the catalog, each with a prescription (sets, reps, rest),
an optional working weight, notes, and a done mark.

QUICK START:

  $ lift exercises import catalog.yaml       # Seed the exercise catalog
  $ lift exercises search espalda            # Browse exercises by muscle group
  $ lift program add "Empuje"                # Create a program
  $ lift day add <program>                   # Add "Día A"
  $ lift item add <program> 1 press-banca    # Put an exercise on day 1
  $ lift item set <program> <item> --sets 4 --reps 6-8 --weight 80
  $ lift item done <program> <item>          # Mark it done
  $ lift program show <program>              # See the whole program

IDs can be shortened to any unique prefix, as shown by 'lift program list'.

STORAGE BACKENDS:

  sqlite   Local SQLite database (default) at ~/.local/share/lift/lift.db
  charm    Charm Cloud KV, E2E encrypted and synced across devices
  badger   Local Badger KV at ~/.local/share/lift/badger
  memory   In-process only, nothing is kept

  Pick one with --backend or the "backend" key in ~/.config/lift/config.json.

MCP INTEGRATION:

  Run 'lift mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "lift": { "command": "lift", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		return setup(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: sqlite, charm, badger, memory")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.local/share/lift)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagBackend != "" {
		c.Backend = flagBackend
	}
	if flagDataDir != "" {
		c.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}
	return c, nil
}

func setup(cmd *cobra.Command) error {
	// A failed RunE skips PersistentPostRunE, so close anything left open.
	if err := teardown(context.Background()); err != nil {
		return err
	}

	c, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = c
	logger = logging.New(cmd.ErrOrStderr(), cfg.GetLogLevel())

	if cmd.Annotations[noGateway] != "" {
		return nil
	}

	g, err := cfg.OpenGateway()
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.GetBackend(), err)
	}
	gw = g

	opts := []compose.Option{compose.WithLogger(logger)}
	if owner := ownerID(g); owner != "" {
		opts = append(opts, compose.WithOwner(owner))
	}
	engine = compose.New(g, opts...)
	logger.Debug("opened backend", "backend", cfg.GetBackend(), "dir", cfg.GetDataDir())
	return nil
}

// ownerID is the configured owner, or the Charm account id on the charm backend.
func ownerID(g gateway.Gateway) string {
	if cfg.OwnerID != "" {
		return cfg.OwnerID
	}
	if cc, ok := g.(*charm.Client); ok && cfg.GetBackend() == "charm" {
		id, err := cc.ID()
		if err != nil {
			logger.Warn("charm id unavailable, programs are unscoped", "err", err)
			return ""
		}
		return id
	}
	return ""
}

func teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var firstErr error
	if engine != nil {
		dctx, cancel := context.WithTimeout(ctx, drainTimeout)
		if err := engine.Drain(dctx); err != nil {
			logger.Warn("pending writes not drained", "err", err)
		}
		cancel()
		if err := engine.Close(); err != nil {
			firstErr = err
		}
		engine = nil
	}
	if gw != nil {
		if err := gw.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		gw = nil
	}
	return firstErr
}

// loadCatalog reads the exercise catalog from the backend, falling back to
// the configured seed file when the backend holds none.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := catalog.Fetch(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if cat.Len() > 0 || cfg.GetCatalogPath() == "" {
		return cat, nil
	}
	exercises, err := catalog.LoadFile(cfg.GetCatalogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog file: %w", err)
	}
	return catalog.New(exercises), nil
}

// await blocks until op is persisted so failures reach the user.
func await(cmd *cobra.Command, op *compose.Op) error {
	if op == nil {
		return nil
	}
	return op.Wait(cmd.Context())
}
