package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ldi/tasktree/internal/config"
	"github.com/ldi/tasktree/internal/db"
	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/internal/pgstore"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tasktree",
	Short: "Hierarchical subtask trees for cards",
	Long: `Tasktree manages arbitrarily deep subtask trees attached to cards.

Tasks can be nested, reparented and reordered; completing the last open
child completes its parent, and deleting a task removes its whole
subtree. Progress is aggregated recursively over each card's tree.

The engine is exposed over an MCP server (tasktree mcp) and this CLI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a config file (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(cardsCmd)
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// backend bundles the opened store and the engine built over it. DB is
// nil when the postgres backend is active; snapshot commands need the
// SQLite store.
type backend struct {
	Engine *engine.Engine
	DB     *db.DB
	Config *config.Config

	closeFn func()
}

func (b *backend) Close() {
	if b.closeFn != nil {
		b.closeFn()
	}
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	switch cfg.Storage.Backend {
	case "sqlite":
		database, err := db.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		if err := database.Init(ctx); err != nil {
			database.Close()
			return nil, err
		}
		eng := engine.New(database, engine.AllowAllCards{}, engine.WithLogger(logger))
		return &backend{
			Engine:  eng,
			DB:      database,
			Config:  cfg,
			closeFn: func() { database.Close() },
		}, nil

	case "postgres":
		store, err := pgstore.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		eng := engine.New(store, engine.AllowAllCards{}, engine.WithLogger(logger))
		return &backend{
			Engine:  eng,
			Config:  cfg,
			closeFn: store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
