package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ldi/tasktree/internal/db"
	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/internal/mcp"
	"github.com/ldi/tasktree/internal/notify"
	"github.com/ldi/tasktree/internal/pgstore"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Run the task tree MCP server over stdin/stdout.

Exposes the full tool surface: create, update, complete, move and delete
tasks, list and tree views, and recursive progress. On the SQLite backend
it also exposes card snapshot export and import.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	bus := notify.NewBus()
	events := bus.Subscribe()
	defer bus.Unsubscribe(events)
	go func() {
		for ev := range events {
			logger.Debug("change event",
				"type", ev.Type, "card", ev.CardID, "node", ev.NodeID)
		}
	}()

	switch cfg.Storage.Backend {
	case "sqlite":
		database, err := db.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Init(ctx); err != nil {
			return err
		}

		if cfg.Snapshot.AutoExport {
			snapshotDir := cfg.Snapshot.Dir
			database.SetOnApply(func(ctx context.Context, cardID string) {
				path := filepath.Join(snapshotDir, fmt.Sprintf("card-%s.jsonl", cardID))
				if err := database.ExportCard(ctx, cardID, path); err != nil {
					fmt.Fprintf(os.Stderr, "Error exporting card snapshot: %v\n", err)
				}
			})
		}

		eng := engine.New(database, engine.AllowAllCards{},
			engine.WithLogger(logger), engine.WithNotifier(bus))
		return mcp.Serve(mcp.NewServer(eng, database))

	case "postgres":
		store, err := pgstore.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}

		eng := engine.New(store, engine.AllowAllCards{},
			engine.WithLogger(logger), engine.WithNotifier(bus))
		return mcp.Serve(mcp.NewServer(eng, nil))
	}

	return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
