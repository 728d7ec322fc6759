package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	exportOut    string
	importCardID string
)

var exportCmd = &cobra.Command{
	Use:   "export <card-id>",
	Short: "Export a card's tree to a JSONL snapshot",
	Long: `Write a card's full task tree to a JSONL snapshot file. Without
--out the file lands in the configured snapshot directory. Snapshots
require the SQLite backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <snapshot-file>",
	Short: "Import a card snapshot",
	Long: `Import a JSONL card snapshot. Every task receives a fresh id, so
a snapshot can be imported repeatedly or onto another card with --card.
Snapshots require the SQLite backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Snapshot file to write")
	importCmd.Flags().StringVar(&importCardID, "card", "", "Import onto this card instead of the snapshot's own")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.DB == nil {
		return fmt.Errorf("snapshots are only supported on the sqlite backend")
	}

	cardID := args[0]
	path := exportOut
	if path == "" {
		path = filepath.Join(b.Config.Snapshot.Dir, fmt.Sprintf("card-%s.jsonl", cardID))
	}

	if err := b.DB.ExportCard(ctx, cardID, path); err != nil {
		return err
	}
	fmt.Printf("Exported card %s to %s\n", cardID, path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.DB == nil {
		return fmt.Errorf("snapshots are only supported on the sqlite backend")
	}

	cardID, count, err := b.DB.ImportCard(ctx, args[0], importCardID)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d tasks into card %s\n", count, cardID)
	return nil
}
