package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List cards that have tasks",
	Long: `List every card id with at least one task, with its task count
and completion percentage. Requires the SQLite backend.`,
	RunE: runCards,
}

func runCards(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if b.DB == nil {
		return fmt.Errorf("card listing is only supported on the sqlite backend")
	}

	cards, err := b.DB.ListCards(ctx)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Println("No cards.")
		return nil
	}

	fmt.Printf("%-36s %8s %12s\n", "CARD", "TASKS", "COMPLETION")
	for _, cardID := range cards {
		summary, err := b.Engine.Progress(ctx, cardID)
		if err != nil {
			return err
		}
		fmt.Printf("%-36s %8d %11.2f%%\n", cardID, summary.Counts.Total, summary.CompletionPercentage)
	}
	return nil
}
