package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ldi/tasktree/pkg/models"
)

var (
	progressCardID string
	progressNodeID string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show aggregated progress",
	Long: `Show task counts, completion percentage and hour rollups for a
card's whole tree, or for one task's descendants with --task.`,
	RunE: runProgress,
}

func init() {
	progressCmd.Flags().StringVar(&progressCardID, "card", "", "Card to summarize")
	progressCmd.Flags().StringVar(&progressNodeID, "task", "", "Scope to this task's subtree")
	progressCmd.MarkFlagsOneRequired("card", "task")
	progressCmd.MarkFlagsMutuallyExclusive("card", "task")
}

func runProgress(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	var summary *models.ProgressSummary
	if progressNodeID != "" {
		summary, err = b.Engine.SubtreeProgress(ctx, progressNodeID)
	} else {
		summary, err = b.Engine.Progress(ctx, progressCardID)
	}
	if err != nil {
		return err
	}

	if summary.NodeID != "" {
		fmt.Printf("Subtree progress for %s (card %s)\n", summary.NodeID, summary.CardID)
	} else {
		fmt.Printf("Progress for card %s\n", summary.CardID)
	}
	fmt.Printf("  Total:       %d\n", summary.Counts.Total)
	fmt.Printf("  Todo:        %d\n", summary.Counts.Todo)
	fmt.Printf("  In Progress: %d\n", summary.Counts.InProgress)
	fmt.Printf("  Completed:   %d\n", summary.Counts.Completed)
	fmt.Printf("  Completion:  %.2f%%\n", summary.CompletionPercentage)
	fmt.Printf("  Estimated:   %.1fh\n", summary.Hours.EstimatedHours)
	fmt.Printf("  Actual:      %.1fh\n", summary.Hours.ActualHours)
	if summary.Hours.AccuracyPercentage != nil {
		fmt.Printf("  Accuracy:    %.2f%%\n", *summary.Hours.AccuracyPercentage)
	}
	return nil
}
