package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCardID string

var rmCmd = &cobra.Command{
	Use:   "rm [task-id]",
	Short: "Delete a task and its subtree",
	Long: `Delete a task and every task nested under it. The remaining
siblings are reindexed to stay dense. With --card and no task id, all of
the card's tasks are removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().StringVar(&rmCardID, "card", "", "Clear every task on this card instead")
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	switch {
	case len(args) == 1:
		if err := b.Engine.DeleteTask(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s and its subtree\n", args[0])
	case rmCardID != "":
		if err := b.Engine.DeleteAllTasks(ctx, rmCardID); err != nil {
			return err
		}
		fmt.Printf("Cleared all tasks on card %s\n", rmCardID)
	default:
		return fmt.Errorf("pass a task id or --card")
	}
	return nil
}
