package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Complete a task",
	Long: `Mark a task completed. When every sibling is already completed
the parent completes too, and so on up the tree.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	node, err := b.Engine.CompleteTask(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: %s\n", color.GreenString("Completed"), node.ID, node.Title)
	return nil
}
