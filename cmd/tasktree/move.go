package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	moveParentID string
	moveIndex    int
)

var moveCmd = &cobra.Command{
	Use:   "move <task-id>",
	Short: "Move a task within its card",
	Long: `Reparent and reorder a task. --parent selects the new parent
(omit it to move to root level) and --index the position among its new
siblings. The whole subtree moves with the task; moving a task under its
own descendant is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runMove,
}

func init() {
	moveCmd.Flags().StringVar(&moveParentID, "parent", "", "New parent task id (omit for root level)")
	moveCmd.Flags().IntVar(&moveIndex, "index", 0, "Position among the new siblings")
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	var parentID *string
	if moveParentID != "" {
		parentID = &moveParentID
	}

	node, err := b.Engine.MoveTask(ctx, args[0], parentID, moveIndex)
	if err != nil {
		return err
	}

	fmt.Printf("Moved %s to index %d\n", node.ID, node.OrderIndex)
	return nil
}
