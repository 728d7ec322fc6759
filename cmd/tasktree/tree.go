package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ldi/tasktree/pkg/models"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show a card's task hierarchy",
	Long: `Render a card's tasks as an indented tree in sibling order.
Filters keep matching tasks and their ancestors so matches stay
reachable from the root.`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&listCardID, "card", "", "Card to render (required)")
	treeCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (todo, in_progress, completed)")
	treeCmd.Flags().StringVar(&listPriority, "priority", "", "Filter by priority")
	treeCmd.Flags().StringVar(&listAssignee, "assignee", "", "Filter by assignee")
	treeCmd.Flags().StringVar(&listSearch, "search", "", "Match title or description")
	treeCmd.MarkFlagRequired("card")
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	roots, err := b.Engine.ListTree(ctx, listCardID, buildFilter())
	if err != nil {
		return err
	}

	if len(roots) == 0 {
		fmt.Println("No tasks.")
		return nil
	}
	printTree(roots, "")
	return nil
}

func printTree(group []*models.TreeNode, prefix string) {
	for i, t := range group {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(group)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		marker := "[ ]"
		switch t.Status {
		case models.TaskStatusCompleted:
			marker = color.GreenString("[x]")
		case models.TaskStatusInProgress:
			marker = color.YellowString("[~]")
		}
		fmt.Printf("%s%s%s %s  %s\n", prefix, connector, marker, t.Title, color.HiBlackString(t.ID))

		printTree(t.Children, childPrefix)
	}
}
