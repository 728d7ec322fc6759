package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/pkg/models"
)

var (
	addCardID      string
	addParentID    string
	addDescription string
	addPriority    string
	addAssignee    string
	addEstimate    float64
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to a card",
	Long: `Add a task at the root of a card's tree, or under an existing
parent with --parent. The new task is appended at the end of its sibling
group.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addCardID, "card", "", "Card to attach the task to (required)")
	addCmd.Flags().StringVar(&addParentID, "parent", "", "Parent task id (omit for a root task)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Task description")
	addCmd.Flags().StringVar(&addPriority, "priority", "", "Priority (low, medium, high, critical)")
	addCmd.Flags().StringVar(&addAssignee, "assignee", "", "Assignee")
	addCmd.Flags().Float64Var(&addEstimate, "estimate", 0, "Estimated hours")
	addCmd.MarkFlagRequired("card")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	in := engine.CreateInput{
		Title:       args[0],
		Description: addDescription,
		Priority:    models.TaskPriority(addPriority),
	}
	if addParentID != "" {
		in.ParentID = &addParentID
	}
	if addAssignee != "" {
		in.Assignee = &addAssignee
	}
	if cmd.Flags().Changed("estimate") {
		in.EstimatedHours = &addEstimate
	}

	node, err := b.Engine.CreateTask(ctx, addCardID, in)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s: %s\n", node.ID, node.Title)
	return nil
}
