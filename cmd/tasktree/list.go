package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/pkg/models"
)

var (
	listCardID   string
	listStatus   string
	listPriority string
	listAssignee string
	listSearch   string
	listSortBy   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a card's tasks",
	Long: `List a card's tasks as a flat table. The default order is the
tree's display order; --sort reorders globally by the given field.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listCardID, "card", "", "Card to list (required)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (todo, in_progress, completed)")
	listCmd.Flags().StringVar(&listPriority, "priority", "", "Filter by priority")
	listCmd.Flags().StringVar(&listAssignee, "assignee", "", "Filter by assignee")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Match title or description")
	listCmd.Flags().StringVar(&listSortBy, "sort", "", "Sort field (order_index, priority, title, created_at, status)")
	listCmd.MarkFlagRequired("card")
}

func buildFilter() engine.ListFilter {
	f := engine.ListFilter{
		Search: listSearch,
		SortBy: engine.SortField(listSortBy),
	}
	if listStatus != "" {
		s := models.TaskStatus(listStatus)
		f.Status = &s
	}
	if listPriority != "" {
		p := models.TaskPriority(listPriority)
		f.Priority = &p
	}
	if listAssignee != "" {
		f.Assignee = &listAssignee
	}
	return f
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	tasks, err := b.Engine.ListTasks(ctx, listCardID, buildFilter())
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	fmt.Printf("%-36s %-12s %-10s %-40s\n", "ID", "STATUS", "PRIORITY", "TITLE")
	for _, t := range tasks {
		fmt.Printf("%-36s %s %-10s %-40s\n", t.ID, colorStatus(t.Status), string(t.Priority), t.Title)
	}
	return nil
}

func colorStatus(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return color.GreenString("%-12s", string(s))
	case models.TaskStatusInProgress:
		return color.YellowString("%-12s", string(s))
	default:
		return fmt.Sprintf("%-12s", string(s))
	}
}
