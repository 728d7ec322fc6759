package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ldi/tasktree/internal/db"
	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server exposing the subtask engine. The
// snapshot tools are only registered when a SQLite database is supplied.
func NewServer(eng *engine.Engine, database *db.DB) *server.MCPServer {
	s := server.NewMCPServer("TaskTree", "0.1.0")

	// Task Management
	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a subtask on a card, at root level or under an existing parent."),
		mcp.WithString("card_id", mcp.Description("Owning card id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Task title (non-empty)"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("parent_id", mcp.Description("Parent task id (omit for root level)")),
		mcp.WithString("status", mcp.Description("Initial status (todo|in_progress|completed), defaults to todo")),
		mcp.WithString("priority", mcp.Description("Priority (low|medium|high|critical), defaults to medium")),
		mcp.WithString("assignee", mcp.Description("Assignee")),
		mcp.WithNumber("estimated_hours", mcp.Description("Estimated hours (non-negative)")),
	), createTaskHandler(eng))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update a task's title, description, priority, status, assignee or estimate. Status changes propagate completion upward."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority", mcp.Description("New priority")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithString("assignee", mcp.Description("New assignee (empty string clears)")),
		mcp.WithNumber("estimated_hours", mcp.Description("New estimated hours")),
	), updateTaskHandler(eng))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task completed. Completing the last open child completes the parent, recursively."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), completeTaskHandler(eng))

	s.AddTool(mcp.NewTool("move_task",
		mcp.WithDescription("Reparent and/or reorder a task. Omit parent_id to promote to root level; order_index is clamped to the target group."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("parent_id", mcp.Description("New parent task id (omit for root level)")),
		mcp.WithNumber("order_index", mcp.Description("Position within the new sibling group"), mcp.Required()),
	), moveTaskHandler(eng))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task and its entire subtree."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(eng))

	s.AddTool(mcp.NewTool("delete_card_tasks",
		mcp.WithDescription("Delete every task for a card. Called when the owning card is deleted."),
		mcp.WithString("card_id", mcp.Description("Card id"), mcp.Required()),
	), deleteCardTasksHandler(eng))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List a card's tasks as a flat list with optional filters."),
		mcp.WithString("card_id", mcp.Description("Card id"), mcp.Required()),
		mcp.WithString("status", mcp.Description("Filter by status")),
		mcp.WithString("priority", mcp.Description("Filter by priority")),
		mcp.WithString("assignee", mcp.Description("Filter by assignee")),
		mcp.WithString("search", mcp.Description("Text search over title and description")),
		mcp.WithString("sort_by", mcp.Description("Sort field (order_index|priority|title|created_at|status)")),
	), listTasksHandler(eng))

	s.AddTool(mcp.NewTool("get_task_tree",
		mcp.WithDescription("Get a card's tasks as a hierarchy. Filters keep matching nodes and their ancestors."),
		mcp.WithString("card_id", mcp.Description("Card id"), mcp.Required()),
		mcp.WithString("status", mcp.Description("Filter by status")),
		mcp.WithString("priority", mcp.Description("Filter by priority")),
		mcp.WithString("assignee", mcp.Description("Filter by assignee")),
		mcp.WithString("search", mcp.Description("Text search over title and description")),
	), getTaskTreeHandler(eng))

	s.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Get status counts, completion percentage and hour rollups for a card."),
		mcp.WithString("card_id", mcp.Description("Card id"), mcp.Required()),
	), getProgressHandler(eng))

	s.AddTool(mcp.NewTool("get_subtree_progress",
		mcp.WithDescription("Get the same progress metrics scoped to one task's descendants."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), getSubtreeProgressHandler(eng))

	if database != nil {
		s.AddTool(mcp.NewTool("export_card",
			mcp.WithDescription("Export a card's task tree to a JSONL snapshot file."),
			mcp.WithString("card_id", mcp.Description("Card id"), mcp.Required()),
			mcp.WithString("path", mcp.Description("Destination file path"), mcp.Required()),
		), exportCardHandler(database))

		s.AddTool(mcp.NewTool("import_card",
			mcp.WithDescription("Import a JSONL snapshot, assigning fresh ids to every node."),
			mcp.WithString("path", mcp.Description("Snapshot file path"), mcp.Required()),
			mcp.WithString("card_id", mcp.Description("Target card id (defaults to the snapshot's card)")),
		), importCardHandler(database))
	}

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func createTaskHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := engine.CreateInput{
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			Status:      models.TaskStatus(mcp.ParseString(request, "status", "")),
			Priority:    models.TaskPriority(mcp.ParseString(request, "priority", "")),
		}
		if parentID := mcp.ParseString(request, "parent_id", ""); parentID != "" {
			in.ParentID = &parentID
		}
		if assignee := mcp.ParseString(request, "assignee", ""); assignee != "" {
			in.Assignee = &assignee
		}
		args, _ := request.Params.Arguments.(map[string]any)
		if v, ok := args["estimated_hours"].(float64); ok {
			in.EstimatedHours = &v
		}

		node, err := eng.CreateTask(ctx, mcp.ParseString(request, "card_id", ""), in)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(node)
	}
}

func updateTaskHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var patch engine.Patch
		args, _ := request.Params.Arguments.(map[string]any)
		if v, ok := args["title"].(string); ok {
			patch.Title = &v
		}
		if v, ok := args["description"].(string); ok {
			patch.Description = &v
		}
		if v, ok := args["priority"].(string); ok {
			p := models.TaskPriority(v)
			patch.Priority = &p
		}
		if v, ok := args["status"].(string); ok {
			st := models.TaskStatus(v)
			patch.Status = &st
		}
		if v, ok := args["assignee"].(string); ok {
			patch.Assignee = &v
		}
		if v, ok := args["estimated_hours"].(float64); ok {
			patch.EstimatedHours = &v
		}

		node, err := eng.UpdateTask(ctx, mcp.ParseString(request, "id", ""), patch)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(node)
	}
}

func completeTaskHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		node, err := eng.CompleteTask(ctx, mcp.ParseString(request, "id", ""))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(node)
	}
}

func moveTaskHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var parentID *string
		if v := mcp.ParseString(request, "parent_id", ""); v != "" {
			parentID = &v
		}
		orderIndex := mcp.ParseInt(request, "order_index", 0)

		node, err := eng.MoveTask(ctx, mcp.ParseString(request, "id", ""), parentID, orderIndex)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(node)
	}
}

func deleteTaskHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		if err := eng.DeleteTask(ctx, id); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %s and its subtree deleted", id)), nil
	}
}

func deleteCardTasksHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cardID := mcp.ParseString(request, "card_id", "")
		if err := eng.DeleteAllTasks(ctx, cardID); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("All tasks for card %s deleted", cardID)), nil
	}
}

func parseFilter(request mcp.CallToolRequest) engine.ListFilter {
	var f engine.ListFilter
	if v := mcp.ParseString(request, "status", ""); v != "" {
		st := models.TaskStatus(v)
		f.Status = &st
	}
	if v := mcp.ParseString(request, "priority", ""); v != "" {
		p := models.TaskPriority(v)
		f.Priority = &p
	}
	if v := mcp.ParseString(request, "assignee", ""); v != "" {
		f.Assignee = &v
	}
	f.Search = mcp.ParseString(request, "search", "")
	f.SortBy = engine.SortField(mcp.ParseString(request, "sort_by", ""))
	return f
}

func listTasksHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		nodes, err := eng.ListTasks(ctx, mcp.ParseString(request, "card_id", ""), parseFilter(request))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(nodes)
	}
}

func getTaskTreeHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tree, err := eng.ListTree(ctx, mcp.ParseString(request, "card_id", ""), parseFilter(request))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(tree)
	}
}

func getProgressHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := eng.Progress(ctx, mcp.ParseString(request, "card_id", ""))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(summary)
	}
}

func getSubtreeProgressHandler(eng *engine.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := eng.SubtreeProgress(ctx, mcp.ParseString(request, "id", ""))
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(summary)
	}
}

func exportCardHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cardID := mcp.ParseString(request, "card_id", "")
		path := mcp.ParseString(request, "path", "")
		if err := database.ExportCard(ctx, cardID, path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Card %s exported to %s", cardID, path)), nil
	}
}

func importCardHandler(database *db.DB) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := mcp.ParseString(request, "path", "")
		target := mcp.ParseString(request, "card_id", "")
		cardID, count, err := database.ImportCard(ctx, path, target)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Imported %d tasks into card %s", count, cardID)), nil
	}
}

// toolError renders an engine error with its stable code so calling UIs
// can show specific guidance.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", engine.CodeOf(err), err.Error()))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
