package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/internal/memstore"
	"github.com/ldi/tasktree/pkg/models"
)

func titles(nodes []*models.TaskNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Title
	}
	return out
}

func TestListTasksDisplayOrder(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	a := mustCreate(t, eng, nil, "A")
	mustCreate(t, eng, &a.ID, "A1")
	a2 := mustCreate(t, eng, &a.ID, "A2")
	mustCreate(t, eng, &a2.ID, "A2x")
	mustCreate(t, eng, nil, "B")

	nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{})
	require.NoError(t, err)

	// Depth-first, children in sibling order.
	assert.Equal(t, []string{"A", "A1", "A2", "A2x", "B"}, titles(nodes))
}

func TestListTasksFilters(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	high := models.PriorityHigh
	assignee := "dana"
	_, err := eng.CreateTask(ctx, testCard, engine.CreateInput{
		Title:    "deploy pipeline",
		Priority: high,
		Assignee: &assignee,
	})
	require.NoError(t, err)

	done, err := eng.CreateTask(ctx, testCard, engine.CreateInput{Title: "write docs"})
	require.NoError(t, err)
	_, err = eng.CompleteTask(ctx, done.ID)
	require.NoError(t, err)

	t.Run("by status", func(t *testing.T) {
		completed := models.TaskStatusCompleted
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{Status: &completed})
		require.NoError(t, err)
		assert.Equal(t, []string{"write docs"}, titles(nodes))
	})

	t.Run("by priority", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{Priority: &high})
		require.NoError(t, err)
		assert.Equal(t, []string{"deploy pipeline"}, titles(nodes))
	})

	t.Run("by assignee", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{Assignee: &assignee})
		require.NoError(t, err)
		assert.Equal(t, []string{"deploy pipeline"}, titles(nodes))
	})

	t.Run("by search", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{Search: "DOCS"})
		require.NoError(t, err)
		assert.Equal(t, []string{"write docs"}, titles(nodes), "search is case-insensitive")
	})

	t.Run("no match", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{Search: "nothing here"})
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}

func TestListTasksSorts(t *testing.T) {
	ctx := context.Background()

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	eng := engine.New(memstore.New(), engine.AllowAllCards{},
		engine.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}))

	for _, spec := range []struct {
		title    string
		priority models.TaskPriority
	}{
		{"banana", models.PriorityLow},
		{"apple", models.PriorityCritical},
		{"Cherry", models.PriorityMedium},
	} {
		_, err := eng.CreateTask(ctx, testCard, engine.CreateInput{
			Title:    spec.title,
			Priority: spec.priority,
		})
		require.NoError(t, err)
	}

	t.Run("priority sorts most urgent first", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{SortBy: engine.SortPriority})
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "Cherry", "banana"}, titles(nodes))
	})

	t.Run("title sorts case-insensitively", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{SortBy: engine.SortTitle})
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "banana", "Cherry"}, titles(nodes))
	})

	t.Run("created_at sorts oldest first", func(t *testing.T) {
		nodes, err := eng.ListTasks(ctx, testCard, engine.ListFilter{SortBy: engine.SortCreatedAt})
		require.NoError(t, err)
		assert.Equal(t, []string{"banana", "apple", "Cherry"}, titles(nodes))
	})

	t.Run("unknown sort field", func(t *testing.T) {
		_, err := eng.ListTasks(ctx, testCard, engine.ListFilter{SortBy: "favorite_color"})
		assert.ErrorIs(t, err, engine.ErrValidation)
	})
}

func TestListTree(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	root := mustCreate(t, eng, nil, "root")
	mid := mustCreate(t, eng, &root.ID, "mid")
	mustCreate(t, eng, &mid.ID, "deep match")
	mustCreate(t, eng, nil, "unrelated")

	t.Run("full tree", func(t *testing.T) {
		tree, err := eng.ListTree(ctx, testCard, engine.ListFilter{})
		require.NoError(t, err)
		require.Len(t, tree, 2)
		assert.Equal(t, "root", tree[0].Title)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, "mid", tree[0].Children[0].Title)
	})

	t.Run("filter keeps ancestors of matches", func(t *testing.T) {
		tree, err := eng.ListTree(ctx, testCard, engine.ListFilter{Search: "deep"})
		require.NoError(t, err)

		// Only the path root -> mid -> deep match survives.
		require.Len(t, tree, 1)
		assert.Equal(t, "root", tree[0].Title)
		require.Len(t, tree[0].Children, 1)
		require.Len(t, tree[0].Children[0].Children, 1)
		assert.Equal(t, "deep match", tree[0].Children[0].Children[0].Title)
	})

	t.Run("empty card", func(t *testing.T) {
		tree, err := eng.ListTree(ctx, "empty-card", engine.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, tree)
	})
}

func TestGetTask(t *testing.T) {
	eng, _ := newTestEngine(t)
	node := mustCreate(t, eng, nil, "task")

	got, err := eng.GetTask(context.Background(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, got.ID)

	_, err = eng.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
