package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldi/tasktree/internal/engine"
)

func TestDeleteTaskRemovesSubtree(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	// B has children B1 and B2; B2 has grandchild B2a. A and C flank B.
	a := mustCreate(t, eng, nil, "A")
	b := mustCreate(t, eng, nil, "B")
	c := mustCreate(t, eng, nil, "C")
	b1 := mustCreate(t, eng, &b.ID, "B1")
	b2 := mustCreate(t, eng, &b.ID, "B2")
	b2a := mustCreate(t, eng, &b2.ID, "B2a")

	require.NoError(t, eng.DeleteTask(ctx, b.ID))

	for _, id := range []string{b.ID, b1.ID, b2.ID, b2a.ID} {
		node, err := store.GetNode(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, node, "descendant must be gone")
	}

	// The surviving siblings are reindexed to 0..1.
	assert.Equal(t, []string{"A", "C"}, siblingTitles(t, eng, nil))
	assert.Equal(t, 0, mustGet(t, eng, a.ID).OrderIndex)
	assert.Equal(t, 1, mustGet(t, eng, c.ID).OrderIndex)
	assert.Equal(t, 2, store.Len())
}

func TestDeleteTaskDoesNotAutoCompleteParent(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	parent := mustCreate(t, eng, nil, "parent")
	done := mustCreate(t, eng, &parent.ID, "done")
	open := mustCreate(t, eng, &parent.ID, "open")

	_, err := eng.CompleteTask(ctx, done.ID)
	require.NoError(t, err)

	// Removing the only open child leaves the parent alone: deletion is
	// not completion.
	require.NoError(t, eng.DeleteTask(ctx, open.ID))
	assert.Equal(t, "todo", string(mustGet(t, eng, parent.ID).Status))
}

func TestDeleteTaskUnknown(t *testing.T) {
	eng, _ := newTestEngine(t)
	err := eng.DeleteTask(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDeleteAllTasks(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)

	root := mustCreate(t, eng, nil, "root")
	mustCreate(t, eng, &root.ID, "child")

	other, err := eng.CreateTask(ctx, "card-2", engine.CreateInput{Title: "other card"})
	require.NoError(t, err)

	require.NoError(t, eng.DeleteAllTasks(ctx, testCard))

	assert.Equal(t, 1, store.Len(), "only the other card's node survives")
	survivor, err := store.GetNode(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, survivor)
}

func TestDeleteAllTasksEmptyCard(t *testing.T) {
	eng, _ := newTestEngine(t)
	assert.NoError(t, eng.DeleteAllTasks(context.Background(), "empty-card"))
}
