package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ldi/tasktree/pkg/models"
)

func strPtr(s string) *string { return &s }

func node(id string, parentID *string, orderIndex int) *models.TaskNode {
	return &models.TaskNode{
		ID:         id,
		CardID:     "card-1",
		ParentID:   parentID,
		Title:      id,
		Status:     models.TaskStatusTodo,
		Priority:   models.PriorityMedium,
		OrderIndex: orderIndex,
	}
}

func nodeSet(nodes ...*models.TaskNode) map[string]*models.TaskNode {
	byID := make(map[string]*models.TaskNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return byID
}

func TestWouldCreateCycle(t *testing.T) {
	// a -> b -> c, with d as an unrelated root
	byID := nodeSet(
		node("a", nil, 0),
		node("b", strPtr("a"), 0),
		node("c", strPtr("b"), 0),
		node("d", nil, 1),
	)

	tests := []struct {
		name     string
		movingID string
		parentID string
		want     bool
	}{
		{"self parent", "a", "a", true},
		{"direct child", "a", "b", true},
		{"grandchild", "a", "c", true},
		{"unrelated root", "a", "d", false},
		{"leaf under sibling tree", "c", "d", false},
		{"child up to its own ancestor is fine", "c", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wouldCreateCycle(byID, tt.movingID, tt.parentID))
		})
	}
}

func TestWouldCreateCycleCorruptedChain(t *testing.T) {
	// x and y point at each other; the walk must terminate and report a cycle.
	byID := nodeSet(
		node("x", strPtr("y"), 0),
		node("y", strPtr("x"), 0),
		node("m", nil, 0),
	)

	assert.True(t, wouldCreateCycle(byID, "m", "x"))
}

func TestValidateSiblingOrder(t *testing.T) {
	t.Run("dense group is valid", func(t *testing.T) {
		byID := nodeSet(
			node("a", nil, 0),
			node("b", nil, 1),
			node("c", nil, 2),
			node("a1", strPtr("a"), 0),
		)
		assert.True(t, validateSiblingOrder(byID, nil))
		assert.True(t, validateSiblingOrder(byID, strPtr("a")))
	})

	t.Run("gap is invalid", func(t *testing.T) {
		byID := nodeSet(
			node("a", nil, 0),
			node("b", nil, 2),
		)
		assert.False(t, validateSiblingOrder(byID, nil))
	})

	t.Run("duplicate index is invalid", func(t *testing.T) {
		byID := nodeSet(
			node("a", nil, 0),
			node("b", nil, 0),
		)
		assert.False(t, validateSiblingOrder(byID, nil))
	})

	t.Run("empty group is valid", func(t *testing.T) {
		byID := nodeSet(node("a", nil, 0))
		assert.True(t, validateSiblingOrder(byID, strPtr("a")))
	})
}

func TestCascadeCompletionStopsAtIncompleteChild(t *testing.T) {
	now := time.Now()
	parent := node("parent", nil, 0)
	done := node("done", strPtr("parent"), 0)
	done.Status = models.TaskStatusCompleted
	open := node("open", strPtr("parent"), 1)

	s := &snapshot{
		cardID:  "card-1",
		nodes:   nodeSet(parent, done, open),
		dirty:   map[string]struct{}{},
		deleted: map[string]struct{}{},
	}
	s.cascadeCompletion(strPtr("parent"), now)

	assert.Equal(t, models.TaskStatusTodo, parent.Status)
	assert.Empty(t, s.dirty)
}

func TestCascadeCompletionClimbsMultipleLevels(t *testing.T) {
	now := time.Now()
	root := node("root", nil, 0)
	mid := node("mid", strPtr("root"), 0)
	leaf := node("leaf", strPtr("mid"), 0)
	leaf.Status = models.TaskStatusCompleted

	s := &snapshot{
		cardID:  "card-1",
		nodes:   nodeSet(root, mid, leaf),
		dirty:   map[string]struct{}{},
		deleted: map[string]struct{}{},
	}
	s.cascadeCompletion(strPtr("mid"), now)

	assert.Equal(t, models.TaskStatusCompleted, mid.Status)
	assert.Equal(t, models.TaskStatusCompleted, root.Status)
	assert.NotNil(t, mid.CompletedAt)
	assert.NotNil(t, root.CompletedAt)
}

func TestCascadeCompletionSkipsAlreadyCompletedAncestor(t *testing.T) {
	now := time.Now()
	root := node("root", nil, 0)
	mid := node("mid", strPtr("root"), 0)
	mid.Status = models.TaskStatusCompleted
	leaf := node("leaf", strPtr("mid"), 0)
	leaf.Status = models.TaskStatusCompleted

	s := &snapshot{
		cardID:  "card-1",
		nodes:   nodeSet(root, mid, leaf),
		dirty:   map[string]struct{}{},
		deleted: map[string]struct{}{},
	}
	s.cascadeCompletion(strPtr("mid"), now)

	// mid was already completed, so nothing changes and root stays open.
	assert.Equal(t, models.TaskStatusTodo, root.Status)
	assert.Empty(t, s.dirty)
}

func TestCascadeCompletionIgnoresChildlessParent(t *testing.T) {
	now := time.Now()
	root := node("root", nil, 0)

	s := &snapshot{
		cardID:  "card-1",
		nodes:   nodeSet(root),
		dirty:   map[string]struct{}{},
		deleted: map[string]struct{}{},
	}
	// Simulates the last child having just been deleted from the snapshot.
	s.cascadeCompletion(strPtr("root"), now)

	assert.Equal(t, models.TaskStatusTodo, root.Status)
}
