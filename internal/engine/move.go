package engine

import (
	"context"
	"fmt"

	"github.com/ldi/tasktree/pkg/models"
)

// MoveTask reparents and/or reorders a node. A nil newParentID promotes the
// node to root level; newOrderIndex is clamped to the target group's
// bounds. Reordering within the same parent is the same remove-then-insert
// path. When two moves race on overlapping sibling groups the last
// committed transaction wins.
func (e *Engine) MoveTask(ctx context.Context, id string, newParentID *string, newOrderIndex int) (*models.TaskNode, error) {
	s, node, unlock, err := e.resolveForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if newParentID != nil {
		if _, ok := s.nodes[*newParentID]; !ok {
			return nil, fmt.Errorf("target parent %s: %w", *newParentID, ErrNotFound)
		}
		if wouldCreateCycle(s.nodes, id, *newParentID) {
			return nil, fmt.Errorf("move %s under %s: %w", id, *newParentID, ErrCircularReference)
		}
	}

	now := e.now()
	oldParentID := node.ParentID
	oldIndex := node.OrderIndex

	// Remove from the old group, compacting the remaining siblings.
	for _, sibling := range s.childrenOf(oldParentID) {
		if sibling.ID != node.ID && sibling.OrderIndex > oldIndex {
			sibling.OrderIndex--
			sibling.UpdatedAt = now
			s.markDirty(sibling.ID)
		}
	}

	// Insert into the new group at the clamped position, shifting the
	// siblings at and after it.
	node.ParentID = newParentID
	target := make([]*models.TaskNode, 0)
	for _, sibling := range s.childrenOf(newParentID) {
		if sibling.ID != node.ID {
			target = append(target, sibling)
		}
	}
	index := newOrderIndex
	if index < 0 {
		index = 0
	}
	if index > len(target) {
		index = len(target)
	}
	for _, sibling := range target {
		if sibling.OrderIndex >= index {
			sibling.OrderIndex++
			sibling.UpdatedAt = now
			s.markDirty(sibling.ID)
		}
	}
	node.OrderIndex = index
	node.UpdatedAt = now
	s.markDirty(node.ID)

	// Post-condition: both affected groups must still be densely ordered.
	if !validateSiblingOrder(s.nodes, oldParentID) || !validateSiblingOrder(s.nodes, newParentID) {
		return nil, fmt.Errorf("%w: sibling order violated after move of %s", ErrInternal, id)
	}

	if err := e.commit(ctx, s); err != nil {
		return nil, err
	}
	e.emit(ctx, models.ChangeTaskMoved, node.CardID, node.ID, map[string]any{
		"old_parent_id": parentKey(oldParentID),
		"new_parent_id": parentKey(newParentID),
		"order_index":   index,
	})
	return node.Clone(), nil
}
