package engine

import (
	"context"

	"github.com/ldi/tasktree/pkg/models"
)

// DeleteTask removes a node and its entire subtree, then compacts the
// order indexes of the node's former siblings. No partial deletion is
// observable.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	s, node, unlock, err := e.resolveForWrite(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	now := e.now()
	cardID := node.CardID
	parentID := node.ParentID
	orderIndex := node.OrderIndex

	removed := s.deleteSubtree(id)

	for _, sibling := range s.childrenOf(parentID) {
		if sibling.OrderIndex > orderIndex {
			sibling.OrderIndex--
			sibling.UpdatedAt = now
			s.markDirty(sibling.ID)
		}
	}

	if err := e.commit(ctx, s); err != nil {
		return err
	}
	e.emit(ctx, models.ChangeTaskDeleted, cardID, id, map[string]any{
		"deleted_count": removed,
	})
	e.log.Debug("subtree deleted", "card", cardID, "node", id, "count", removed)
	return nil
}

// DeleteAllTasks removes every node for a card. Called by the card
// lifecycle collaborator when the owning card is deleted.
func (e *Engine) DeleteAllTasks(ctx context.Context, cardID string) error {
	unlock := e.lockCard(cardID)
	defer unlock()

	s, err := e.loadCard(ctx, cardID)
	if err != nil {
		return err
	}
	removed := len(s.nodes)
	for id := range s.nodes {
		s.markDeleted(id)
	}

	if err := e.commit(ctx, s); err != nil {
		return err
	}
	e.emit(ctx, models.ChangeCardCleared, cardID, "", map[string]any{
		"deleted_count": removed,
	})
	return nil
}

// deleteSubtree marks id and all of its descendants deleted, depth-first,
// and returns the number of removed nodes.
func (s *snapshot) deleteSubtree(id string) int {
	children := make(map[string][]string)
	for _, n := range s.nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.ID)
		}
	}

	removed := 0
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := s.nodes[cur]; !ok {
			continue
		}
		stack = append(stack, children[cur]...)
		s.markDeleted(cur)
		removed++
	}
	return removed
}
