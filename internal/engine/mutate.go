package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ldi/tasktree/pkg/models"
)

// CreateInput holds the attributes for a new task node. Zero values fall
// back to the defaults: status todo, priority medium.
type CreateInput struct {
	Title          string
	Description    string
	ParentID       *string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	Assignee       *string
	EstimatedHours *float64
}

// CreateTask creates a node at root level or under an existing parent. The
// new node is appended at the end of its sibling group.
func (e *Engine) CreateTask(ctx context.Context, cardID string, in CreateInput) (*models.TaskNode, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	status := in.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, in.Status)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, in.Priority)
	}
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		return nil, fmt.Errorf("%w: estimated hours must not be negative", ErrValidation)
	}

	unlock := e.lockCard(cardID)
	defer unlock()

	if in.ParentID == nil {
		ok, err := e.cards.CardExists(ctx, cardID)
		if err != nil {
			return nil, internalErr(err)
		}
		if !ok {
			return nil, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
	}

	s, err := e.loadCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, ok := s.nodes[*in.ParentID]; !ok {
			return nil, fmt.Errorf("parent %s: %w", *in.ParentID, ErrParentNotFound)
		}
	}

	now := e.now()
	node := &models.TaskNode{
		ID:             uuid.New().String(),
		CardID:         cardID,
		ParentID:       in.ParentID,
		Title:          title,
		Description:    in.Description,
		Status:         status,
		Priority:       priority,
		OrderIndex:     len(s.childrenOf(in.ParentID)),
		Assignee:       in.Assignee,
		EstimatedHours: in.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == models.TaskStatusCompleted {
		node.CompletedAt = &now
	}
	s.nodes[node.ID] = node
	s.markDirty(node.ID)

	if status == models.TaskStatusCompleted {
		s.cascadeCompletion(node.ParentID, now)
	}

	if err := e.commit(ctx, s); err != nil {
		return nil, err
	}
	e.emit(ctx, models.ChangeTaskCreated, cardID, node.ID, map[string]any{
		"title":     node.Title,
		"parent_id": parentKey(node.ParentID),
	})
	e.log.Debug("task created", "card", cardID, "node", node.ID)
	return node.Clone(), nil
}

// Patch lists the fields an update may change. Nil fields are left
// untouched; an empty assignee clears the assignment. Status changes route
// through the completion propagator, never through a direct write.
type Patch struct {
	Title          *string
	Description    *string
	Priority       *models.TaskPriority
	Status         *models.TaskStatus
	Assignee       *string
	EstimatedHours *float64
}

// UpdateTask applies a patch to a node.
func (e *Engine) UpdateTask(ctx context.Context, id string, patch Patch) (*models.TaskNode, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrValidation, *patch.Priority)
	}
	if patch.EstimatedHours != nil && *patch.EstimatedHours < 0 {
		return nil, fmt.Errorf("%w: estimated hours must not be negative", ErrValidation)
	}

	s, node, unlock, err := e.resolveForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := e.now()
	if patch.Title != nil {
		node.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		node.Description = *patch.Description
	}
	if patch.Priority != nil {
		node.Priority = *patch.Priority
	}
	if patch.Assignee != nil {
		if *patch.Assignee == "" {
			node.Assignee = nil
		} else {
			assignee := *patch.Assignee
			node.Assignee = &assignee
		}
	}
	if patch.EstimatedHours != nil {
		hours := *patch.EstimatedHours
		node.EstimatedHours = &hours
	}

	if patch.Status != nil && *patch.Status != node.Status {
		prev := node.Status
		node.Status = *patch.Status
		switch {
		case node.Status == models.TaskStatusCompleted:
			node.CompletedAt = &now
		case prev == models.TaskStatusCompleted:
			// Explicit reopen. Completion never cascades downward, and a
			// reopened child does not reopen its ancestors.
			node.CompletedAt = nil
		}
		if node.Status == models.TaskStatusCompleted {
			s.cascadeCompletion(node.ParentID, now)
		}
	}
	node.UpdatedAt = now
	s.markDirty(node.ID)

	if err := e.commit(ctx, s); err != nil {
		return nil, err
	}
	e.emit(ctx, models.ChangeTaskUpdated, node.CardID, node.ID, map[string]any{
		"status": string(node.Status),
	})
	return node.Clone(), nil
}

// CompleteTask marks a node completed and cascades completion upward.
func (e *Engine) CompleteTask(ctx context.Context, id string) (*models.TaskNode, error) {
	s, node, unlock, err := e.resolveForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if node.Status == models.TaskStatusCompleted {
		return nil, fmt.Errorf("task %s: %w", id, ErrAlreadyCompleted)
	}

	now := e.now()
	node.Status = models.TaskStatusCompleted
	node.CompletedAt = &now
	node.UpdatedAt = now
	s.markDirty(node.ID)
	s.cascadeCompletion(node.ParentID, now)

	if err := e.commit(ctx, s); err != nil {
		return nil, err
	}
	e.emit(ctx, models.ChangeTaskCompleted, node.CardID, node.ID, nil)
	e.log.Debug("task completed", "card", node.CardID, "node", node.ID)
	return node.Clone(), nil
}

// resolveForWrite locates the node's card, takes the card lock and reloads
// the tree under it. The node is re-resolved after locking since it may
// have been deleted in the meantime.
func (e *Engine) resolveForWrite(ctx context.Context, id string) (*snapshot, *models.TaskNode, func(), error) {
	existing, err := e.store.GetNode(ctx, id)
	if err != nil {
		return nil, nil, nil, internalErr(err)
	}
	if existing == nil {
		return nil, nil, nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	unlock := e.lockCard(existing.CardID)
	s, err := e.loadCard(ctx, existing.CardID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	node, ok := s.nodes[id]
	if !ok {
		unlock()
		return nil, nil, nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return s, node, unlock, nil
}

// commit applies the snapshot's accumulated changes as one transaction.
func (e *Engine) commit(ctx context.Context, s *snapshot) error {
	cs := s.changeSet()
	if cs.Empty() {
		return nil
	}
	if err := e.store.Apply(ctx, cs); err != nil {
		return internalErr(err)
	}
	return nil
}
