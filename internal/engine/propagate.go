package engine

import (
	"time"

	"github.com/ldi/tasktree/pkg/models"
)

// cascadeCompletion walks upward from parentID after a child transitioned
// to completed. Each ancestor whose direct children are now all completed
// is completed too; the walk stops at the first ancestor with an
// incomplete child, an ancestor that is already completed, or the root.
//
// The cascade is one-directional: reopening a child never reopens an
// ancestor. A parent with zero children is never auto-completed.
func (s *snapshot) cascadeCompletion(parentID *string, now time.Time) {
	visited := make(map[string]struct{})
	for parentID != nil {
		id := *parentID
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}

		parent, ok := s.nodes[id]
		if !ok {
			return
		}
		if parent.Status == models.TaskStatusCompleted {
			return
		}
		children := s.childrenOf(parentID)
		if len(children) == 0 {
			return
		}
		for _, c := range children {
			if c.Status != models.TaskStatusCompleted {
				return
			}
		}

		parent.Status = models.TaskStatusCompleted
		completedAt := now
		parent.CompletedAt = &completedAt
		parent.UpdatedAt = now
		s.markDirty(parent.ID)

		parentID = parent.ParentID
	}
}
