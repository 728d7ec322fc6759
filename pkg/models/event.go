package models

import "time"

// ChangeType describes a committed mutation against a card's task tree.
type ChangeType string

const (
	ChangeTaskCreated   ChangeType = "task_created"
	ChangeTaskUpdated   ChangeType = "task_updated"
	ChangeTaskCompleted ChangeType = "task_completed"
	ChangeTaskMoved     ChangeType = "task_moved"
	ChangeTaskDeleted   ChangeType = "task_deleted"
	ChangeCardCleared   ChangeType = "card_cleared"
)

// ChangeEvent is emitted once per committed mutation. Delivery is
// fire-and-forget; a failed emit never rolls back the mutation.
type ChangeEvent struct {
	Type       ChangeType     `json:"type"`
	CardID     string         `json:"card_id"`
	NodeID     string         `json:"node_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
