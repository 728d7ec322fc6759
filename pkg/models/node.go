package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known status value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Valid reports whether p is a known priority value.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank returns the priority as an integer for sorting, higher is more urgent.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// TaskNode is a single item in a card's subtask hierarchy.
// Nodes are stored flat with a parent back-reference; hierarchy views are
// rebuilt from the parent_id index at read time.
type TaskNode struct {
	ID             string       `json:"id"`
	CardID         string       `json:"card_id"`
	ParentID       *string      `json:"parent_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	OrderIndex     int          `json:"order_index"`
	Assignee       *string      `json:"assignee,omitempty"`
	EstimatedHours *float64     `json:"estimated_hours,omitempty"`
	ActualHours    *float64     `json:"actual_hours,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// IsRoot returns true if the node has no parent.
func (n *TaskNode) IsRoot() bool {
	return n.ParentID == nil
}

// Clone returns a deep copy of the node.
func (n *TaskNode) Clone() *TaskNode {
	c := *n
	c.ParentID = clonePtr(n.ParentID)
	c.Assignee = clonePtr(n.Assignee)
	c.EstimatedHours = clonePtr(n.EstimatedHours)
	c.ActualHours = clonePtr(n.ActualHours)
	c.CompletedAt = clonePtr(n.CompletedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// TreeNode is a TaskNode with its children resolved, ordered by order_index.
type TreeNode struct {
	*TaskNode
	Children []*TreeNode `json:"children,omitempty"`
}
