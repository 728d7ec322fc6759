package models

// StatusCounts holds node counts across an entire tree or subtree.
type StatusCounts struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// HoursRollup sums estimated and actual hours across all nodes that define
// them. AccuracyPercentage is nil when no estimated hours exist, never NaN
// or Inf.
type HoursRollup struct {
	EstimatedHours     float64  `json:"estimated_hours"`
	ActualHours        float64  `json:"actual_hours"`
	AccuracyPercentage *float64 `json:"accuracy_percentage,omitempty"`
}

// ProgressSummary is the on-demand progress report for a card or a node's
// descendants.
type ProgressSummary struct {
	CardID               string       `json:"card_id"`
	NodeID               string       `json:"node_id,omitempty"`
	Counts               StatusCounts `json:"counts"`
	CompletionPercentage float64      `json:"completion_percentage"`
	Hours                HoursRollup  `json:"hours"`
}
