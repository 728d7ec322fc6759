package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/ldi/tasktree/pkg/models"
)

// Progress computes the on-demand progress summary for a card's entire
// tree. Nothing is cached: each call recomputes from the committed node
// set, so it always reflects the most recent mutation.
func (e *Engine) Progress(ctx context.Context, cardID string) (*models.ProgressSummary, error) {
	nodes, err := e.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, internalErr(err)
	}
	ledger, err := e.ledgerHours(ctx, cardID)
	if err != nil {
		return nil, err
	}
	summary := summarize(nodes, ledger)
	summary.CardID = cardID
	return summary, nil
}

// SubtreeProgress computes the same metrics scoped to one node's
// descendants, for category and grouping displays.
func (e *Engine) SubtreeProgress(ctx context.Context, nodeID string) (*models.ProgressSummary, error) {
	node, err := e.store.GetNode(ctx, nodeID)
	if err != nil {
		return nil, internalErr(err)
	}
	if node == nil {
		return nil, fmt.Errorf("task %s: %w", nodeID, ErrNotFound)
	}

	nodes, err := e.store.ListByCard(ctx, node.CardID)
	if err != nil {
		return nil, internalErr(err)
	}
	ledger, err := e.ledgerHours(ctx, node.CardID)
	if err != nil {
		return nil, err
	}

	children := make(map[string][]*models.TaskNode)
	for _, n := range nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}
	var descendants []*models.TaskNode
	stack := []string{nodeID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range children[cur] {
			descendants = append(descendants, c)
			stack = append(stack, c.ID)
		}
	}

	summary := summarize(descendants, ledger)
	summary.CardID = node.CardID
	summary.NodeID = nodeID
	return summary, nil
}

func (e *Engine) ledgerHours(ctx context.Context, cardID string) (map[string]float64, error) {
	if e.ledger == nil {
		return nil, nil
	}
	hours, err := e.ledger.ActualHours(ctx, cardID)
	if err != nil {
		return nil, internalErr(err)
	}
	return hours, nil
}

func summarize(nodes []*models.TaskNode, ledger map[string]float64) *models.ProgressSummary {
	summary := &models.ProgressSummary{}
	for _, n := range nodes {
		summary.Counts.Total++
		switch n.Status {
		case models.TaskStatusTodo:
			summary.Counts.Todo++
		case models.TaskStatusInProgress:
			summary.Counts.InProgress++
		case models.TaskStatusCompleted:
			summary.Counts.Completed++
		}
		if n.EstimatedHours != nil {
			summary.Hours.EstimatedHours += *n.EstimatedHours
		}
		if actual, ok := ledger[n.ID]; ok {
			summary.Hours.ActualHours += actual
		} else if n.ActualHours != nil {
			summary.Hours.ActualHours += *n.ActualHours
		}
	}

	if summary.Counts.Total > 0 {
		pct := float64(summary.Counts.Completed) / float64(summary.Counts.Total) * 100
		summary.CompletionPercentage = math.Round(pct*100) / 100
	}
	// Accuracy stays absent rather than Inf or NaN when nothing was estimated.
	if summary.Hours.EstimatedHours > 0 {
		accuracy := summary.Hours.ActualHours / summary.Hours.EstimatedHours * 100
		accuracy = math.Round(accuracy*100) / 100
		summary.Hours.AccuracyPercentage = &accuracy
	}
	return summary
}
