package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ldi/tasktree/pkg/models"
)

// SortField names a field tasks can be listed by.
type SortField string

const (
	SortOrderIndex SortField = "order_index"
	SortPriority   SortField = "priority"
	SortTitle      SortField = "title"
	SortCreatedAt  SortField = "created_at"
	SortStatus     SortField = "status"
)

// ListFilter narrows and orders a task listing. Zero values mean "no
// filter"; the default sort is the tree's display order.
type ListFilter struct {
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Assignee *string
	Search   string
	SortBy   SortField
}

func (f ListFilter) matches(n *models.TaskNode) bool {
	if f.Status != nil && n.Status != *f.Status {
		return false
	}
	if f.Priority != nil && n.Priority != *f.Priority {
		return false
	}
	if f.Assignee != nil && (n.Assignee == nil || *n.Assignee != *f.Assignee) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(n.Title), q) &&
			!strings.Contains(strings.ToLower(n.Description), q) {
			return false
		}
	}
	return true
}

// GetTask returns a single node by id.
func (e *Engine) GetTask(ctx context.Context, id string) (*models.TaskNode, error) {
	node, err := e.store.GetNode(ctx, id)
	if err != nil {
		return nil, internalErr(err)
	}
	if node == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return node, nil
}

// ListTasks returns the card's nodes as a flat list. The default order is
// the hierarchy's depth-first display order; other sort fields apply
// globally across the card.
func (e *Engine) ListTasks(ctx context.Context, cardID string, f ListFilter) ([]*models.TaskNode, error) {
	nodes, err := e.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, internalErr(err)
	}

	filtered := nodes[:0:0]
	for _, n := range nodes {
		if f.matches(n) {
			filtered = append(filtered, n)
		}
	}

	switch f.SortBy {
	case "", SortOrderIndex:
		return flattenTree(buildTree(nodes), func(n *models.TaskNode) bool { return f.matches(n) }), nil
	case SortPriority:
		sortNodes(filtered, func(a, b *models.TaskNode) bool {
			return a.Priority.Rank() > b.Priority.Rank()
		})
	case SortTitle:
		sortNodes(filtered, func(a, b *models.TaskNode) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		})
	case SortCreatedAt:
		sortNodes(filtered, func(a, b *models.TaskNode) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		})
	case SortStatus:
		sortNodes(filtered, func(a, b *models.TaskNode) bool {
			return a.Status < b.Status
		})
	default:
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrValidation, f.SortBy)
	}
	return filtered, nil
}

// ListTree returns the card's hierarchy. With a filter, a node is kept if
// it or any of its descendants matches, so matching nodes stay reachable
// from their roots.
func (e *Engine) ListTree(ctx context.Context, cardID string, f ListFilter) ([]*models.TreeNode, error) {
	nodes, err := e.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, internalErr(err)
	}

	byID := make(map[string]*models.TaskNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	keep := make(map[string]struct{})
	for _, n := range nodes {
		if !f.matches(n) {
			continue
		}
		// Keep the match and every ancestor on its path to the root.
		for cur := n; cur != nil; {
			if _, ok := keep[cur.ID]; ok {
				break
			}
			keep[cur.ID] = struct{}{}
			if cur.ParentID == nil {
				break
			}
			cur = byID[*cur.ParentID]
		}
	}

	kept := make([]*models.TaskNode, 0, len(keep))
	for _, n := range nodes {
		if _, ok := keep[n.ID]; ok {
			kept = append(kept, n)
		}
	}
	return buildTree(kept), nil
}

// buildTree assembles TreeNodes from the flat parent-pointer records.
// Children are ordered by order index. Nodes whose parent is missing from
// the set are treated as roots so a filtered set still renders.
func buildTree(nodes []*models.TaskNode) []*models.TreeNode {
	byID := make(map[string]*models.TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &models.TreeNode{TaskNode: n}
	}

	var roots []*models.TreeNode
	for _, t := range byID {
		if t.ParentID != nil {
			if parent, ok := byID[*t.ParentID]; ok {
				parent.Children = append(parent.Children, t)
				continue
			}
		}
		roots = append(roots, t)
	}

	var sortChildren func([]*models.TreeNode)
	sortChildren = func(group []*models.TreeNode) {
		sort.Slice(group, func(i, j int) bool {
			if group[i].OrderIndex != group[j].OrderIndex {
				return group[i].OrderIndex < group[j].OrderIndex
			}
			return group[i].ID < group[j].ID
		})
		for _, t := range group {
			sortChildren(t.Children)
		}
	}
	sortChildren(roots)
	return roots
}

// flattenTree walks the tree depth-first and collects the nodes accepted
// by the filter, preserving display order.
func flattenTree(roots []*models.TreeNode, accept func(*models.TaskNode) bool) []*models.TaskNode {
	out := []*models.TaskNode{}
	var walk func([]*models.TreeNode)
	walk = func(group []*models.TreeNode) {
		for _, t := range group {
			if accept(t.TaskNode) {
				out = append(out, t.TaskNode)
			}
			walk(t.Children)
		}
	}
	walk(roots)
	return out
}

func sortNodes(nodes []*models.TaskNode, less func(a, b *models.TaskNode) bool) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if less(nodes[i], nodes[j]) {
			return true
		}
		if less(nodes[j], nodes[i]) {
			return false
		}
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}
