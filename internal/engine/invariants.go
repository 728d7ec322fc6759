package engine

import (
	"sort"

	"github.com/ldi/tasktree/pkg/models"
)

// wouldCreateCycle reports whether re-parenting movingID under
// proposedParentID would make movingID its own ancestor. The walk is
// bounded by a visited set so it terminates even on a corrupted snapshot,
// which is then conservatively reported as a cycle.
func wouldCreateCycle(byID map[string]*models.TaskNode, movingID, proposedParentID string) bool {
	if movingID == proposedParentID {
		return true
	}

	visited := make(map[string]struct{})
	cur := proposedParentID
	for {
		if cur == movingID {
			return true
		}
		if _, seen := visited[cur]; seen {
			return true
		}
		visited[cur] = struct{}{}

		n, ok := byID[cur]
		if !ok || n.ParentID == nil {
			return false
		}
		cur = *n.ParentID
	}
}

// validateSiblingOrder checks that the children of parentID carry order
// indexes forming exactly 0..n-1, with no gaps or duplicates.
func validateSiblingOrder(byID map[string]*models.TaskNode, parentID *string) bool {
	var indexes []int
	for _, n := range byID {
		if sameParent(n.ParentID, parentID) {
			indexes = append(indexes, n.OrderIndex)
		}
	}
	sort.Ints(indexes)
	for i, idx := range indexes {
		if idx != i {
			return false
		}
	}
	return true
}
