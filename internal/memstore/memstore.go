// Package memstore provides an in-memory engine.Store, used as the
// reference implementation in tests and by embedders that persist
// elsewhere.
package memstore

import (
	"context"
	"sync"

	"github.com/ldi/tasktree/internal/engine"
	"github.com/ldi/tasktree/pkg/models"
)

// Store keeps all nodes in a mutex-guarded map. Reads return deep copies,
// so callers can never alias the stored records; a changeset is applied
// atomically under the write lock.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*models.TaskNode
}

var _ engine.Store = (*Store)(nil)

func New() *Store {
	return &Store{nodes: make(map[string]*models.TaskNode)}
}

func (s *Store) GetNode(ctx context.Context, id string) (*models.TaskNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	return n.Clone(), nil
}

func (s *Store) ListByCard(ctx context.Context, cardID string) ([]*models.TaskNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.TaskNode{}
	for _, n := range s.nodes {
		if n.CardID == cardID {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (s *Store) Apply(ctx context.Context, cs *engine.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range cs.Upserts {
		s.nodes[n.ID] = n.Clone()
	}
	for _, id := range cs.Deletes {
		delete(s.nodes, id)
	}
	return nil
}

// Len returns the number of stored nodes across all cards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
