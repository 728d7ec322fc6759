// Package engine implements the hierarchical subtask engine: an
// arbitrarily deep tree of task nodes per card, with reparenting,
// reordering, cascading deletion, cycle prevention and automatic upward
// completion.
//
// Mutations for one card are serialized behind a per-card lock and applied
// as a single atomic changeset; operations on different cards run in
// parallel. Reads go straight to the committed store state.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ldi/tasktree/pkg/models"
)

type Engine struct {
	store    Store
	cards    CardDirectory
	notifier Notifier
	ledger   TimeLedger
	log      *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	cardLocks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the change notification sink.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithTimeLedger sets the time-tracking collaborator used by progress reads.
func WithTimeLedger(l TimeLedger) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given store and card directory.
func New(store Store, cards CardDirectory, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		cards:     cards,
		log:       slog.Default(),
		now:       time.Now,
		cardLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lockCard serializes mutating operations per card. The returned func
// releases the lock.
func (e *Engine) lockCard(cardID string) func() {
	e.mu.Lock()
	l, ok := e.cardLocks[cardID]
	if !ok {
		l = &sync.Mutex{}
		e.cardLocks[cardID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (e *Engine) emit(ctx context.Context, typ models.ChangeType, cardID, nodeID string, payload map[string]any) {
	if e.notifier == nil {
		return
	}
	e.notifier.Emit(ctx, models.ChangeEvent{
		Type:       typ,
		CardID:     cardID,
		NodeID:     nodeID,
		Payload:    payload,
		OccurredAt: e.now(),
	})
}

// snapshot is a working copy of one card's tree. Mutations edit the clones
// in place and record what changed; changeSet turns that into the atomic
// write the store commits.
type snapshot struct {
	cardID  string
	nodes   map[string]*models.TaskNode
	dirty   map[string]struct{}
	deleted map[string]struct{}
}

func (e *Engine) loadCard(ctx context.Context, cardID string) (*snapshot, error) {
	nodes, err := e.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, internalErr(err)
	}
	s := &snapshot{
		cardID:  cardID,
		nodes:   make(map[string]*models.TaskNode, len(nodes)),
		dirty:   make(map[string]struct{}),
		deleted: make(map[string]struct{}),
	}
	for _, n := range nodes {
		s.nodes[n.ID] = n.Clone()
	}
	return s, nil
}

func (s *snapshot) markDirty(id string) {
	s.dirty[id] = struct{}{}
}

func (s *snapshot) markDeleted(id string) {
	delete(s.nodes, id)
	delete(s.dirty, id)
	s.deleted[id] = struct{}{}
}

// childrenOf returns the sibling group under parentID sorted by order
// index. A nil parentID selects the root group.
func (s *snapshot) childrenOf(parentID *string) []*models.TaskNode {
	var group []*models.TaskNode
	for _, n := range s.nodes {
		if sameParent(n.ParentID, parentID) {
			group = append(group, n)
		}
	}
	sort.Slice(group, func(i, j int) bool {
		return group[i].OrderIndex < group[j].OrderIndex
	})
	return group
}

func (s *snapshot) changeSet() *ChangeSet {
	cs := &ChangeSet{CardID: s.cardID}
	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			cs.Upserts = append(cs.Upserts, n)
		}
	}
	for id := range s.deleted {
		cs.Deletes = append(cs.Deletes, id)
	}
	sort.Strings(cs.Deletes)
	return cs
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func parentKey(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
