package engine

import (
	"context"

	"github.com/ldi/tasktree/pkg/models"
)

// ChangeSet is the unit of commit: every mutation the engine performs is
// expressed as one set of upserts and deletes applied atomically.
type ChangeSet struct {
	CardID  string
	Upserts []*models.TaskNode
	Deletes []string
}

// Empty returns true if the changeset carries no writes.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Upserts) == 0 && len(cs.Deletes) == 0
}

// Store is the durable TaskNode storage collaborator. The engine is its
// only writer; Apply must commit the whole changeset or none of it.
type Store interface {
	// GetNode returns the node with the given id, or (nil, nil) if absent.
	GetNode(ctx context.Context, id string) (*models.TaskNode, error)
	// ListByCard returns every node owned by the card, in no particular order.
	ListByCard(ctx context.Context, cardID string) ([]*models.TaskNode, error)
	// Apply commits the changeset atomically.
	Apply(ctx context.Context, cs *ChangeSet) error
}

// CardDirectory is the card CRUD collaborator, consulted before root-level
// creation.
type CardDirectory interface {
	CardExists(ctx context.Context, cardID string) (bool, error)
}

// AllowAllCards is a CardDirectory for embedders that manage card lifetime
// elsewhere.
type AllowAllCards struct{}

func (AllowAllCards) CardExists(ctx context.Context, cardID string) (bool, error) {
	return true, nil
}

// Notifier receives one event per committed mutation. Emit is
// fire-and-forget; it must not block and its failures never roll back the
// mutation.
type Notifier interface {
	Emit(ctx context.Context, event models.ChangeEvent)
}

// TimeLedger is the time-tracking collaborator. It provides already
// aggregated actual hours per node id; values are eventually consistent
// with concurrently logged time entries and are overlaid on progress reads.
type TimeLedger interface {
	ActualHours(ctx context.Context, cardID string) (map[string]float64, error)
}
