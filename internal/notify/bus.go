// Package notify carries committed mutation events to other viewers of a
// card. The engine only emits; delivery is this package's concern.
package notify

import (
	"context"
	"sync"

	"github.com/ldi/tasktree/pkg/models"
)

// Bus fans committed change events out to in-process subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan models.ChangeEvent]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan models.ChangeEvent]struct{})}
}

// Emit delivers the event to all subscribers without blocking.
func (b *Bus) Emit(ctx context.Context, event models.ChangeEvent) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// subscriber is behind; drop to avoid blocking the mutation path
		}
	}
	b.mu.RUnlock()
}

// Subscribe returns a buffered channel that receives all future events.
func (b *Bus) Subscribe() chan models.ChangeEvent {
	ch := make(chan models.ChangeEvent, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan models.ChangeEvent) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Discard drops every event, for embedders that do not observe changes.
type Discard struct{}

func (Discard) Emit(ctx context.Context, event models.ChangeEvent) {}
