package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldi/tasktree/pkg/models"
)

func event(typ models.ChangeType) models.ChangeEvent {
	return models.ChangeEvent{
		Type:       typ,
		CardID:     "card-1",
		NodeID:     "node-1",
		OccurredAt: time.Now(),
	}
}

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Emit(context.Background(), event(models.ChangeTaskCreated))

	for _, ch := range []chan models.ChangeEvent{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, models.ChangeTaskCreated, got.Type)
			assert.Equal(t, "card-1", got.CardID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBusDropsWhenSubscriberIsBehind(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()

	// Overflow the subscriber buffer; Emit must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			bus.Emit(context.Background(), event(models.ChangeTaskUpdated))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}

	// The buffer holds at most its capacity; everything else was dropped.
	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	require.Greater(t, received, 0)
	assert.LessOrEqual(t, received, 64)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Emitting after unsubscribe must not panic on the closed channel.
	bus.Emit(context.Background(), event(models.ChangeTaskDeleted))
}

func TestBusEmitWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Emit(context.Background(), event(models.ChangeCardCleared))
}
