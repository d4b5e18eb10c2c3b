package memory

import (
	"context"
	"sync"

	"github.com/DeadScore/slotbot/internal/domain/events"
)

// EventRepository is an in-memory implementation of events.Repository. It is
// the storage used when no persistence is configured, and the workhorse of
// the domain tests.
type EventRepository struct {
	mu     sync.RWMutex
	events map[int64]events.Event
}

// NewEventRepository creates an in-memory event repo.
func NewEventRepository() *EventRepository {
	return &EventRepository{
		events: make(map[int64]events.Event),
	}
}

func (r *EventRepository) Get(_ context.Context, messageID int64) (events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[messageID]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return ev.Clone(), nil
}

func (r *EventRepository) Save(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[ev.MessageID] = ev.Clone()
	return nil
}

func (r *EventRepository) Delete(_ context.Context, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[messageID]; !ok {
		return events.ErrNotFound
	}
	delete(r.events, messageID)
	return nil
}

func (r *EventRepository) List(_ context.Context) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]events.Event, 0, len(r.events))
	for _, ev := range r.events {
		list = append(list, ev.Clone())
	}
	return list, nil
}
