package availability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps events in process memory, in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	now    func() time.Time
}

func NewMemoryStore(events ...Event) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, ev := range events {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		s.events = append(s.events, ev)
	}
	return s
}

func (s *MemoryStore) ListEventsInWindow(ctx context.Context, start, end time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if InWindow(ev, start, end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ev := range s.events {
		if ev.ID == id {
			found := ev
			return &found, nil
		}
	}
	return nil, ErrEventNotFound
}

func (s *MemoryStore) InsertEvent(ctx context.Context, ev NewEvent) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created := Event{
		ID:              uuid.New(),
		Kind:            ev.Kind,
		StartsAt:        ev.StartsAt,
		EndsAt:          ev.EndsAt,
		WeeklyRecurring: ev.WeeklyRecurring,
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	s.events = append(s.events, created)
	s.mu.Unlock()

	return &created, nil
}

func (s *MemoryStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ev := range s.events {
		if ev.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}
