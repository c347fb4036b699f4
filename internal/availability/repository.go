package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEventNotFound = errors.New("event not found")
)

// EventStore supplies raw event rows to the service.
type EventStore interface {
	// ListEventsInWindow returns every weekly recurring event starting before
	// end, and every event overlapping [start, end).
	ListEventsInWindow(ctx context.Context, start, end time.Time) ([]Event, error)

	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	InsertEvent(ctx context.Context, ev NewEvent) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// InWindow reports whether a store must return ev for the window [start, end).
func InWindow(ev Event, start, end time.Time) bool {
	if !ev.StartsAt.Before(end) {
		return false
	}
	return ev.WeeklyRecurring || !ev.EndsAt.Before(start)
}
