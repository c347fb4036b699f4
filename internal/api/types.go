package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/availability-scheduling/internal/availability"
)

type CreateEventRequest struct {
	Kind            string    `json:"kind" validate:"required,oneof=opening appointment"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	WeeklyRecurring bool      `json:"weekly_recurring"`
}

type EventResponse struct {
	ID              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	WeeklyRecurring bool      `json:"weekly_recurring"`
	CreatedAt       time.Time `json:"created_at"`
}

type AvailabilityResponse struct {
	Date  time.Time `json:"date"`
	Slots []string  `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toEventResponse(ev *availability.Event) EventResponse {
	return EventResponse{
		ID:              ev.ID,
		Kind:            string(ev.Kind),
		StartsAt:        ev.StartsAt,
		EndsAt:          ev.EndsAt,
		WeeklyRecurring: ev.WeeklyRecurring,
		CreatedAt:       ev.CreatedAt,
	}
}
