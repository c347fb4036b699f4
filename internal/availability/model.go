package availability

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOpening     Kind = "opening"
	KindAppointment Kind = "appointment"
)

// DefaultNumberOfDays is the window length used when a caller does not ask for one.
const DefaultNumberOfDays = 7

// Event is a calendar row. For weekly recurring events only the weekday and
// time of day of StartsAt/EndsAt are meaningful.
type Event struct {
	ID              uuid.UUID `json:"id"`
	Kind            Kind      `json:"kind"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	WeeklyRecurring bool      `json:"weekly_recurring"`
	CreatedAt       time.Time `json:"created_at"`
}

type NewEvent struct {
	Kind            Kind
	StartsAt        time.Time
	EndsAt          time.Time
	WeeklyRecurring bool
}

// DayBucket holds the free slot keys of one calendar day in the order they
// were produced.
type DayBucket struct {
	Date  time.Time `json:"date"`
	Slots []string  `json:"slots"`
}

type Result struct {
	Days []DayBucket
	// Dropped counts slot marks whose day fell outside the window.
	Dropped int
	// Err joins the weekly series that could not be expanded. The days are
	// still computed without them.
	Err error
}
