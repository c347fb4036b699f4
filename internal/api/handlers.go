package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hackgods/availability-scheduling/internal/availability"
)

type AvailabilityService interface {
	GetAvailabilities(ctx context.Context, start availability.CalendarDay, numberOfDays int) ([]availability.DayBucket, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*availability.Event, error)
	CreateEvent(ctx context.Context, ev availability.NewEvent) (*availability.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// WindowOptions bounds the windows clients may ask for.
type WindowOptions struct {
	Location    *time.Location
	DefaultDays int
	MaxDays     int
	Now         func() time.Time
}

func getAvailabilitiesHandler(svc AvailabilityService, opts WindowOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		start := availability.DayOf(opts.Now(), opts.Location)
		if raw := q.Get("date"); raw != "" {
			day, err := availability.ParseCalendarDay(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
				return
			}
			start = day
		}

		days := opts.DefaultDays
		if raw := q.Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > opts.MaxDays {
				writeError(w, http.StatusBadRequest, "invalid_days", "days must be an integer between 1 and "+strconv.Itoa(opts.MaxDays))
				return
			}
			days = n
		}

		buckets, err := svc.GetAvailabilities(r.Context(), start, days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AvailabilityResponse, 0, len(buckets))
		for _, b := range buckets {
			resp = append(resp, AvailabilityResponse{Date: b.Date, Slots: b.Slots})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createEventHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		ev, err := svc.CreateEvent(r.Context(), availability.NewEvent{
			Kind:            availability.Kind(req.Kind),
			StartsAt:        req.StartsAt,
			EndsAt:          req.EndsAt,
			WeeklyRecurring: req.WeeklyRecurring,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toEventResponse(ev))
	}
}

func getEventHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event_id", "id must be a valid UUID")
			return
		}

		ev, err := svc.GetEvent(r.Context(), id)
		if err != nil {
			handleEventError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEventResponse(ev))
	}
}

func deleteEventHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteEvent(r.Context(), id); err != nil {
			handleEventError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
