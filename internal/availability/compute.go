package availability

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [7]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Compute builds the free slots of numberOfDays consecutive calendar days
// starting at the day of start. Days are taken in start's location.
//
// events are expected to be pre-filtered by the store; one-time events are
// not checked against the window here.
func Compute(start time.Time, numberOfDays int, events []Event) Result {
	days, index := initializeDays(start, numberOfDays)
	flattened, err := materialize(events, days)
	dropped := reduce(flattened, days, index, start.Location())
	return Result{Days: days, Dropped: dropped, Err: err}
}

// WindowEnd is the midnight numberOfDays calendar days after start.
func WindowEnd(start time.Time, numberOfDays int) time.Time {
	loc := start.Location()
	return DayOf(start, loc).AddDays(numberOfDays).Midnight(loc)
}

func initializeDays(start time.Time, numberOfDays int) ([]DayBucket, map[CalendarDay]int) {
	n := max(numberOfDays, 0)
	loc := start.Location()
	first := DayOf(start, loc)

	days := make([]DayBucket, 0, n)
	index := make(map[CalendarDay]int, n)
	for i := 0; i < n; i++ {
		d := first.AddDays(i)
		index[d] = i
		days = append(days, DayBucket{Date: d.Midnight(loc), Slots: []string{}})
	}
	return days, index
}

// materialize passes one-time events through and expands each weekly series
// into one occurrence per window day sharing its reference weekday. Series
// that cannot be expanded are left out and reported in the returned error.
func materialize(events []Event, days []DayBucket) ([]Event, error) {
	var oneTime, series []Event
	for _, ev := range events {
		if ev.WeeklyRecurring {
			series = append(series, ev)
		} else {
			oneTime = append(oneTime, ev)
		}
	}

	out := make([]Event, 0, len(oneTime)+len(series))
	out = append(out, oneTime...)
	if len(series) == 0 || len(days) == 0 {
		return out, nil
	}

	loc := days[0].Date.Location()
	windowStart := days[0].Date
	windowEnd := DayOf(days[len(days)-1].Date, loc).AddDays(1).Midnight(loc)

	var errs []error
	occurrences := make([]map[CalendarDay]time.Time, len(series))
	for i, ev := range series {
		occ, err := occurrencesBetween(weeklyRule(ev, windowStart, loc), windowEnd, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("expand weekly %s %s: %w", ev.Kind, ev.ID, err))
			continue
		}
		occurrences[i] = occ
	}

	for _, day := range days {
		d := DayOf(day.Date, loc)
		for i, ev := range series {
			startsAt, ok := occurrences[i][d]
			if !ok {
				continue
			}
			end := ev.EndsAt.In(loc)
			occ := ev
			occ.StartsAt = startsAt
			occ.EndsAt = d.At(end.Hour(), end.Minute(), loc)
			out = append(out, occ)
		}
	}
	return out, errors.Join(errs...)
}

// weeklyRule repeats ev's weekday and hour:minute from windowStart on.
func weeklyRule(ev Event, windowStart time.Time, loc *time.Location) rrule.ROption {
	ref := ev.StartsAt.In(loc)
	return rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   windowStart,
		Byweekday: []rrule.Weekday{rruleWeekdays[ref.Weekday()]},
		Byhour:    []int{ref.Hour()},
		Byminute:  []int{ref.Minute()},
		Bysecond:  []int{0},
	}
}

// occurrencesBetween indexes the rule's occurrences in [Dtstart, windowEnd)
// by calendar day.
func occurrencesBetween(opt rrule.ROption, windowEnd time.Time, loc *time.Location) (map[CalendarDay]time.Time, error) {
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	out := make(map[CalendarDay]time.Time)
	for _, t := range rule.Between(opt.Dtstart, windowEnd.Add(-time.Second), true) {
		out[DayOf(t, loc)] = t
	}
	return out, nil
}

// reduce applies openings before everything else, each group in arrival
// order. It returns the number of marks that had no bucket.
func reduce(events []Event, days []DayBucket, index map[CalendarDay]int, loc *time.Location) int {
	ordered := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Kind == KindOpening {
			ordered = append(ordered, ev)
		}
	}
	for _, ev := range events {
		if ev.Kind != KindOpening {
			ordered = append(ordered, ev)
		}
	}

	dropped := 0
	for _, ev := range ordered {
		for t := ev.StartsAt; t.Before(ev.EndsAt); t = t.Add(SlotDuration) {
			i, ok := index[DayOf(t, loc)]
			if !ok {
				dropped++
				continue
			}
			key := SlotKey(t.In(loc))
			switch ev.Kind {
			case KindOpening:
				days[i].Slots = append(days[i].Slots, key)
			case KindAppointment:
				days[i].Slots = slices.DeleteFunc(days[i].Slots, func(s string) bool {
					return s == key
				})
			}
		}
	}
	return dropped
}
