package availability

import (
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func opening(start, end time.Time, weekly bool) Event {
	return Event{Kind: KindOpening, StartsAt: start, EndsAt: end, WeeklyRecurring: weekly}
}

func appointment(start, end time.Time) Event {
	return Event{Kind: KindAppointment, StartsAt: start, EndsAt: end}
}

var windowStart = at(2014, time.August, 10, 0, 0)

func mondayOpeningAndAppointment() []Event {
	return []Event{
		appointment(at(2014, time.August, 11, 10, 30), at(2014, time.August, 11, 11, 30)),
		opening(at(2014, time.August, 4, 9, 30), at(2014, time.August, 4, 12, 30), true),
	}
}

func TestCompute_NoEvents(t *testing.T) {
	result := Compute(windowStart, DefaultNumberOfDays, nil)

	require.Len(t, result.Days, 7)
	for i, day := range result.Days {
		assert.Equal(t, windowStart.AddDate(0, 0, i), day.Date)
		assert.NotNil(t, day.Slots)
		assert.Empty(t, day.Slots)
	}
	assert.Zero(t, result.Dropped)
}

func TestCompute_OpeningsAndAppointments(t *testing.T) {
	result := Compute(windowStart, 7, mondayOpeningAndAppointment())

	require.Len(t, result.Days, 7)
	assert.Equal(t, at(2014, time.August, 10, 0, 0), result.Days[0].Date)
	assert.Empty(t, result.Days[0].Slots)

	assert.Equal(t, at(2014, time.August, 11, 0, 0), result.Days[1].Date)
	assert.Equal(t, []string{"9:30", "10:00", "11:30", "12:00"}, result.Days[1].Slots)

	for i := 2; i < 7; i++ {
		assert.Empty(t, result.Days[i].Slots, "day %d", i)
	}
	assert.Equal(t, at(2014, time.August, 16, 0, 0), result.Days[6].Date)
}

func TestCompute_NumberOfDays(t *testing.T) {
	t.Run("Five", func(t *testing.T) {
		result := Compute(windowStart, 5, mondayOpeningAndAppointment())
		require.Len(t, result.Days, 5)
		assert.Equal(t, []string{"9:30", "10:00", "11:30", "12:00"}, result.Days[1].Slots)
		assert.Equal(t, at(2014, time.August, 14, 0, 0), result.Days[4].Date)
		assert.Empty(t, result.Days[4].Slots)
	})

	t.Run("One", func(t *testing.T) {
		result := Compute(windowStart, 1, mondayOpeningAndAppointment())
		require.Len(t, result.Days, 1)
		assert.Equal(t, windowStart, result.Days[0].Date)
		assert.Empty(t, result.Days[0].Slots)
		// the appointment lands on the 11th, outside a one day window
		assert.Equal(t, 2, result.Dropped)
	})

	t.Run("Fourteen", func(t *testing.T) {
		result := Compute(windowStart, 14, mondayOpeningAndAppointment())
		require.Len(t, result.Days, 14)
		assert.Equal(t, []string{"9:30", "10:00", "11:30", "12:00"}, result.Days[1].Slots)
		assert.Equal(t, at(2014, time.August, 18, 0, 0), result.Days[8].Date)
		assert.Equal(t, []string{"9:30", "10:00", "10:30", "11:00", "11:30", "12:00"}, result.Days[8].Slots)
	})

	t.Run("Default Matches Explicit Seven", func(t *testing.T) {
		assert.Equal(t,
			Compute(windowStart, 7, mondayOpeningAndAppointment()),
			Compute(windowStart, DefaultNumberOfDays, mondayOpeningAndAppointment()),
		)
	})

	t.Run("Zero And Negative", func(t *testing.T) {
		for _, n := range []int{0, -3} {
			result := Compute(windowStart, n, mondayOpeningAndAppointment())
			assert.Empty(t, result.Days)
			assert.Equal(t, 2, result.Dropped)
		}
	})
}

func TestCompute_KindOrderIndependentOfInputOrder(t *testing.T) {
	open := opening(at(2014, time.August, 12, 8, 0), at(2014, time.August, 12, 11, 0), false)
	busy := appointment(at(2014, time.August, 12, 9, 0), at(2014, time.August, 12, 10, 0))
	want := []string{"8:00", "8:30", "10:00", "10:30"}

	first := Compute(windowStart, 7, []Event{open, busy})
	second := Compute(windowStart, 7, []Event{busy, open})

	assert.Equal(t, want, first.Days[2].Slots)
	assert.Equal(t, want, second.Days[2].Slots)
}

func TestCompute_OpeningsKeepArrivalOrder(t *testing.T) {
	afternoon := opening(at(2014, time.August, 12, 14, 0), at(2014, time.August, 12, 15, 0), false)
	morning := opening(at(2014, time.August, 12, 9, 0), at(2014, time.August, 12, 10, 0), false)

	result := Compute(windowStart, 7, []Event{afternoon, morning})
	assert.Equal(t, []string{"14:00", "14:30", "9:00", "9:30"}, result.Days[2].Slots)
}

func TestCompute_OneTimeBeforeRecurring(t *testing.T) {
	weekly := opening(at(2014, time.August, 4, 9, 0), at(2014, time.August, 4, 10, 0), true)
	single := opening(at(2014, time.August, 11, 16, 0), at(2014, time.August, 11, 17, 0), false)

	result := Compute(windowStart, 7, []Event{weekly, single})
	assert.Equal(t, []string{"16:00", "16:30", "9:00", "9:30"}, result.Days[1].Slots)
}

func TestCompute_WeeklyProjection(t *testing.T) {
	// 2014-07-02 is a Wednesday
	weekly := opening(at(2014, time.July, 2, 14, 0), at(2014, time.July, 2, 15, 0), true)

	result := Compute(windowStart, 21, []Event{weekly})
	require.NoError(t, result.Err)
	require.Len(t, result.Days, 21)

	for _, day := range result.Days {
		if day.Date.Weekday() == time.Wednesday {
			assert.Equal(t, []string{"14:00", "14:30"}, day.Slots, day.Date.String())
		} else {
			assert.Empty(t, day.Slots, day.Date.String())
		}
	}
}

func TestOccurrencesBetween_InvalidRule(t *testing.T) {
	weekly := opening(at(2014, time.August, 4, 9, 30), at(2014, time.August, 4, 12, 30), true)

	opt := weeklyRule(weekly, windowStart, time.UTC)
	occurrences, err := occurrencesBetween(opt, WindowEnd(windowStart, 7), time.UTC)
	require.NoError(t, err)
	assert.Len(t, occurrences, 1)

	opt.Byhour = []int{24}
	occurrences, err = occurrencesBetween(opt, WindowEnd(windowStart, 7), time.UTC)
	assert.Error(t, err)
	assert.Nil(t, occurrences)
}

func TestCompute_WeeklyReferenceInsideWindow(t *testing.T) {
	// The series starts on the 18th, but only weekday and time of day are
	// meaningful, so the 11th is covered as well.
	weekly := opening(at(2014, time.August, 18, 9, 0), at(2014, time.August, 18, 9, 30), true)

	result := Compute(windowStart, 14, []Event{weekly})
	assert.Equal(t, []string{"9:00"}, result.Days[1].Slots)
	assert.Equal(t, []string{"9:00"}, result.Days[8].Slots)
}

func TestCompute_WeeklyDiscardsSeconds(t *testing.T) {
	start := time.Date(2014, 8, 4, 9, 0, 45, 0, time.UTC)
	end := time.Date(2014, 8, 4, 10, 0, 10, 0, time.UTC)

	result := Compute(windowStart, 7, []Event{opening(start, end, true)})
	assert.Equal(t, []string{"9:00", "9:30"}, result.Days[1].Slots)
}

func TestCompute_UnalignedStart(t *testing.T) {
	ev := opening(at(2014, time.August, 13, 9, 15), at(2014, time.August, 13, 10, 15), false)

	result := Compute(windowStart, 7, []Event{ev})
	assert.Equal(t, []string{"9:15", "9:45"}, result.Days[3].Slots)
}

func TestCompute_EmptyOrInvertedEvent(t *testing.T) {
	same := opening(at(2014, time.August, 13, 9, 0), at(2014, time.August, 13, 9, 0), false)
	inverted := opening(at(2014, time.August, 13, 11, 0), at(2014, time.August, 13, 10, 0), false)

	result := Compute(windowStart, 7, []Event{same, inverted})
	assert.Empty(t, result.Days[3].Slots)
}

func TestCompute_DuplicateOpeningsAccumulate(t *testing.T) {
	ev := opening(at(2014, time.August, 13, 9, 0), at(2014, time.August, 13, 10, 0), false)

	result := Compute(windowStart, 7, []Event{ev, ev})
	assert.Equal(t, []string{"9:00", "9:30", "9:00", "9:30"}, result.Days[3].Slots)

	busy := appointment(at(2014, time.August, 13, 9, 0), at(2014, time.August, 13, 9, 30))
	result = Compute(windowStart, 7, []Event{ev, busy, ev})
	assert.Equal(t, []string{"9:30", "9:30"}, result.Days[3].Slots)
}

func TestCompute_UnknownKindIgnored(t *testing.T) {
	ev := Event{Kind: "holiday", StartsAt: at(2014, time.August, 13, 9, 0), EndsAt: at(2014, time.August, 13, 10, 0)}
	open := opening(at(2014, time.August, 13, 9, 0), at(2014, time.August, 13, 10, 0), false)

	result := Compute(windowStart, 7, []Event{ev, open})
	assert.Equal(t, []string{"9:00", "9:30"}, result.Days[3].Slots)
}

func TestCompute_MarksOutsideWindowAreSkipped(t *testing.T) {
	// crosses midnight into the 17th, the first day after the window
	late := opening(at(2014, time.August, 16, 23, 0), at(2014, time.August, 17, 1, 0), false)
	// started before the window
	early := opening(at(2014, time.August, 9, 23, 30), at(2014, time.August, 10, 0, 30), false)

	result := Compute(windowStart, 7, []Event{late, early})
	assert.Equal(t, []string{"0:00"}, result.Days[0].Slots)
	assert.Equal(t, []string{"23:00", "23:30"}, result.Days[6].Slots)
	assert.Equal(t, 3, result.Dropped)
}

func TestCompute_WeeklyOvernightProducesNothing(t *testing.T) {
	// the end time of day is placed on the same date as the start, so the
	// occurrence is empty
	weekly := opening(at(2014, time.August, 4, 23, 0), at(2014, time.August, 5, 1, 0), true)

	result := Compute(windowStart, 7, []Event{weekly})
	for _, day := range result.Days {
		assert.Empty(t, day.Slots)
	}
}

func TestCompute_DaylightSavingWindow(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	start := time.Date(2014, 3, 29, 0, 0, 0, 0, paris)
	// 2014-03-23 is a Sunday, in winter time
	weekly := Event{
		Kind:            KindOpening,
		StartsAt:        time.Date(2014, 3, 23, 9, 0, 0, 0, paris),
		EndsAt:          time.Date(2014, 3, 23, 10, 0, 0, 0, paris),
		WeeklyRecurring: true,
	}

	result := Compute(start, 3, []Event{weekly})
	require.Len(t, result.Days, 3)

	assert.Equal(t, time.Date(2014, 3, 30, 0, 0, 0, 0, paris), result.Days[1].Date)
	assert.Equal(t, time.Date(2014, 3, 31, 0, 0, 0, 0, paris), result.Days[2].Date)
	assert.Equal(t, []string{"9:00", "9:30"}, result.Days[1].Slots)
	assert.Empty(t, result.Days[0].Slots)
	assert.Empty(t, result.Days[2].Slots)
}

func TestCompute_Idempotent(t *testing.T) {
	events := randomEvents(gofakeit.New(42), 60)

	first := Compute(windowStart, 14, events)
	second := Compute(windowStart, 14, events)
	assert.Equal(t, first, second)
}

func TestCompute_MatchesNaiveSevenDayReference(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		events := randomEvents(gofakeit.New(seed), 40)

		result := Compute(windowStart, 7, events)
		want := naiveSevenDays(windowStart, events)

		require.Len(t, result.Days, 7)
		for i := range want {
			assert.Equal(t, want[i], result.Days[i].Slots, "seed %d day %d", seed, i)
		}
	}
}

func randomEvents(f *gofakeit.Faker, n int) []Event {
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		day := f.Number(-3, 9)
		start := windowStart.AddDate(0, 0, day).Add(time.Duration(f.Number(0, 47)) * SlotDuration)
		if f.Number(0, 9) == 0 {
			start = start.Add(time.Duration(f.Number(1, 29)) * time.Minute)
		}
		end := start.Add(time.Duration(f.Number(1, 8)) * SlotDuration)

		kind := KindAppointment
		if f.Bool() {
			kind = KindOpening
		}
		events = append(events, Event{
			Kind:            kind,
			StartsAt:        start,
			EndsAt:          end,
			WeeklyRecurring: kind == KindOpening && f.Number(0, 3) == 0,
		})
	}
	return events
}

// naiveSevenDays is a straightforward string-keyed rendition of the
// algorithm for a fixed seven day window, used as a cross-check.
func naiveSevenDays(start time.Time, events []Event) [][]string {
	const layout = "Mon Jan 02 2006"
	loc := start.Location()

	keys := make([]string, 7)
	slots := make(map[string][]string, 7)
	dates := make([]time.Time, 7)
	for i := 0; i < 7; i++ {
		d := time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
		dates[i] = d
		keys[i] = d.Format(layout)
		slots[keys[i]] = []string{}
	}

	var flat []Event
	for _, ev := range events {
		if !ev.WeeklyRecurring {
			flat = append(flat, ev)
		}
	}
	for _, d := range dates {
		for _, ev := range events {
			s, e := ev.StartsAt.In(loc), ev.EndsAt.In(loc)
			if !ev.WeeklyRecurring || s.Weekday() != d.Weekday() {
				continue
			}
			occ := ev
			occ.StartsAt = time.Date(d.Year(), d.Month(), d.Day(), s.Hour(), s.Minute(), 0, 0, loc)
			occ.EndsAt = time.Date(d.Year(), d.Month(), d.Day(), e.Hour(), e.Minute(), 0, 0, loc)
			flat = append(flat, occ)
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].Kind == KindOpening && flat[j].Kind != KindOpening
	})

	for _, ev := range flat {
		for t := ev.StartsAt; t.Before(ev.EndsAt); t = t.Add(30 * time.Minute) {
			k := t.In(loc).Format(layout)
			day, ok := slots[k]
			if !ok {
				continue
			}
			label := t.In(loc).Format("15:04")
			if label[0] == '0' {
				label = label[1:]
			}
			switch ev.Kind {
			case KindOpening:
				slots[k] = append(day, label)
			case KindAppointment:
				kept := []string{}
				for _, s := range day {
					if s != label {
						kept = append(kept, s)
					}
				}
				slots[k] = kept
			}
		}
	}

	out := make([][]string, 7)
	for i, k := range keys {
		out[i] = slots[k]
	}
	return out
}
