// Package occurrence expands stored events into concrete occurrences within
// a query window and maps occurrences to stable string ids. Expansion is a
// pure computation: occurrences are never persisted and regenerate
// identically for identical inputs.
package occurrence

import (
	"time"

	"github.com/j-vseg/piwo/internal/domain"
)

// Generate expands an event into its occurrences inside [from, until].
// Both window bounds are inclusive and the overlap test is used throughout:
// an occurrence belongs to the window iff its end is not before from and its
// start is not after until, so an activity already in progress at from still
// appears.
//
// The result is ordered ascending by start time. Events must have been
// validated before reaching this function; EndDate <= StartDate is a caller
// invariant violation.
func Generate(ev *domain.Event, from, until time.Time) []domain.Occurrence {
	if !ev.IsRecurring() {
		if !overlaps(ev.StartDate, ev.EndDate, from, until) {
			return nil
		}
		return []domain.Occurrence{at(ev, ev.StartDate, false)}
	}

	interval := ev.Recurrence.Interval
	if interval < 1 {
		interval = 1
	}
	dur := ev.Duration()

	// Walk forward from the series start until an occurrence end reaches
	// the window. Monthly steps are not a fixed duration, so candidates are
	// derived from the base start by step count: that keeps the day-of-month
	// clamp anchored to the original day (Jan 31 -> Feb 29 -> Mar 31).
	n := 0
	current := ev.StartDate
	for current.Add(dur).Before(from) {
		n++
		current = advance(ev.StartDate, ev.Recurrence.Frequency, interval, n)
	}

	var out []domain.Occurrence
	for !current.After(until) {
		if overlaps(current, current.Add(dur), from, until) {
			out = append(out, at(ev, current, true))
		}
		n++
		current = advance(ev.StartDate, ev.Recurrence.Frequency, interval, n)
	}
	return out
}

// advance returns the start of the n-th occurrence after base.
func advance(base time.Time, freq domain.Frequency, interval, n int) time.Time {
	switch freq {
	case domain.FrequencyDaily:
		return base.AddDate(0, 0, n*interval)
	case domain.FrequencyWeekly:
		return base.AddDate(0, 0, 7*n*interval)
	case domain.FrequencyMonthly:
		return addMonths(base, n*interval)
	}
	return base
}

// addMonths adds months to base, clamping the day-of-month to the last valid
// day of the target month and preserving the time-of-day exactly.
func addMonths(base time.Time, months int) time.Time {
	total := int(base.Month()) - 1 + months
	year := base.Year() + total/12
	month := time.Month(total%12 + 1)

	day := base.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		base.Hour(), base.Minute(), base.Second(), base.Nanosecond(),
		base.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func at(ev *domain.Event, start time.Time, recurring bool) domain.Occurrence {
	return domain.Occurrence{
		ID:        EncodeID(ev.ID, start, recurring),
		EventID:   ev.ID,
		StartTime: start,
		EndTime:   start.Add(ev.Duration()),
		Name:      ev.Name,
		Category:  ev.Category,
	}
}

func overlaps(start, end, from, until time.Time) bool {
	return !end.Before(from) && !start.After(until)
}
