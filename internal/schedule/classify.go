package schedule

import (
	"fmt"
	"time"

	"gym-service/pkg/response"
)

type Class int

const (
	Past Class = iota
	Future
)

const dateLayout = "2006-01-02"

// Instant combines a calendar date and an optional time-of-day into a single
// point in time. A missing time means midnight, so date-only records compare
// at the start of their day.
func Instant(date, timeOfDay string) (time.Time, error) {
	const op = "schedule.Instant"

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, response.ErrMalformedDate)
	}

	if timeOfDay == "" {
		return d, nil
	}

	t, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		t, err = time.Parse("15:04:05", timeOfDay)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", op, response.ErrMalformedDate)
		}
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// Classify reports whether a record's session instant lies before ref (Past)
// or at/after it (Future). Callers choose ref: booking filters pass the
// request's "now" snapshot, session filters pass midnight of today so that
// anything dated today still counts as upcoming.
func Classify(date, timeOfDay string, ref time.Time) (Class, error) {
	instant, err := Instant(date, timeOfDay)
	if err != nil {
		return Past, err
	}

	if instant.Before(ref) {
		return Past, nil
	}

	return Future, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SortKey yields a lexicographically ordered chronological key for a record.
// ISO dates and 24h times sort correctly as plain strings.
func SortKey(date, timeOfDay string) string {
	return date + " " + timeOfDay
}
