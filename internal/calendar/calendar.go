// Package calendar walks inclusive ranges of UTC calendar days.
package calendar

import (
	"iter"
	"time"
)

// DateLayout is the wire format for dates accepted and printed by the dispatcher.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD date as a UTC day.
func Parse(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// Walk yields every calendar day from init through end, both included. An end
// before init yields nothing.
func Walk(init, end time.Time) iter.Seq[time.Time] {
	first, last := Day(init), Day(end)
	return func(yield func(time.Time) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			if !yield(day) {
				return
			}
		}
	}
}

// Days collects Walk into a slice.
func Days(init, end time.Time) []time.Time {
	var out []time.Time
	for day := range Walk(init, end) {
		out = append(out, day)
	}
	return out
}

// Count returns the number of days Walk would yield.
func Count(init, end time.Time) int {
	first, last := Day(init), Day(end)
	if last.Before(first) {
		return 0
	}
	return int(last.Sub(first).Hours()/24) + 1
}
