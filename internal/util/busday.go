package util

import "time"

// CountBusinessDays counts the weekdays in the half-open interval [from, to).
// If to is before from the result is negative. Only weekends are excluded;
// market holidays are not tracked, matching the rest of the pipeline which
// works in business-day offsets rather than exchange calendars.
func CountBusinessDays(from, to time.Time) int {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return -CountBusinessDays(to, from)
	}
	n := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			n++
		}
	}
	return n
}

// AddBusinessDays steps t forward by n weekdays. Non-positive n returns t
// unchanged.
func AddBusinessDays(t time.Time, n int) time.Time {
	t = truncateDay(t)
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if isWeekday(t) {
			n--
		}
	}
	return t
}

// NextBusinessDay returns the first weekday strictly after t.
func NextBusinessDay(t time.Time) time.Time {
	return AddBusinessDays(t, 1)
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
