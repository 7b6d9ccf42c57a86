package clock

import "time"

// Clock supplies "today" for all temporal logic. Lease expiry, rent
// generation and late-fee arithmetic must never read the wall clock
// directly so tests can pin time deterministically.
type Clock interface {
	Today() time.Time
}

// System reads the real wall clock.
type System struct{}

// Today returns the current civil date at midnight UTC.
func (System) Today() time.Time {
	return Date(time.Now().UTC())
}

// Fixed always returns the same date. Test helper.
type Fixed struct {
	Day time.Time
}

func (f Fixed) Today() time.Time {
	return Date(f.Day)
}

// Date truncates a timestamp to its civil date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Negative
// when b is before a. Both arguments are normalized first.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
