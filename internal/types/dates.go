package types

import "time"

// DateLayout is the calendar date format used in manifests and lexicons
const DateLayout = "2006-01-02"

// NewDate returns a pointer to the UTC midnight of the given calendar day
func NewDate(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// FormatDate renders an optional date as YYYY-MM-DD, or "Unknown" when absent
func FormatDate(d *time.Time) string {
	if d == nil {
		return "Unknown"
	}
	return d.Format(DateLayout)
}

// DateBefore orders optional dates ascending with unknown dates last.
// It reports whether a sorts strictly before b.
func DateBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

// DateAfter orders optional dates descending with unknown dates last.
// It reports whether a sorts strictly before b.
func DateAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

// DateRange returns the earliest and latest known dates; both nil if none are known
func DateRange(dates []*time.Time) (first, last *time.Time) {
	for _, d := range dates {
		if d == nil {
			continue
		}
		if first == nil || d.Before(*first) {
			first = d
		}
		if last == nil || d.After(*last) {
			last = d
		}
	}
	return first, last
}

// CountDistinctDates counts the distinct known calendar days
func CountDistinctDates(dates []*time.Time) int {
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if d != nil {
			seen[d.Format(DateLayout)] = struct{}{}
		}
	}
	return len(seen)
}
