package schema

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the zero-padded ISO calendar date used for every record date.
	// Lexicographic order of such strings equals chronological order.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24h wall-clock time used for bed, wake and intake times.
	ClockLayout = "15:04"
)

// FormatDate renders the calendar date of t in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidClock reports whether s is a well-formed HH:MM time.
func ValidClock(s string) bool {
	if len(s) != len(ClockLayout) {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// SleepDuration returns the minutes between bed and wake, wrapping past midnight
// when wake is earlier than bed.
func SleepDuration(bed, wake string) (int, error) {
	b, err := time.Parse(ClockLayout, bed)
	if err != nil {
		return 0, fmt.Errorf("%w: bed time %q", ErrInvalidRecord, bed)
	}
	w, err := time.Parse(ClockLayout, wake)
	if err != nil {
		return 0, fmt.Errorf("%w: wake time %q", ErrInvalidRecord, wake)
	}
	minutes := int(w.Sub(b).Minutes())
	if minutes < 0 {
		minutes += 24 * 60
	}
	return minutes, nil
}
