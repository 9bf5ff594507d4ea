package utils

import (
	"time"
)

// TimeNowUTC is the clock used for persisted timestamps.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// DateKey returns the UTC calendar day of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfYear returns January 1st of t's year in UTC.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}
