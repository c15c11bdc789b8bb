// Package timezone provides the UTC day arithmetic the engine standardizes
// on. Streak accounting and review scheduling both count calendar days at
// UTC day boundaries, never rolling 24-hour windows.
package timezone

import "time"

// DayStart truncates a time to the start of its UTC calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayStartUnix is DayStart for unix-second timestamps.
func DayStartUnix(ts int64) int64 {
	return DayStart(time.Unix(ts, 0)).Unix()
}

// DaysBetween counts whole UTC calendar days from a to b. The result is
// negative when b's day precedes a's.
func DaysBetween(a, b time.Time) int {
	return int(DayStart(b).Sub(DayStart(a)).Hours() / 24)
}

// AddDays shifts a time forward by the given number of days.
func AddDays(t time.Time, days int32) time.Time {
	return t.AddDate(0, 0, int(days))
}
