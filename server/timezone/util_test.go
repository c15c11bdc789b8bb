package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayStart(t *testing.T) {
	ts := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), DayStart(ts))

	// Non-UTC inputs are converted before truncation.
	loc := time.FixedZone("UTC+8", 8*3600)
	late := time.Date(2024, 3, 16, 6, 0, 0, 0, loc) // 2024-03-15T22:00Z
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), DayStart(late))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC)
	require.Equal(t, 1, DaysBetween(a, b))
	require.Equal(t, -1, DaysBetween(b, a))
	require.Equal(t, 0, DaysBetween(a, a))

	c := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 3, DaysBetween(a, c))
}

func TestDayStartUnix(t *testing.T) {
	ts := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Unix(), DayStartUnix(ts.Unix()))
}
