package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestDayOfWeekSundayIsOne(t *testing.T) {
	assert.Equal(t, 1, DayOfWeek(mustDate(t, "2024-10-06")))
	assert.Equal(t, 3, DayOfWeek(mustDate(t, "2024-10-08")))
	assert.Equal(t, 7, DayOfWeek(mustDate(t, "2024-10-12")))
}

func TestOccurrenceDates(t *testing.T) {
	dates := OccurrenceDates(3, mustDate(t, "2024-10-01"), mustDate(t, "2024-10-31"))
	require.Len(t, dates, 5)
	assert.Equal(t, "2024-10-01", FormatDate(dates[0]))
	assert.Equal(t, "2024-10-29", FormatDate(dates[4]))

	assert.Empty(t, OccurrenceDates(3, mustDate(t, "2024-10-02"), mustDate(t, "2024-10-07")))
	assert.Empty(t, OccurrenceDates(9, mustDate(t, "2024-10-01"), mustDate(t, "2024-10-31")))
	assert.Empty(t, OccurrenceDates(3, mustDate(t, "2024-10-31"), mustDate(t, "2024-10-01")))
}

func TestRangesOverlapGeometries(t *testing.T) {
	base := [2]time.Time{mustDate(t, "2024-09-01"), mustDate(t, "2024-12-15")}
	cases := map[string]struct {
		start, end string
		want       bool
	}{
		"contained-by":  {"2024-10-01", "2024-10-31", true},
		"contains":      {"2024-08-01", "2025-01-31", true},
		"partial-left":  {"2024-08-01", "2024-09-01", true},
		"partial-right": {"2024-12-15", "2025-01-15", true},
		"before":        {"2024-07-01", "2024-08-31", false},
		"after":         {"2024-12-16", "2025-01-31", false},
	}
	for name, tc := range cases {
		s, e := mustDate(t, tc.start), mustDate(t, tc.end)
		assert.Equal(t, tc.want, RangesOverlap(base[0], base[1], s, e), name)
		assert.Equal(t, tc.want, RangesOverlap(s, e, base[0], base[1]), name+" (swapped)")
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("08/10/2024")
	assert.Error(t, err)
}

func TestRecurringScheduleOccursOn(t *testing.T) {
	s := RecurringSchedule{DayOfWeek: 3, StartDate: mustDate(t, "2024-09-01"), EndDate: mustDate(t, "2024-12-15")}
	assert.True(t, s.OccursOn(mustDate(t, "2024-10-08")))
	assert.False(t, s.OccursOn(mustDate(t, "2024-10-09")))
	assert.False(t, s.OccursOn(mustDate(t, "2024-12-17")))
}
