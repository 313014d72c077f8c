package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", raw, DateLayout)
	}
	return t, nil
}

// TruncateDate drops the wall-clock part, keeping the calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date using DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate reports whether two instants fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return TruncateDate(a).Equal(TruncateDate(b))
}

// DayOfWeek maps a date onto the 1 = Sunday .. 7 = Saturday encoding.
func DayOfWeek(date time.Time) int {
	return int(date.Weekday()) + 1
}

// ValidDayOfWeek reports whether day is within 1..7.
func ValidDayOfWeek(day int) bool {
	return day >= 1 && day <= 7
}

// RangesOverlap reports whether [aStart, aEnd] and [bStart, bEnd] share a date.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// OccurrenceDates lists every date in [start, end] falling on day.
func OccurrenceDates(day int, start, end time.Time) []time.Time {
	start, end = TruncateDate(start), TruncateDate(end)
	if end.Before(start) || !ValidDayOfWeek(day) {
		return nil
	}
	offset := (day - DayOfWeek(start) + 7) % 7
	var dates []time.Time
	for d := start.AddDate(0, 0, offset); !d.After(end); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// MaxDate returns the later of two dates.
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of two dates.
func MinDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
