package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDateKey(s string) (time.Time, error) {
	out, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return out, nil
}

// PeriodStart returns the canonical first day of the period containing ref,
// or "" for one-time tasks. Only the calendar date of ref in its own location
// is used. It panics on an unknown frequency.
func PeriodStart(ref time.Time, f Frequency) string {
	start, ok := periodStartDate(ref, f)
	if !ok {
		return ""
	}
	return DateKey(start)
}

func periodStartDate(ref time.Time, f Frequency) (time.Time, bool) {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	switch f {
	case FrequencyDaily:
		return day, true
	case FrequencyWeekly:
		wd := int(day.Weekday())
		offset := wd - 1
		if wd == 0 {
			offset = 6
		}
		return day.AddDate(0, 0, -offset), true
	case FrequencyMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), true
	case FrequencyOneTime:
		return time.Time{}, false
	default:
		panic(fmt.Sprintf("model: period start for invalid frequency %q", f))
	}
}

// previousPeriodStart returns the start of the period immediately before the
// one beginning at start.
func previousPeriodStart(start time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyDaily:
		return start.AddDate(0, 0, -1)
	case FrequencyWeekly:
		return start.AddDate(0, 0, -7)
	case FrequencyMonthly:
		return start.AddDate(0, -1, 0)
	default:
		panic(fmt.Sprintf("model: previous period for invalid frequency %q", f))
	}
}
