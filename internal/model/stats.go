package model

import "time"

// Streak counts consecutive periods with at least one completion, ending at
// the current period. An open current period does not break the streak; the
// count then ends at the previous period. One-time tasks score 1 when done.
func Streak(t Task, today time.Time) int {
	if !t.Frequency.IsRecurring() {
		if t.IsCompleted {
			return 1
		}
		return 0
	}

	hits := make(map[string]bool, len(t.CompletedDates))
	for _, d := range t.CompletedDates {
		day, err := ParseDateKey(d)
		if err != nil {
			continue
		}
		hits[PeriodStart(day, t.Frequency)] = true
	}

	cursor, _ := periodStartDate(today, t.Frequency)
	if !hits[DateKey(cursor)] {
		cursor = previousPeriodStart(cursor, t.Frequency)
	}
	streak := 0
	for hits[DateKey(cursor)] {
		streak++
		cursor = previousPeriodStart(cursor, t.Frequency)
	}
	return streak
}
