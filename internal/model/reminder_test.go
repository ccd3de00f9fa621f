package model

import (
	"errors"
	"testing"
	"time"
)

func TestReminderValidate(t *testing.T) {
	rem := Reminder{
		ID:      "task_1",
		Enabled: true,
		Time:    time.Date(2026, 2, 9, 13, 0, 0, 0, time.UTC),
	}
	if err := rem.Validate(); err != nil {
		t.Fatalf("expected valid reminder, got error: %v", err)
	}
	rem.Time = time.Time{}
	if err := rem.Validate(); err == nil {
		t.Fatal("expected error for enabled reminder without time")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tod.Hour != 7 || tod.Minute != 5 || tod.String() != "07:05" {
		t.Fatalf("unexpected time of day: %+v", tod)
	}
	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "-1:10"} {
		if _, err := ParseTimeOfDay(bad); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("parse %q: expected ErrInvalidTimeOfDay, got %v", bad, err)
		}
	}
}

func TestNextOccurrenceLaterToday(t *testing.T) {
	now := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	got := NextOccurrence(now, TimeOfDay{Hour: 14, Minute: 30})
	if got.Format("2006-01-02 15:04") != "2024-06-01 14:30" {
		t.Fatalf("unexpected next occurrence: %s", got.Format(time.RFC3339))
	}
}

func TestNextOccurrenceElapsedRollsToTomorrow(t *testing.T) {
	now := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	got := NextOccurrence(now, TimeOfDay{Hour: 13, Minute: 30})
	if got.Format("2006-01-02 15:04") != "2024-06-02 13:30" {
		t.Fatalf("unexpected next occurrence: %s", got.Format(time.RFC3339))
	}
	// Exactly now is not strictly after now.
	got = NextOccurrence(now, TimeOfDay{Hour: 14, Minute: 0})
	if got.Format("2006-01-02 15:04") != "2024-06-02 14:00" {
		t.Fatalf("expected tomorrow for the current minute, got %s", got.Format(time.RFC3339))
	}
}

func TestNextOccurrenceCrossesMonthEnd(t *testing.T) {
	now := time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)
	got := NextOccurrence(now, TimeOfDay{Hour: 6, Minute: 0})
	if got.Format("2006-01-02 15:04") != "2024-03-01 06:00" {
		t.Fatalf("unexpected next occurrence: %s", got.Format(time.RFC3339))
	}
}
