package model

import (
	"testing"
	"time"
)

func TestPeriodStartWeeklyIsMondayForWholeWeek(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i).Add(time.Duration(i*3+1) * time.Hour)
		if got := PeriodStart(d, FrequencyWeekly); got != "2024-03-04" {
			t.Fatalf("weekly start for %s = %s, want 2024-03-04", d.Format(time.RFC3339), got)
		}
	}
	if got := PeriodStart(monday.AddDate(0, 0, 7), FrequencyWeekly); got != "2024-03-11" {
		t.Fatalf("next monday should open a new week, got %s", got)
	}
	if got := PeriodStart(monday.AddDate(0, 0, -1), FrequencyWeekly); got != "2024-02-26" {
		t.Fatalf("sunday before should belong to previous week, got %s", got)
	}
}

func TestPeriodStartDailyAndMonthly(t *testing.T) {
	ref := time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC)
	if got := PeriodStart(ref, FrequencyDaily); got != "2024-05-31" {
		t.Fatalf("daily start = %s", got)
	}
	if got := PeriodStart(ref, FrequencyMonthly); got != "2024-05-01" {
		t.Fatalf("monthly start = %s", got)
	}
	if got := PeriodStart(ref.Add(time.Minute), FrequencyMonthly); got != "2024-06-01" {
		t.Fatalf("monthly start across boundary = %s", got)
	}
}

func TestPeriodStartOneTimeIsEmpty(t *testing.T) {
	if got := PeriodStart(time.Now(), FrequencyOneTime); got != "" {
		t.Fatalf("expected empty period start for one-time, got %q", got)
	}
}

func TestPeriodStartUsesLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2024-03-10T20:00Z is Monday 2024-03-11 05:00 in UTC+9.
	ref := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC).In(loc)
	if got := PeriodStart(ref, FrequencyDaily); got != "2024-03-11" {
		t.Fatalf("daily start should follow local date, got %s", got)
	}
	if got := PeriodStart(ref, FrequencyWeekly); got != "2024-03-11" {
		t.Fatalf("weekly start should follow local date, got %s", got)
	}
}

func TestPeriodStartPanicsOnInvalidFrequency(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid frequency")
		}
	}()
	PeriodStart(time.Now(), Frequency("yearly"))
}
