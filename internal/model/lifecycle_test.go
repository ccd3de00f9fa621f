package model

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestNewTaskComputesPeriodStart(t *testing.T) {
	now := day(2024, 3, 6)
	task, err := NewTask("t1", TaskInput{Title: "  Stretch ", Frequency: FrequencyWeekly}, now)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Title != "Stretch" || task.PeriodStart != "2024-03-04" || task.IsCompleted {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.CompletedDates == nil || len(task.CompletedDates) != 0 {
		t.Fatalf("expected empty history, got %#v", task.CompletedDates)
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("new task should validate: %v", err)
	}
}

func TestNewTaskRejectsEmptyTitle(t *testing.T) {
	_, err := NewTask("t1", TaskInput{Title: "   ", Frequency: FrequencyDaily}, day(2024, 3, 6))
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestRolloverDailyReset(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Read", Frequency: FrequencyDaily, IsCompleted: true,
		PeriodStart: "2024-06-01", CompletedDates: []string{"2024-06-01"}, CreatedAt: day(2024, 5, 1),
	}
	next, changed := task.Rollover(day(2024, 6, 2))
	if !changed || next.IsCompleted || next.PeriodStart != "2024-06-02" {
		t.Fatalf("unexpected rollover result: changed=%v task=%+v", changed, next)
	}
	if !reflect.DeepEqual(next.CompletedDates, []string{"2024-06-01"}) {
		t.Fatalf("history must be unchanged, got %v", next.CompletedDates)
	}
	if !task.IsCompleted {
		t.Fatal("rollover must not mutate its receiver")
	}
}

func TestRolloverMonthlyBoundary(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Budget", Frequency: FrequencyMonthly, IsCompleted: true,
		PeriodStart: "2024-05-01", CompletedDates: []string{"2024-05-03"}, CreatedAt: day(2024, 5, 1),
	}
	same, changed := task.Rollover(day(2024, 5, 31))
	if changed || !same.IsCompleted || same.PeriodStart != "2024-05-01" {
		t.Fatalf("expected no change on 2024-05-31, got changed=%v task=%+v", changed, same)
	}
	next, changed := task.Rollover(day(2024, 6, 1))
	if !changed || next.IsCompleted || next.PeriodStart != "2024-06-01" {
		t.Fatalf("expected reset on 2024-06-01, got changed=%v task=%+v", changed, next)
	}
}

func TestRolloverIsIdempotent(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Plan", Frequency: FrequencyWeekly, IsCompleted: true,
		PeriodStart: "2024-02-26", CompletedDates: []string{"2024-02-27"}, CreatedAt: day(2024, 2, 1),
	}
	today := day(2024, 3, 7)
	once, _ := task.Rollover(today)
	twice, changed := once.Rollover(today)
	if changed {
		t.Fatal("second rollover with the same day must be a no-op")
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("rollover not idempotent: %+v vs %+v", once, twice)
	}
}

func TestRolloverNeverTouchesOneTime(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Passport", Frequency: FrequencyOneTime, IsCompleted: true,
		CompletedDates: []string{"2024-01-10"}, CreatedAt: day(2024, 1, 1),
	}
	for d := day(2024, 1, 10); d.Before(day(2025, 1, 10)); d = d.AddDate(0, 0, 13) {
		next, changed := task.Rollover(d)
		if changed || !next.IsCompleted || next.PeriodStart != "" {
			t.Fatalf("one-time task changed on %s: %+v", DateKey(d), next)
		}
	}
}

func TestToggleCompleteAndUndo(t *testing.T) {
	now := day(2024, 3, 6)
	task, err := NewTask("t1", TaskInput{Title: "Walk", Frequency: FrequencyDaily}, now)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	done := task.Toggle(now)
	if !done.IsCompleted || !reflect.DeepEqual(done.CompletedDates, []string{"2024-03-06"}) {
		t.Fatalf("unexpected completed task: %+v", done)
	}

	undone := done.Toggle(now.Add(time.Hour))
	if undone.IsCompleted || len(undone.CompletedDates) != 0 {
		t.Fatalf("unexpected undone task: %+v", undone)
	}
}

func TestToggleDoesNotDuplicateToday(t *testing.T) {
	now := day(2024, 3, 6)
	task := Task{
		ID: "t1", Title: "Walk", Frequency: FrequencyWeekly, PeriodStart: "2024-03-04",
		CompletedDates: []string{"2024-03-06"}, CreatedAt: day(2024, 3, 1),
	}
	done := task.Toggle(now)
	if !reflect.DeepEqual(done.CompletedDates, []string{"2024-03-06"}) {
		t.Fatalf("expected single entry for today, got %v", done.CompletedDates)
	}
}

func TestToggleUndoOnlyTouchesToday(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Review", Frequency: FrequencyWeekly, IsCompleted: true, PeriodStart: "2024-03-04",
		CompletedDates: []string{"2024-02-28", "2024-03-05"}, CreatedAt: day(2024, 2, 1),
	}
	undone := task.Toggle(day(2024, 3, 7))
	if undone.IsCompleted {
		t.Fatal("expected pending after undo")
	}
	if !reflect.DeepEqual(undone.CompletedDates, []string{"2024-02-28", "2024-03-05"}) {
		t.Fatalf("past entries must survive, got %v", undone.CompletedDates)
	}
}

func TestToggleAppliesRolloverFirst(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Gym", Frequency: FrequencyWeekly, IsCompleted: true, PeriodStart: "2024-02-26",
		CompletedDates: []string{"2024-02-27"}, CreatedAt: day(2024, 2, 1),
	}
	// Completed last week: a toggle this week completes the new period
	// instead of undoing the stale flag.
	got := task.Toggle(day(2024, 3, 5))
	if !got.IsCompleted || got.PeriodStart != "2024-03-04" {
		t.Fatalf("expected completion in new period, got %+v", got)
	}
	if !reflect.DeepEqual(got.CompletedDates, []string{"2024-02-27", "2024-03-05"}) {
		t.Fatalf("unexpected history: %v", got.CompletedDates)
	}
}

func TestToggleFillsMissingPeriodStart(t *testing.T) {
	task := Task{ID: "t1", Title: "Stretch", Frequency: FrequencyMonthly, CompletedDates: []string{}, CreatedAt: day(2024, 1, 1)}
	got := task.Toggle(day(2024, 3, 15))
	if got.PeriodStart != "2024-03-01" {
		t.Fatalf("expected period start to be filled, got %q", got.PeriodStart)
	}
}

func TestHistoryMonotonicUnderToggleSequence(t *testing.T) {
	task, err := NewTask("t1", TaskInput{Title: "Water", Frequency: FrequencyDaily}, day(2024, 3, 1))
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	now := day(2024, 3, 1)
	for i := 0; i < 40; i++ {
		before := append([]string{}, task.CompletedDates...)
		task = task.Toggle(now)
		today := DateKey(now)
		seen := map[string]int{}
		for _, d := range task.CompletedDates {
			seen[d]++
			if seen[d] > 1 {
				t.Fatalf("duplicate entry %s after step %d", d, i)
			}
		}
		for _, d := range before {
			if d != today && !task.CompletedOn(d) {
				t.Fatalf("past entry %s removed at step %d", d, i)
			}
		}
		for _, d := range task.CompletedDates {
			if d != today && !contains(before, d) {
				t.Fatalf("entry %s added for a day other than today at step %d", d, i)
			}
		}
		if i%3 == 2 {
			now = now.AddDate(0, 0, 1)
		}
	}
}

func TestEditFrequencyRecomputesPeriodStart(t *testing.T) {
	task := Task{
		ID: "t1", Title: "Call mom", Frequency: FrequencyDaily, IsCompleted: true, PeriodStart: "2024-03-06",
		CompletedDates: []string{"2024-03-06"}, CreatedAt: day(2024, 3, 1),
	}
	edited, err := task.Edit(TaskInput{Title: "Call mom", Category: "family", Frequency: FrequencyMonthly}, day(2024, 3, 6))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.PeriodStart != "2024-03-01" || edited.Category != "family" {
		t.Fatalf("unexpected edited task: %+v", edited)
	}
	if !reflect.DeepEqual(edited.CompletedDates, task.CompletedDates) {
		t.Fatalf("edit must keep history, got %v", edited.CompletedDates)
	}

	oneTime, err := edited.Edit(TaskInput{Title: "Call mom", Frequency: FrequencyOneTime}, day(2024, 3, 6))
	if err != nil {
		t.Fatalf("edit to one-time: %v", err)
	}
	if oneTime.PeriodStart != "" {
		t.Fatalf("one-time task must drop its period start, got %q", oneTime.PeriodStart)
	}
}

func TestEditRejectsInvalidInputWithoutChange(t *testing.T) {
	task := Task{ID: "t1", Title: "Read", Frequency: FrequencyDaily, CreatedAt: day(2024, 3, 1)}
	got, err := task.Edit(TaskInput{Title: "", Frequency: FrequencyDaily}, day(2024, 3, 2))
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if got.Title != "Read" {
		t.Fatalf("task must be unchanged, got %+v", got)
	}
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func TestInputRoundTripsThroughEdit(t *testing.T) {
	task, err := NewTask("t1", TaskInput{Title: "Read", Category: "mind", Icon: "📚", Frequency: FrequencyWeekly}, day(2024, 3, 6))
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	in := task.Input()
	in.Title = "Read fiction"
	edited, err := task.Edit(in, day(2024, 3, 7))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Title != "Read fiction" || edited.Category != "mind" || edited.Icon != "📚" || edited.PeriodStart != task.PeriodStart {
		t.Fatalf("unexpected edited task: %+v", edited)
	}
}
