package model

import (
	"strings"
	"time"
)

func NewTask(id string, in TaskInput, now time.Time) (Task, error) {
	if err := in.Validate(); err != nil {
		return Task{}, err
	}
	t := Task{
		ID:             id,
		CompletedDates: []string{},
		CreatedAt:      now,
	}
	t.apply(in)
	t.PeriodStart = PeriodStart(now, t.Frequency)
	return t, nil
}

// Edit replaces the descriptive fields. A frequency change recomputes the
// period start from now and keeps the completion history.
func (t Task) Edit(in TaskInput, now time.Time) (Task, error) {
	if err := in.Validate(); err != nil {
		return t, err
	}
	out := t.clone()
	changed := out.Frequency != in.Frequency
	out.apply(in)
	if changed {
		out.PeriodStart = PeriodStart(now, out.Frequency)
	}
	return out, nil
}

// Input returns the editable fields, as a starting point for Edit.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Icon:        t.Icon,
		Frequency:   t.Frequency,
	}
}

func (t *Task) apply(in TaskInput) {
	t.Title = strings.TrimSpace(in.Title)
	t.Description = strings.TrimSpace(in.Description)
	t.Category = strings.TrimSpace(in.Category)
	t.Icon = strings.TrimSpace(in.Icon)
	t.Frequency = in.Frequency
}

// Rollover resets the completion flag when today falls in a later period than
// the stored one. History is never touched. The bool reports a change.
func (t Task) Rollover(today time.Time) (Task, bool) {
	if !t.Frequency.IsRecurring() {
		return t, false
	}
	current := PeriodStart(today, t.Frequency)
	if current == t.PeriodStart {
		return t, false
	}
	out := t.clone()
	out.IsCompleted = false
	out.PeriodStart = current
	return out, true
}

func (t Task) Toggle(now time.Time) Task {
	out, _ := t.Rollover(now)
	out = out.clone()
	today := DateKey(now)

	if out.IsCompleted {
		out.IsCompleted = false
		out.CompletedDates = removeDate(out.CompletedDates, today)
		return out
	}

	out.IsCompleted = true
	if !out.CompletedOn(today) {
		out.CompletedDates = append(out.CompletedDates, today)
	}
	if out.PeriodStart == "" {
		out.PeriodStart = PeriodStart(now, out.Frequency)
	}
	return out
}

func (t Task) WithReminder(r *Reminder) Task {
	out := t.clone()
	if r == nil {
		out.Reminder = nil
		return out
	}
	cp := *r
	out.Reminder = &cp
	return out
}

func removeDate(dates []string, day string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != day {
			out = append(out, d)
		}
	}
	return out
}
