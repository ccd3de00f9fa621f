package storage

import (
	"fmt"
	"strings"

	"github.com/mtuyar/habitd/internal/model"
)

// normalize turns a stored record into a valid task. It is the only place
// where absent optional fields get their defaults.
func normalize(rec taskRecord) (model.Task, error) {
	freq, err := model.ParseFrequency(rec.Frequency)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", rec.ID, err)
	}

	out := model.Task{
		ID:             strings.TrimSpace(rec.ID),
		Title:          strings.TrimSpace(rec.Title),
		Category:       rec.Category,
		Icon:           rec.Icon,
		Frequency:      freq,
		IsCompleted:    rec.IsCompleted,
		CompletedDates: dedupeDates(rec.CompletedDates),
		CreatedAt:      rec.CreatedAt,
		Color:          rec.Color,
	}
	if rec.Description != nil {
		out.Description = *rec.Description
	}
	if rec.PeriodStart != nil && freq.IsRecurring() {
		out.PeriodStart = strings.TrimSpace(*rec.PeriodStart)
	}
	if rec.Reminder != nil {
		out.Reminder = normalizeReminder(out.ID, *rec.Reminder)
	}

	if err := out.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", rec.ID, err)
	}
	return out, nil
}

func normalizeReminder(taskID string, rec reminderRecord) *model.Reminder {
	enabled := rec.Enabled != nil && *rec.Enabled
	if rec.Time == nil || rec.Time.IsZero() {
		if !enabled {
			return nil
		}
		// An enabled reminder without a time cannot be registered.
		enabled = false
	}
	out := &model.Reminder{
		ID:      strings.TrimSpace(rec.ID),
		Enabled: enabled,
		OneShot: rec.OneShot,
	}
	if rec.Time != nil {
		out.Time = *rec.Time
	}
	if out.ID == "" {
		out.ID = "task_" + taskID
	}
	return out
}

func toRecord(t model.Task) taskRecord {
	desc := t.Description
	rec := taskRecord{
		ID:             t.ID,
		Title:          t.Title,
		Description:    &desc,
		Category:       t.Category,
		Icon:           t.Icon,
		Frequency:      string(t.Frequency),
		IsCompleted:    t.IsCompleted,
		CompletedDates: append([]string{}, t.CompletedDates...),
		CreatedAt:      t.CreatedAt,
		Color:          t.Color,
	}
	if t.PeriodStart != "" {
		ps := t.PeriodStart
		rec.PeriodStart = &ps
	}
	if t.Reminder != nil {
		enabled := t.Reminder.Enabled
		tm := t.Reminder.Time
		rec.Reminder = &reminderRecord{
			ID:      t.Reminder.ID,
			Enabled: &enabled,
			Time:    &tm,
			OneShot: t.Reminder.OneShot,
		}
	}
	return rec
}

func dedupeDates(dates []string) []string {
	out := make([]string, 0, len(dates))
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
