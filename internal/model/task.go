package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidFrequency = errors.New("model: invalid task frequency")
	ErrEmptyTitle       = errors.New("model: task title is required")
	ErrInvalidDate      = errors.New("model: invalid calendar date")
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyOneTime Frequency = "one-time"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOneTime:
		return true
	default:
		return false
	}
}

func (f Frequency) IsRecurring() bool {
	return f.IsValid() && f != FrequencyOneTime
}

func ParseFrequency(raw string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "daily", "day":
		return FrequencyDaily, nil
	case "weekly", "week":
		return FrequencyWeekly, nil
	case "monthly", "month":
		return FrequencyMonthly, nil
	case "one-time", "onetime", "one_time", "once":
		return FrequencyOneTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, raw)
	}
}

type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	Frequency      Frequency `json:"frequency"`
	IsCompleted    bool      `json:"isCompleted"`
	CompletedDates []string  `json:"completedDates"`
	PeriodStart    string    `json:"periodStart,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Reminder       *Reminder `json:"reminder,omitempty"`
	Color          string    `json:"color,omitempty"`
}

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	Icon        string
	Frequency   Frequency
}

func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if !in.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, in.Frequency)
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Frequency)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	seen := make(map[string]bool, len(t.CompletedDates))
	for _, d := range t.CompletedDates {
		if _, err := ParseDateKey(d); err != nil {
			return err
		}
		if seen[d] {
			return fmt.Errorf("model: duplicate completed date %s", d)
		}
		seen[d] = true
	}
	if t.Frequency == FrequencyOneTime && t.PeriodStart != "" {
		return errors.New("model: one-time task must not carry a period start")
	}
	if t.PeriodStart != "" {
		if _, err := ParseDateKey(t.PeriodStart); err != nil {
			return err
		}
	}
	if t.Reminder != nil {
		if err := t.Reminder.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t Task) HasReminder() bool {
	return t.Reminder != nil && t.Reminder.Enabled
}

func (t Task) CompletedOn(day string) bool {
	for _, d := range t.CompletedDates {
		if d == day {
			return true
		}
	}
	return false
}

func (t Task) clone() Task {
	out := t
	out.CompletedDates = append([]string{}, t.CompletedDates...)
	if t.Reminder != nil {
		r := *t.Reminder
		out.Reminder = &r
	}
	return out
}
