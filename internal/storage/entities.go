package storage

import "time"

// taskRecord is the stored shape of a task. Pointer fields distinguish an
// absent value from an empty one; defaults are filled by normalize.
type taskRecord struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    *string         `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	Icon           string          `json:"icon,omitempty"`
	Frequency      string          `json:"frequency"`
	IsCompleted    bool            `json:"isCompleted"`
	CompletedDates []string        `json:"completedDates,omitempty"`
	PeriodStart    *string         `json:"periodStart,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	Reminder       *reminderRecord `json:"reminder,omitempty"`
	Color          string          `json:"color,omitempty"`
}

type reminderRecord struct {
	ID      string     `json:"id,omitempty"`
	Enabled *bool      `json:"enabled,omitempty"`
	Time    *time.Time `json:"time,omitempty"`
	OneShot bool       `json:"oneShot,omitempty"`
}
