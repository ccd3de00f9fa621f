package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeOfDay = errors.New("model: invalid time of day")

type Reminder struct {
	ID      string    `json:"id"`
	Enabled bool      `json:"enabled"`
	Time    time.Time `json:"time"`
	// OneShot marks a registration that fires once at Time instead of daily.
	OneShot bool `json:"oneShot,omitempty"`
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: reminder id is required")
	}
	if r.Enabled && r.Time.IsZero() {
		return errors.New("model: reminder time is required when enabled")
	}
	return nil
}

func (r Reminder) TimeOfDay() TimeOfDay {
	return TimeOfDay{Hour: r.Time.Hour(), Minute: r.Time.Minute()}
}

// TimeOfDay is a wall-clock hour and minute in the local timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, t.Hour, t.Minute)
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	out := TimeOfDay{Hour: h, Minute: m}
	if err := out.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return out, nil
}

// NextOccurrence returns the first instant strictly after now whose wall
// clock reads tod in now's location.
func NextOccurrence(now time.Time, tod TimeOfDay) time.Time {
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(y, m, d+1, tod.Hour, tod.Minute, 0, 0, now.Location())
	}
	return candidate
}
