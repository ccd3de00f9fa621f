// Package reminder keeps a task's reminder record consistent with the
// registrations held by the notification host.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/mtuyar/habitd/internal/model"
	"github.com/mtuyar/habitd/internal/scheduler"
)

var (
	ErrPermissionDenied = errors.New("reminder: notification permission denied")
	ErrScheduleFailed   = errors.New("reminder: could not schedule reminder")
)

const idPrefix = "task_"

// Host is the notification subsystem. Cancel of an unknown id must succeed.
type Host interface {
	Schedule(ctx context.Context, req scheduler.Request) (string, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
}

type Permission interface {
	EnsurePermission(ctx context.Context) (bool, error)
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type Scheduler struct {
	host   Host
	perm   Permission
	now    func() time.Time
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewScheduler(host Host, perm Permission, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:   host,
		perm:   perm,
		now:    time.Now,
		logger: log.New(io.Discard, "", 0),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ID(taskID string) string {
	return idPrefix + taskID
}

// Set replaces any registration for the task with a new one at tod. On
// failure the returned task is the input task, unchanged.
func (s *Scheduler) Set(ctx context.Context, task model.Task, tod model.TimeOfDay, repeating bool) (model.Task, error) {
	if err := tod.Validate(); err != nil {
		return task, err
	}
	unlock := s.lock(task.ID)
	defer unlock()

	granted, err := s.perm.EnsurePermission(ctx)
	if err != nil {
		return task, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !granted {
		return task, ErrPermissionDenied
	}

	id := ID(task.ID)
	if err := s.host.Cancel(ctx, id); err != nil {
		s.logger.Printf("reminder: cancel %s before reschedule: %v", id, err)
	}

	now := s.now()
	next := model.NextOccurrence(now, tod)
	trigger := scheduler.Trigger{At: next}
	if repeating {
		trigger = scheduler.Trigger{Hour: tod.Hour, Minute: tod.Minute, Repeats: true}
	}

	handle, err := s.host.Schedule(ctx, request(task, id, trigger))
	if err != nil {
		s.restorePrevious(ctx, task)
		return task, fmt.Errorf("%w: %v", ErrScheduleFailed, err)
	}
	if handle == "" {
		handle = id
	}

	s.logger.Printf("reminder: scheduled %s at %s (repeating=%t)", handle, next.Format(time.RFC3339), repeating)
	return task.WithReminder(&model.Reminder{
		ID:      handle,
		Enabled: true,
		Time:    next,
		OneShot: !repeating,
	}), nil
}

// Cancel clears the task's reminder. A host failure is logged and the
// reminder is cleared anyway.
func (s *Scheduler) Cancel(ctx context.Context, task model.Task) (model.Task, error) {
	unlock := s.lock(task.ID)
	defer unlock()

	id := ID(task.ID)
	if task.Reminder != nil && task.Reminder.ID != "" {
		id = task.Reminder.ID
	}
	if err := s.host.Cancel(ctx, id); err != nil {
		s.logger.Printf("reminder: cancel %s: %v", id, err)
	}
	return task.WithReminder(nil), nil
}

// CancelAll drops every registration held by the host.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.host.CancelAll(ctx)
}

// Restore re-registers enabled reminders, for hosts that forget them across
// restarts. Elapsed one-shot reminders and registrations the host refuses are
// disabled in the returned slice.
func (s *Scheduler) Restore(ctx context.Context, tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	granted, err := s.perm.EnsurePermission(ctx)
	switch {
	case err != nil:
		s.logger.Printf("reminder: restore skipped: %v", err)
		return out
	case !granted:
		s.logger.Printf("reminder: restore skipped: %v; %d reminder(s) will not fire", ErrPermissionDenied, countEnabled(out))
		return out
	}

	now := s.now()
	for i, task := range out {
		if !task.HasReminder() {
			continue
		}
		rem := *task.Reminder
		if rem.OneShot && !rem.Time.After(now) {
			rem.Enabled = false
			out[i] = task.WithReminder(&rem)
			continue
		}

		trigger := scheduler.Trigger{At: rem.Time}
		if !rem.OneShot {
			tod := rem.TimeOfDay()
			trigger = scheduler.Trigger{Hour: tod.Hour, Minute: tod.Minute, Repeats: true}
		}
		unlock := s.lock(task.ID)
		_, err := s.host.Schedule(ctx, request(task, ID(task.ID), trigger))
		unlock()
		if err != nil {
			s.logger.Printf("reminder: restore %s: %v", task.ID, err)
			rem.Enabled = false
			out[i] = task.WithReminder(&rem)
		}
	}
	return out
}

func countEnabled(tasks []model.Task) int {
	n := 0
	for _, task := range tasks {
		if task.HasReminder() {
			n++
		}
	}
	return n
}

func (s *Scheduler) restorePrevious(ctx context.Context, task model.Task) {
	if !task.HasReminder() {
		return
	}
	prev := *task.Reminder
	trigger := scheduler.Trigger{At: prev.Time}
	if !prev.OneShot {
		tod := prev.TimeOfDay()
		trigger = scheduler.Trigger{Hour: tod.Hour, Minute: tod.Minute, Repeats: true}
	} else if !prev.Time.After(s.now()) {
		return
	}
	if _, err := s.host.Schedule(ctx, request(task, ID(task.ID), trigger)); err != nil {
		s.logger.Printf("reminder: re-register previous %s: %v", task.ID, err)
	}
}

func (s *Scheduler) lock(taskID string) func() {
	s.mu.Lock()
	l, ok := s.locks[taskID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[taskID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func request(task model.Task, id string, trigger scheduler.Trigger) scheduler.Request {
	body := task.Description
	if body == "" {
		body = "Time for: " + task.Title
	}
	title := task.Title
	if task.Icon != "" {
		title = task.Icon + " " + title
	}
	return scheduler.Request{ID: id, Title: title, Body: body, Trigger: trigger}
}
