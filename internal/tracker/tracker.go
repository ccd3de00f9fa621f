// Package tracker owns the in-memory task list and keeps it in step with
// the repository and the reminder scheduler.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtuyar/habitd/internal/model"
)

var (
	ErrSave         = errors.New("tracker: could not save tasks")
	ErrTaskNotFound = errors.New("tracker: task not found")
	ErrAmbiguousRef = errors.New("tracker: task reference is ambiguous")
)

type Repository interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// Reminders is implemented by *reminder.Scheduler.
type Reminders interface {
	Set(ctx context.Context, task model.Task, tod model.TimeOfDay, repeating bool) (model.Task, error)
	Cancel(ctx context.Context, task model.Task) (model.Task, error)
	Restore(ctx context.Context, tasks []model.Task) []model.Task
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) {
		if gen != nil {
			t.newID = gen
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

type Tracker struct {
	repo      Repository
	reminders Reminders
	now       func() time.Time
	newID     func() string
	logger    *log.Logger

	mu    sync.Mutex
	tasks []model.Task
}

type Summary struct {
	Total     int
	Completed int
	Pending   int
}

func New(repo Repository, reminders Reminders, opts ...Option) *Tracker {
	t := &Tracker{
		repo:      repo,
		reminders: reminders,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    log.New(io.Discard, "", 0),
		tasks:     []model.Task{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the in-memory list with the repository contents after a
// rollover pass. The list is written back only when a rollover happened.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _, err := t.reloadLocked(ctx)
	return err
}

// Refresh reloads the repository, so writes made by other processes since
// the last load are kept, and runs the rollover pass against the current
// clock. Reminders added, changed or removed on disk are re-registered or
// cancelled. It reports whether a new period started for any task.
func (t *Tracker) Refresh(ctx context.Context) (bool, error) {
	t.mu.Lock()
	prev, rolled, err := t.reloadLocked(ctx)
	if prev == nil {
		t.mu.Unlock()
		return false, err
	}
	stale, changed := reminderChanges(prev, t.tasks)
	t.mu.Unlock()

	for _, task := range stale {
		if _, cerr := t.reminders.Cancel(ctx, task); cerr != nil {
			t.logger.Printf("tracker: cancel reminder removed on disk %s: %v", task.ID, cerr)
		}
	}
	if changed {
		if rerr := t.RestoreReminders(ctx); rerr != nil && err == nil {
			err = rerr
		}
	}
	return rolled > 0, err
}

// reloadLocked swaps in the repository contents and returns the list it
// replaced. prev is nil when the repository could not be read, in which case
// the in-memory list is left alone.
func (t *Tracker) reloadLocked(ctx context.Context) (prev []model.Task, rolled int, err error) {
	loaded, err := t.repo.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("tracker: load: %w", err)
	}
	if loaded == nil {
		loaded = []model.Task{}
	}
	prev = t.tasks
	if prev == nil {
		prev = []model.Task{}
	}
	rolled = rolloverAll(loaded, t.now())
	t.tasks = loaded
	if rolled == 0 {
		return prev, 0, nil
	}
	t.logger.Printf("tracker: rolled over %d task(s)", rolled)
	return prev, rolled, t.saveLocked(ctx)
}

// RestoreReminders re-registers stored reminders with the scheduler and
// persists any that had to be disabled.
func (t *Tracker) RestoreReminders(ctx context.Context) error {
	snapshot := t.Tasks()
	restored := t.reminders.Restore(ctx, snapshot)

	t.mu.Lock()
	defer t.mu.Unlock()
	changed := false
	for _, r := range restored {
		i := t.indexLocked(r.ID)
		if i < 0 || sameReminder(t.tasks[i].Reminder, r.Reminder) {
			continue
		}
		t.tasks[i] = t.tasks[i].WithReminder(r.Reminder)
		changed = true
	}
	if !changed {
		return nil
	}
	return t.saveLocked(ctx)
}

func (t *Tracker) Tasks() []model.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Task, len(t.tasks))
	copy(out, t.tasks)
	return out
}

func (t *Tracker) Task(id string) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t.tasks[i], nil
}

// Resolve finds a task by full id, unique id prefix or 1-based position.
func (t *Tracker) Resolve(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("%w: empty reference", ErrTaskNotFound)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(ref); i >= 0 {
		return t.tasks[i], nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(t.tasks) {
			return t.tasks[n-1], nil
		}
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	}
	match := -1
	for i, task := range t.tasks {
		if !strings.HasPrefix(task.ID, ref) {
			continue
		}
		if match >= 0 {
			return model.Task{}, fmt.Errorf("%w: %s", ErrAmbiguousRef, ref)
		}
		match = i
	}
	if match < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	}
	return t.tasks[match], nil
}

func (t *Tracker) Add(ctx context.Context, in model.TaskInput) (model.Task, error) {
	task, err := model.NewTask(t.newID(), in, t.now())
	if err != nil {
		return model.Task{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks = append(t.tasks, task)
	return task, t.saveLocked(ctx)
}

func (t *Tracker) Toggle(ctx context.Context, id string) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.tasks[i] = t.tasks[i].Toggle(t.now())
	return t.tasks[i], t.saveLocked(ctx)
}

func (t *Tracker) Edit(ctx context.Context, id string, in model.TaskInput) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexLocked(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	edited, err := t.tasks[i].Edit(in, t.now())
	if err != nil {
		return t.tasks[i], err
	}
	t.tasks[i] = edited
	return edited, t.saveLocked(ctx)
}

// Delete removes the task and then cancels its reminder. Cancellation is
// attempted even when the save fails, and its failure is only logged.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	removed := t.tasks[i]
	t.tasks = append(t.tasks[:i:i], t.tasks[i+1:]...)
	saveErr := t.saveLocked(ctx)
	t.mu.Unlock()

	if _, err := t.reminders.Cancel(ctx, removed); err != nil {
		t.logger.Printf("tracker: cancel reminder for deleted task %s: %v", id, err)
	}
	return saveErr
}

func (t *Tracker) SetReminder(ctx context.Context, id string, tod model.TimeOfDay, repeating bool) (model.Task, error) {
	task, err := t.Task(id)
	if err != nil {
		return model.Task{}, err
	}
	updated, err := t.reminders.Set(ctx, task, tod, repeating)
	if err != nil {
		return task, err
	}
	return t.storeReminder(ctx, updated)
}

func (t *Tracker) CancelReminder(ctx context.Context, id string) (model.Task, error) {
	task, err := t.Task(id)
	if err != nil {
		return model.Task{}, err
	}
	updated, err := t.reminders.Cancel(ctx, task)
	if err != nil {
		return task, err
	}
	return t.storeReminder(ctx, updated)
}

// ReminderFired disables a one-shot reminder once its registration has
// fired, so an enabled reminder always has a live registration. Repeating
// reminders are left alone. It reports whether a task was updated.
func (t *Tracker) ReminderFired(ctx context.Context, reminderID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, task := range t.tasks {
		if !task.HasReminder() || task.Reminder.ID != reminderID {
			continue
		}
		if !task.Reminder.OneShot {
			return false, nil
		}
		rem := *task.Reminder
		rem.Enabled = false
		t.tasks[i] = task.WithReminder(&rem)
		return true, t.saveLocked(ctx)
	}
	return false, nil
}

func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{Total: len(t.tasks)}
	for _, task := range t.tasks {
		if task.IsCompleted {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// storeReminder copies only the reminder field back, so edits that landed
// while the scheduler was busy are kept.
func (t *Tracker) storeReminder(ctx context.Context, updated model.Task) (model.Task, error) {
	t.mu.Lock()
	i := t.indexLocked(updated.ID)
	if i < 0 {
		t.mu.Unlock()
		if updated.Reminder != nil {
			if _, err := t.reminders.Cancel(ctx, updated); err != nil {
				t.logger.Printf("tracker: cancel orphaned reminder %s: %v", updated.ID, err)
			}
		}
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, updated.ID)
	}
	defer t.mu.Unlock()
	t.tasks[i] = t.tasks[i].WithReminder(updated.Reminder)
	return t.tasks[i], t.saveLocked(ctx)
}

func (t *Tracker) saveLocked(ctx context.Context) error {
	snapshot := make([]model.Task, len(t.tasks))
	copy(snapshot, t.tasks)
	if err := t.repo.Save(ctx, snapshot); err != nil {
		t.logger.Printf("tracker: save: %v", err)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

func (t *Tracker) indexLocked(id string) int {
	for i, task := range t.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func rolloverAll(tasks []model.Task, now time.Time) int {
	changed := 0
	for i := range tasks {
		next, ok := tasks[i].Rollover(now)
		if ok {
			tasks[i] = next
			changed++
		}
	}
	return changed
}

// reminderChanges compares the reminders of two versions of the list. stale
// holds previous tasks whose enabled reminder is gone from next; changed
// reports whether next holds an enabled reminder that prev did not.
func reminderChanges(prev, next []model.Task) (stale []model.Task, changed bool) {
	before := make(map[string]model.Task, len(prev))
	for _, task := range prev {
		before[task.ID] = task
	}
	after := make(map[string]model.Task, len(next))
	for _, task := range next {
		after[task.ID] = task
		old, ok := before[task.ID]
		if task.HasReminder() && (!ok || !old.HasReminder() || !sameReminder(old.Reminder, task.Reminder)) {
			changed = true
		}
	}
	for _, old := range prev {
		if !old.HasReminder() {
			continue
		}
		if cur, ok := after[old.ID]; !ok || !cur.HasReminder() {
			stale = append(stale, old)
		}
	}
	return stale, changed
}

func sameReminder(a, b *model.Reminder) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Enabled == b.Enabled && a.OneShot == b.OneShot && a.Time.Equal(b.Time)
}
