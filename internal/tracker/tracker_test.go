package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtuyar/habitd/internal/model"
	"github.com/mtuyar/habitd/internal/reminder"
)

type memRepo struct {
	mu      sync.Mutex
	tasks   []model.Task
	saves   int
	saveErr error
	loadErr error
}

func (r *memRepo) Load(context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make([]model.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

func (r *memRepo) Save(_ context.Context, tasks []model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.tasks = make([]model.Task, len(tasks))
	copy(r.tasks, tasks)
	return nil
}

type fakeReminders struct {
	setErr    error
	cancelErr error
	cancelled []string
	restored  int
	restore   func([]model.Task) []model.Task
}

func (f *fakeReminders) Set(_ context.Context, task model.Task, tod model.TimeOfDay, repeating bool) (model.Task, error) {
	if f.setErr != nil {
		return task, f.setErr
	}
	return task.WithReminder(&model.Reminder{
		ID:      reminder.ID(task.ID),
		Enabled: true,
		Time:    time.Date(2024, 3, 7, tod.Hour, tod.Minute, 0, 0, time.UTC),
		OneShot: !repeating,
	}), nil
}

func (f *fakeReminders) Cancel(_ context.Context, task model.Task) (model.Task, error) {
	f.cancelled = append(f.cancelled, task.ID)
	return task.WithReminder(nil), f.cancelErr
}

func (f *fakeReminders) Restore(_ context.Context, tasks []model.Task) []model.Task {
	f.restored++
	if f.restore != nil {
		return f.restore(tasks)
	}
	return tasks
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTracker(repo *memRepo, rem *fakeReminders, c *clock) *Tracker {
	return New(repo, rem, WithClock(c.Now), WithIDGenerator(sequentialIDs()))
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestLoadRollsOverAndSavesOnlyWhenChanged(t *testing.T) {
	repo := &memRepo{tasks: []model.Task{{
		ID: "a", Title: "Stretch", Frequency: model.FrequencyDaily, IsCompleted: true,
		CompletedDates: []string{"2024-03-05"}, PeriodStart: "2024-03-05", CreatedAt: at(2024, 3, 1, 8),
	}}}
	c := &clock{now: at(2024, 3, 6, 9)}
	tr := newTracker(repo, &fakeReminders{}, c)

	require.NoError(t, tr.Load(context.Background()))
	assert.Equal(t, 1, repo.saves)
	got := tr.Tasks()[0]
	assert.False(t, got.IsCompleted)
	assert.Equal(t, "2024-03-06", got.PeriodStart)
	assert.Equal(t, []string{"2024-03-05"}, got.CompletedDates)

	require.NoError(t, tr.Load(context.Background()))
	assert.Equal(t, 1, repo.saves, "second load must not write")
}

func TestLoadPropagatesRepositoryError(t *testing.T) {
	tr := newTracker(&memRepo{loadErr: errors.New("disk gone")}, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	err := tr.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestRefreshAcrossMidnight(t *testing.T) {
	repo := &memRepo{}
	c := &clock{now: at(2024, 3, 5, 23)}
	tr := newTracker(repo, &fakeReminders{}, c)
	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	_, err = tr.Toggle(context.Background(), task.ID)
	require.NoError(t, err)

	changed, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	c.now = at(2024, 3, 6, 0)
	changed, err = tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	got, _ := tr.Task(task.ID)
	assert.False(t, got.IsCompleted)
	assert.Equal(t, []string{"2024-03-05"}, got.CompletedDates)
	assert.Equal(t, 1, tr.Summary().Pending)
}

func TestRefreshKeepsWritesFromAnotherProcess(t *testing.T) {
	repo := &memRepo{}
	c := &clock{now: at(2024, 3, 5, 20)}
	watchRem := &fakeReminders{}
	watcher := New(repo, watchRem, WithClock(c.Now), WithIDGenerator(func() string { return "w" }))
	cli := New(repo, &fakeReminders{}, WithClock(c.Now), WithIDGenerator(sequentialIDs()))

	require.NoError(t, watcher.Load(context.Background()))
	require.NoError(t, cli.Load(context.Background()))
	added, err := cli.Add(context.Background(), model.TaskInput{Title: "added-by-cli", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	_, err = cli.Toggle(context.Background(), added.ID)
	require.NoError(t, err)

	c.now = at(2024, 3, 6, 0)
	changed, err := watcher.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, repo.tasks, 1)
	assert.Equal(t, "added-by-cli", repo.tasks[0].Title)
	assert.False(t, repo.tasks[0].IsCompleted, "rollover still applies to the reloaded task")
	require.Len(t, watcher.Tasks(), 1)
	assert.Zero(t, watchRem.restored, "no reminder changed on disk")
}

func TestRefreshSyncsRemindersChangedOnDisk(t *testing.T) {
	repo := &memRepo{}
	c := &clock{now: at(2024, 3, 6, 9)}
	watchRem := &fakeReminders{}
	watcher := New(repo, watchRem, WithClock(c.Now))
	cli := New(repo, &fakeReminders{}, WithClock(c.Now), WithIDGenerator(sequentialIDs()))

	task, err := cli.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	require.NoError(t, watcher.Load(context.Background()))

	_, err = cli.SetReminder(context.Background(), task.ID, model.TimeOfDay{Hour: 7, Minute: 30}, true)
	require.NoError(t, err)
	_, err = watcher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, watchRem.restored, "reminder set elsewhere must be registered")
	got, err := watcher.Task(task.ID)
	require.NoError(t, err)
	assert.True(t, got.HasReminder())

	_, err = watcher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, watchRem.restored, "unchanged reminders are not registered again")

	require.NoError(t, cli.Delete(context.Background(), task.ID))
	_, err = watcher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, watchRem.cancelled)
	assert.Empty(t, watcher.Tasks())
}

func TestRefreshKeepsListWhenReloadFails(t *testing.T) {
	repo := &memRepo{}
	tr := newTracker(repo, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	_, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	repo.loadErr = errors.New("disk gone")
	changed, err := tr.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, changed)
	assert.Len(t, tr.Tasks(), 1)
}

func TestReminderFiredDisablesOneShot(t *testing.T) {
	repo := &memRepo{}
	tr := newTracker(repo, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	once, err := tr.Add(context.Background(), model.TaskInput{Title: "Call bank", Frequency: model.FrequencyOneTime})
	require.NoError(t, err)
	daily, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	_, err = tr.SetReminder(context.Background(), once.ID, model.TimeOfDay{Hour: 10}, false)
	require.NoError(t, err)
	_, err = tr.SetReminder(context.Background(), daily.ID, model.TimeOfDay{Hour: 10}, true)
	require.NoError(t, err)

	fired, err := tr.ReminderFired(context.Background(), reminder.ID(once.ID))
	require.NoError(t, err)
	assert.True(t, fired)
	got, _ := tr.Task(once.ID)
	require.NotNil(t, got.Reminder)
	assert.False(t, got.HasReminder())
	assert.False(t, repo.tasks[0].Reminder.Enabled, "disabled reminder must be persisted")

	fired, err = tr.ReminderFired(context.Background(), reminder.ID(daily.ID))
	require.NoError(t, err)
	assert.False(t, fired)
	got, _ = tr.Task(daily.ID)
	assert.True(t, got.HasReminder())

	fired, err = tr.ReminderFired(context.Background(), "task_unknown")
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestAddValidatesBeforeMutation(t *testing.T) {
	repo := &memRepo{}
	tr := newTracker(repo, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})

	_, err := tr.Add(context.Background(), model.TaskInput{Title: "  ", Frequency: model.FrequencyDaily})
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	_, err = tr.Add(context.Background(), model.TaskInput{Title: "Read", Frequency: "hourly"})
	assert.ErrorIs(t, err, model.ErrInvalidFrequency)
	assert.Empty(t, tr.Tasks())
	assert.Zero(t, repo.saves)
}

func TestAddAssignsIDAndPeriod(t *testing.T) {
	repo := &memRepo{}
	tr := newTracker(repo, &fakeReminders{}, &clock{now: at(2024, 3, 7, 9)})

	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Review budget", Frequency: model.FrequencyWeekly})
	require.NoError(t, err)
	assert.Equal(t, "id-1", task.ID)
	assert.Equal(t, "2024-03-04", task.PeriodStart)
	require.Len(t, repo.tasks, 1)
}

func TestToggleUnknownTask(t *testing.T) {
	tr := newTracker(&memRepo{}, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	_, err := tr.Toggle(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	repo := &memRepo{}
	tr := newTracker(repo, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	repo.saveErr = errors.New("read-only")
	got, err := tr.Toggle(context.Background(), task.ID)
	require.ErrorIs(t, err, ErrSave)
	assert.True(t, got.IsCompleted)
	current, _ := tr.Task(task.ID)
	assert.True(t, current.IsCompleted)
	assert.False(t, repo.tasks[0].IsCompleted, "repository keeps the last good write")
}

func TestEditChangesFrequency(t *testing.T) {
	repo := &memRepo{}
	c := &clock{now: at(2024, 3, 6, 9)}
	tr := newTracker(repo, &fakeReminders{}, c)
	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	edited, err := tr.Edit(context.Background(), task.ID, model.TaskInput{Title: "Long run", Frequency: model.FrequencyMonthly})
	require.NoError(t, err)
	assert.Equal(t, "Long run", edited.Title)
	assert.Equal(t, "2024-03-01", edited.PeriodStart)

	_, err = tr.Edit(context.Background(), task.ID, model.TaskInput{Title: "", Frequency: model.FrequencyMonthly})
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	current, _ := tr.Task(task.ID)
	assert.Equal(t, "Long run", current.Title)
}

func TestDeleteCancelsReminderEvenWhenSaveFails(t *testing.T) {
	repo := &memRepo{}
	rem := &fakeReminders{cancelErr: errors.New("host down")}
	var buf bytes.Buffer
	tr := New(repo, rem, WithClock((&clock{now: at(2024, 3, 6, 9)}).Now), WithIDGenerator(sequentialIDs()), WithLogger(log.New(&buf, "", 0)))
	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	repo.saveErr = errors.New("read-only")
	err = tr.Delete(context.Background(), task.ID)
	require.ErrorIs(t, err, ErrSave)
	assert.Equal(t, []string{task.ID}, rem.cancelled)
	assert.Empty(t, tr.Tasks())
	assert.Contains(t, buf.String(), "host down")

	assert.ErrorIs(t, tr.Delete(context.Background(), task.ID), ErrTaskNotFound)
}

func TestSetAndCancelReminder(t *testing.T) {
	repo := &memRepo{}
	tr := newTracker(repo, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	got, err := tr.SetReminder(context.Background(), task.ID, model.TimeOfDay{Hour: 7, Minute: 30}, true)
	require.NoError(t, err)
	require.NotNil(t, got.Reminder)
	assert.Equal(t, "task_id-1", got.Reminder.ID)
	assert.False(t, got.Reminder.OneShot)
	require.NotNil(t, repo.tasks[0].Reminder)

	got, err = tr.CancelReminder(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Reminder)
	assert.Nil(t, repo.tasks[0].Reminder)
}

func TestSetReminderFailureLeavesTaskUnchanged(t *testing.T) {
	repo := &memRepo{}
	rem := &fakeReminders{setErr: reminder.ErrPermissionDenied}
	tr := newTracker(repo, rem, &clock{now: at(2024, 3, 6, 9)})
	task, err := tr.Add(context.Background(), model.TaskInput{Title: "Stretch", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	saves := repo.saves

	_, err = tr.SetReminder(context.Background(), task.ID, model.TimeOfDay{Hour: 7}, false)
	assert.ErrorIs(t, err, reminder.ErrPermissionDenied)
	current, _ := tr.Task(task.ID)
	assert.Nil(t, current.Reminder)
	assert.Equal(t, saves, repo.saves)
}

func TestRestoreRemindersPersistsDisabled(t *testing.T) {
	repo := &memRepo{tasks: []model.Task{{
		ID: "a", Title: "Call", Frequency: model.FrequencyOneTime, CompletedDates: []string{},
		CreatedAt: at(2024, 3, 1, 8),
		Reminder:  &model.Reminder{ID: "task_a", Enabled: true, Time: at(2024, 3, 2, 8), OneShot: true},
	}}}
	rem := &fakeReminders{restore: func(tasks []model.Task) []model.Task {
		out := make([]model.Task, len(tasks))
		for i, task := range tasks {
			r := *task.Reminder
			r.Enabled = false
			out[i] = task.WithReminder(&r)
		}
		return out
	}}
	tr := newTracker(repo, rem, &clock{now: at(2024, 3, 6, 9)})
	require.NoError(t, tr.Load(context.Background()))
	require.NoError(t, tr.RestoreReminders(context.Background()))

	require.NotNil(t, repo.tasks[0].Reminder)
	assert.False(t, repo.tasks[0].Reminder.Enabled)
	assert.Equal(t, 1, repo.saves)
}

func TestResolve(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz789"}
	n := 0
	tr := New(&memRepo{}, &fakeReminders{}, WithClock((&clock{now: at(2024, 3, 6, 9)}).Now), WithIDGenerator(func() string {
		id := ids[n]
		n++
		return id
	}))
	for _, title := range []string{"One", "Two", "Three"} {
		_, err := tr.Add(context.Background(), model.TaskInput{Title: title, Frequency: model.FrequencyDaily})
		require.NoError(t, err)
	}

	cases := []struct {
		ref  string
		want string
		err  error
	}{
		{ref: "abd456", want: "Two"},
		{ref: "xy", want: "Three"},
		{ref: "1", want: "One"},
		{ref: "ab", err: ErrAmbiguousRef},
		{ref: "4", err: ErrTaskNotFound},
		{ref: "q", err: ErrTaskNotFound},
		{ref: "", err: ErrTaskNotFound},
	}
	for _, tc := range cases {
		got, err := tr.Resolve(tc.ref)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.ref)
			continue
		}
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.want, got.Title, tc.ref)
	}
}

func TestSummary(t *testing.T) {
	tr := newTracker(&memRepo{}, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	a, _ := tr.Add(context.Background(), model.TaskInput{Title: "A", Frequency: model.FrequencyDaily})
	_, _ = tr.Add(context.Background(), model.TaskInput{Title: "B", Frequency: model.FrequencyWeekly})
	_, _ = tr.Toggle(context.Background(), a.ID)

	assert.Equal(t, Summary{Total: 2, Completed: 1, Pending: 1}, tr.Summary())
}

func TestConcurrentToggles(t *testing.T) {
	tr := newTracker(&memRepo{}, &fakeReminders{}, &clock{now: at(2024, 3, 6, 9)})
	var ids []string
	for i := 0; i < 10; i++ {
		task, err := tr.Add(context.Background(), model.TaskInput{Title: fmt.Sprintf("T%d", i), Frequency: model.FrequencyDaily})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = tr.Toggle(context.Background(), id)
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 10, tr.Summary().Completed)
}
