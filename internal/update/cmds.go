package update

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mtuyar/habitd/internal/notify"
	"github.com/mtuyar/habitd/internal/reminder"
	"github.com/mtuyar/habitd/internal/scheduler"
)

const refreshInterval = time.Minute

func (m Model) loadCmd() tea.Cmd {
	tr, ctx := m.Tracker, m.ctx
	if tr == nil {
		return nil
	}
	return func() tea.Msg {
		if err := tr.Load(ctx); err != nil {
			return TasksLoadedMsg{Err: err}
		}
		return TasksLoadedMsg{Err: tr.RestoreReminders(ctx)}
	}
}

func (m Model) toggleCmd(id string) tea.Cmd {
	tr, ctx := m.Tracker, m.ctx
	return func() tea.Msg {
		task, err := tr.Toggle(ctx, id)
		if err != nil {
			return TaskChangedMsg{Err: err}
		}
		if task.IsCompleted {
			return TaskChangedMsg{Message: fmt.Sprintf("done: %s", task.Title)}
		}
		return TaskChangedMsg{Message: fmt.Sprintf("reopened: %s", task.Title)}
	}
}

func (m Model) deleteCmd(id, title string) tea.Cmd {
	tr, ctx := m.Tracker, m.ctx
	return func() tea.Msg {
		if err := tr.Delete(ctx, id); err != nil {
			return TaskChangedMsg{Err: err}
		}
		return TaskChangedMsg{Message: fmt.Sprintf("deleted: %s", title)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	tr, ctx := m.Tracker, m.ctx
	if tr == nil {
		return nil
	}
	return func() tea.Msg {
		changed, err := tr.Refresh(ctx)
		return RefreshedMsg{Changed: changed, Err: err}
	}
}

// reminderFiredCmd disables a one-shot reminder whose registration just fired.
func (m Model) reminderFiredCmd(ev scheduler.Event) tea.Cmd {
	tr, ctx := m.Tracker, m.ctx
	if tr == nil || ev.Repeats {
		return nil
	}
	return func() tea.Msg {
		_, err := tr.ReminderFired(ctx, ev.ID)
		return RefreshedMsg{Err: err}
	}
}

func refreshTickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return RefreshTickMsg{At: t}
	})
}

func waitForReminderCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func (m Model) deliverCmd(ev scheduler.Event) tea.Cmd {
	n, ctx, logger := m.notifier, m.ctx, m.logger
	return func() tea.Msg {
		if err := n.Send(ctx, notify.FromEvent(ev)); err != nil {
			logger.Printf("update: desktop notification for %s: %v", ev.ID, err)
		}
		return nil
	}
}

// userMessage maps reminder failures to the wording shown in the status bar.
func userMessage(err error) string {
	switch {
	case errors.Is(err, reminder.ErrPermissionDenied):
		return "notifications are not permitted; enable them in settings"
	case errors.Is(err, reminder.ErrScheduleFailed):
		return "could not schedule reminder; try again"
	default:
		return err.Error()
	}
}
