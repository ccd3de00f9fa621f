package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mtuyar/habitd/internal/model"
	"github.com/mtuyar/habitd/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshTickCmd()}
	if load := m.loadCmd(); load != nil {
		cmds = append(cmds, load)
	}
	if m.Scheduler != nil {
		cmds = append(cmds, waitForReminderCmd(m.Scheduler.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.pending > 0 {
			var cmd tea.Cmd
			m.busySpinner, cmd = m.busySpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case TasksLoadedMsg:
		m = m.finishBusy()
		m.syncTasks()
		if typed.Err != nil {
			return m.fail(typed.Err), nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("loaded %d task(s)", len(m.Tasks))}
		return m, nil
	case TaskChangedMsg:
		m = m.finishBusy()
		m.syncTasks()
		if typed.Err != nil {
			return m.fail(typed.Err), nil
		}
		m.Status = StatusBar{Text: typed.Message}
		m.notify("Task", typed.Message, "info")
		return m, nil
	case RefreshTickMsg:
		return m, tea.Batch(m.refreshCmd(), refreshTickCmd())
	case RefreshedMsg:
		m.syncTasks()
		if typed.Err != nil {
			return m.fail(typed.Err), nil
		}
		if typed.Changed {
			m.Status = StatusBar{Text: "new period started"}
		}
		return m, nil
	case ReminderDueMsg:
		ev := typed.Event
		m.Status = StatusBar{Text: fmt.Sprintf("reminder: %s", ev.Title)}
		m.notify(ev.Title, ev.Body, "reminder")
		cmds := []tea.Cmd{}
		if m.Scheduler != nil {
			cmds = append(cmds, waitForReminderCmd(m.Scheduler.C()))
		}
		if m.DesktopEnabled {
			cmds = append(cmds, m.deliverCmd(ev))
		}
		if fired := m.reminderFiredCmd(ev); fired != nil {
			cmds = append(cmds, fired)
		}
		return m, tea.Batch(cmds...)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			return m.fail(typed.Err), nil
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if m.HelpVisible && (keyStr == "pgup" || keyStr == "pgdown") {
		var cmd tea.Cmd
		m.helpViewport, cmd = m.helpViewport.Update(msg)
		return m, cmd
	}

	switch keyStr {
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Palette:
		return m.openPalette()
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.helpViewport.SetContent(views.RenderMarkdown(helpMarkdown))
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
		return m, nil
	case m.Keys.Up, "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case m.Keys.Down, "down":
		if m.Cursor < len(m.Tasks)-1 {
			m.Cursor++
		}
		return m, nil
	case m.Keys.Toggle, "enter":
		task, ok := m.selectedTask()
		if !ok || m.Tracker == nil {
			return m, nil
		}
		return m.startBusy(m.toggleCmd(task.ID))
	case m.Keys.Delete:
		task, ok := m.selectedTask()
		if !ok || m.Tracker == nil {
			return m, nil
		}
		return m.startBusy(m.deleteCmd(task.ID, task.Title))
	}
	return m, nil
}

// startBusy runs cmd and keeps the spinner going until its result arrives.
func (m Model) startBusy(cmd tea.Cmd) (Model, tea.Cmd) {
	m.pending++
	if m.pending == 1 {
		return m, tea.Batch(cmd, m.busySpinner.Tick)
	}
	return m, cmd
}

func (m Model) finishBusy() Model {
	if m.pending > 0 {
		m.pending--
	}
	return m
}

func (m Model) fail(err error) Model {
	m.LastError = err
	text := userMessage(err)
	m.Status = StatusBar{Text: text, IsError: true}
	m.notify("Error", text, "error")
	m.logger.Printf("update: %v", err)
	return m
}

func (m Model) View() string {
	now := m.now()
	rows := make([]views.TaskRowData, 0, len(m.Tasks))
	summary := views.SummaryData{Total: len(m.Tasks)}
	for _, t := range m.Tasks {
		row := views.TaskRowData{
			ID:        t.ID,
			Title:     t.Title,
			Icon:      t.Icon,
			Category:  t.Category,
			Color:     t.Color,
			Frequency: string(t.Frequency),
			Completed: t.IsCompleted,
			Streak:    model.Streak(t, now),
		}
		if t.HasReminder() {
			row.Reminder = t.Reminder.TimeOfDay().String()
			if t.Reminder.OneShot {
				row.Reminder += " once"
			}
		}
		if t.IsCompleted {
			summary.Completed++
		}
		rows = append(rows, row)
	}
	summary.Pending = summary.Total - summary.Completed

	right := strings.TrimSpace(strings.Join([]string{
		views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()),
		m.renderHelpIfVisible(),
	}, "\n"))

	notification := ""
	if n := len(m.Notifications); n > 0 {
		last := m.Notifications[n-1]
		notification = views.RenderNotification(last.Level, fmt.Sprintf("%s %s: %s", last.At.Format("15:04"), last.Title, last.Body))
	}
	busy := ""
	if m.pending > 0 {
		busy = m.busySpinner.View() + " saving"
	}

	return views.RenderApp(views.AppData{
		Today:        now,
		Summary:      summary,
		List:         views.RenderTaskList(views.TaskListData{Rows: rows, Cursor: m.Cursor}),
		Side:         right,
		Status:       m.Status.Text,
		StatusError:  m.Status.IsError,
		Busy:         busy,
		Notification: notification,
		KeyHints: []string{
			fmt.Sprintf("%s/%s move", m.Keys.Down, m.Keys.Up),
			"space toggle",
			fmt.Sprintf("%s delete", m.Keys.Delete),
			fmt.Sprintf("%s cmd", m.Keys.Palette),
			fmt.Sprintf("%s help", m.Keys.Help),
			fmt.Sprintf("%s quit", m.Keys.Quit),
		},
	})
}
