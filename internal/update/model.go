package update

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/mtuyar/habitd/internal/model"
	"github.com/mtuyar/habitd/internal/notify"
	"github.com/mtuyar/habitd/internal/scheduler"
	"github.com/mtuyar/habitd/internal/tracker"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Up      string
	Down    string
	Toggle  string
	Delete  string
	Palette string
	Help    string
	Quit    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	Tracker        *tracker.Tracker
	Scheduler      *scheduler.Engine
	Tasks          []model.Task
	Cursor         int
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error

	ctx      context.Context
	now      func() time.Time
	notifier notify.Notifier
	logger   *log.Logger
	pending  int

	commandInput textinput.Model
	busySpinner  spinner.Model
	helpModel    help.Model
	helpViewport viewport.Model
}

type Option func(*Model)

func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithNotifier forwards fired reminders to n in addition to the status bar.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Model) {
		if n != nil {
			m.notifier = n
			m.DesktopEnabled = true
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type TasksLoadedMsg struct {
	Err error
}

type TaskChangedMsg struct {
	Message string
	Err     error
}

type RefreshTickMsg struct {
	At time.Time
}

type RefreshedMsg struct {
	Changed bool
	Err     error
}

type ReminderDueMsg struct {
	Event scheduler.Event
}

func NewModel(tr *tracker.Tracker, engine *scheduler.Engine, opts ...Option) Model {
	m := Model{
		Tracker:   tr,
		Scheduler: engine,
		Tasks:     []model.Task{},
		ctx:       context.Background(),
		now:       time.Now,
		notifier:  notify.NoopNotifier{},
		logger:    log.New(io.Discard, "", 0),
		Keys: GlobalKeyMap{
			Up:      "k",
			Down:    "j",
			Toggle:  " ",
			Delete:  "d",
			Palette: "/",
			Help:    "?",
			Quit:    "q",
		},
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "add <title> [freq:weekly]"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.busySpinner = spinner.New()
	m.busySpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.helpViewport = viewport.New(52, 16)
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[m.Cursor], true
}

// syncTasks copies the tracker snapshot into the model and keeps the cursor
// in range.
func (m *Model) syncTasks() {
	if m.Tracker != nil {
		m.Tasks = m.Tracker.Tasks()
	}
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) notify(title, body, level string) {
	if body == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now(),
	})
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}
