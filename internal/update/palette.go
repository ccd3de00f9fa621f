package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mtuyar/habitd/internal/commands"
	"github.com/mtuyar/habitd/internal/model"
	"github.com/mtuyar/habitd/internal/tracker"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.commandInput.CursorEnd()
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
	return m, nil
}

func (m Model) openPalette() (Model, tea.Cmd) {
	m.Palette = CommandPaletteState{Active: true}
	m.commandInput.SetValue("")
	m.Status = StatusBar{Text: "command palette active"}
	return m, m.commandInput.Focus()
}

func (m Model) closePalette() Model {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.Tracker == nil {
		m.Status = StatusBar{Text: "no task store attached", IsError: true}
		return m, nil
	}

	handlers := paletteHandlers(m.ctx, m.Tracker)
	return m.startBusy(func() tea.Msg {
		res, err := commands.Execute(cmd, handlers)
		return TaskChangedMsg{Message: res.Message, Err: err}
	})
}

func paletteHandlers(ctx context.Context, tr *tracker.Tracker) commands.Handlers {
	edit := func(target string, change func(*model.TaskInput)) (model.Task, error) {
		task, err := tr.Resolve(target)
		if err != nil {
			return model.Task{}, err
		}
		in := task.Input()
		change(&in)
		return tr.Edit(ctx, task.ID, in)
	}

	return commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			task, err := tr.Add(ctx, model.TaskInput{Title: a.Title, Frequency: a.Frequency})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s task: %s", task.Frequency, task.Title)}, nil
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			task, err := edit(a.Target, func(in *model.TaskInput) { in.Title = a.Title })
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("renamed to: %s", task.Title)}, nil
		},
		Freq: func(a commands.FreqArgs) (commands.Result, error) {
			task, err := edit(a.Target, func(in *model.TaskInput) { in.Frequency = a.Frequency })
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("%s is now %s", task.Title, task.Frequency)}, nil
		},
		Remind: func(a commands.RemindArgs) (commands.Result, error) {
			task, err := tr.Resolve(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			task, err = tr.SetReminder(ctx, task.ID, a.Time, !a.Once)
			if err != nil {
				return commands.Result{}, err
			}
			kind := "daily"
			if a.Once {
				kind = "once"
			}
			return commands.Result{Message: fmt.Sprintf("reminder for %s at %s (%s)", task.Title, a.Time, kind)}, nil
		},
		Unremind: func(a commands.TargetArgs) (commands.Result, error) {
			task, err := tr.Resolve(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if _, err := tr.CancelReminder(ctx, task.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("reminder removed: %s", task.Title)}, nil
		},
		Delete: func(a commands.TargetArgs) (commands.Result, error) {
			task, err := tr.Resolve(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := tr.Delete(ctx, task.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted: %s", task.Title)}, nil
		},
		Done: func(a commands.TargetArgs) (commands.Result, error) {
			// A task completed in an earlier period is pending again.
			if _, err := tr.Refresh(ctx); err != nil {
				return commands.Result{}, err
			}
			task, err := tr.Resolve(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if task.IsCompleted {
				return commands.Result{Message: fmt.Sprintf("already done: %s", task.Title)}, nil
			}
			if _, err := tr.Toggle(ctx, task.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("done: %s", task.Title)}, nil
		},
	}
}
