package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtuyar/habitd/internal/model"
	"github.com/mtuyar/habitd/internal/tracker"
)

func newListCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks with their completion state and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(a *app) error {
				printList(cmd.OutOrStdout(), a.tracker.Tasks(), a.tracker.Summary(), time.Now())
				return nil
			})
		},
	}
}

func printList(w io.Writer, tasks []model.Task, s tracker.Summary, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks yet.")
		return
	}
	for i, t := range tasks {
		mark := "[ ]"
		if t.IsCompleted {
			mark = "[x]"
		}
		title := t.Title
		if t.Icon != "" {
			title = t.Icon + " " + title
		}
		line := fmt.Sprintf("%3d %s %-32s %-9s %s", i+1, mark, title, t.Frequency, shortID(t.ID))
		if streak := model.Streak(t, now); streak > 0 {
			line += fmt.Sprintf("  streak:%d", streak)
		}
		if t.HasReminder() {
			line += "  @" + t.Reminder.TimeOfDay().String()
			if t.Reminder.OneShot {
				line += " once"
			}
		}
		if t.Category != "" {
			line += "  #" + t.Category
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d/%d done, %d pending\n", s.Completed, s.Total, s.Pending)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type taskFlags struct {
	frequency   string
	description string
	category    string
	icon        string
}

func (f *taskFlags) register(cmd *cobra.Command, defaultFrequency string) {
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", defaultFrequency, "daily, weekly, monthly or once")
	cmd.Flags().StringVar(&f.description, "description", "", "longer description, used as the reminder body")
	cmd.Flags().StringVar(&f.category, "category", "", "category label")
	cmd.Flags().StringVar(&f.icon, "icon", "", "icon shown before the title")
}

func newAddCmd(opts *appOptions) *cobra.Command {
	flags := &taskFlags{}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := model.ParseFrequency(flags.frequency)
			if err != nil {
				return err
			}
			in := model.TaskInput{
				Title:       strings.Join(args, " "),
				Description: flags.description,
				Category:    flags.category,
				Icon:        flags.icon,
				Frequency:   freq,
			}
			return withApp(cmd, *opts, func(a *app) error {
				task, err := a.tracker.Add(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s task %q (%s)\n", task.Frequency, task.Title, shortID(task.ID))
				return nil
			})
		},
	}
	flags.register(cmd, string(model.FrequencyDaily))
	return cmd
}

func newToggleCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id-or-index>",
		Short: "Mark a task done for the current period, or undo today's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(a *app) error {
				task, err := a.tracker.Resolve(args[0])
				if err != nil {
					return err
				}
				task, err = a.tracker.Toggle(cmd.Context(), task.ID)
				if err != nil {
					return err
				}
				state := "pending"
				if task.IsCompleted {
					state = "done"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", task.Title, state)
				return nil
			})
		},
	}
}

func newEditCmd(opts *appOptions) *cobra.Command {
	flags := &taskFlags{}
	var title string
	cmd := &cobra.Command{
		Use:   "edit <id-or-index>",
		Short: "Change a task's title, frequency or details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(a *app) error {
				task, err := a.tracker.Resolve(args[0])
				if err != nil {
					return err
				}
				in := task.Input()
				changed := cmd.Flags().Changed
				if changed("title") {
					in.Title = title
				}
				if changed("frequency") {
					if in.Frequency, err = model.ParseFrequency(flags.frequency); err != nil {
						return err
					}
				}
				if changed("description") {
					in.Description = flags.description
				}
				if changed("category") {
					in.Category = flags.category
				}
				if changed("icon") {
					in.Icon = flags.icon
				}
				task, err = a.tracker.Edit(cmd.Context(), task.ID, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %q (%s)\n", task.Title, task.Frequency)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	flags.register(cmd, "")
	return cmd
}

func newDeleteCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id-or-index>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its reminder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(a *app) error {
				task, err := a.tracker.Resolve(args[0])
				if err != nil {
					return err
				}
				if err := a.tracker.Delete(cmd.Context(), task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", task.Title)
				return nil
			})
		},
	}
}
