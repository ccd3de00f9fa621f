package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtuyar/habitd/internal/model"
)

func newRemindCmd(opts *appOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "remind <id-or-index> HH:MM",
		Short: "Set a daily reminder, or a one-shot one with --once",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tod, err := model.ParseTimeOfDay(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, *opts, func(a *app) error {
				task, err := a.tracker.Resolve(args[0])
				if err != nil {
					return err
				}
				task, err = a.tracker.SetReminder(cmd.Context(), task.ID, tod, !once)
				if err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reminder for %q at %s, next %s\n",
					task.Title, tod, task.Reminder.Time.Format("Mon 2006-01-02 15:04"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "fire only once at the next occurrence")
	return cmd
}

func newUnremindCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unremind <id-or-index>",
		Short: "Remove a task's reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *opts, func(a *app) error {
				task, err := a.tracker.Resolve(args[0])
				if err != nil {
					return err
				}
				if _, err := a.tracker.CancelReminder(cmd.Context(), task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reminder removed from %q\n", task.Title)
				return nil
			})
		},
	}
}
