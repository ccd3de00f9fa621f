package main

import (
	"errors"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mtuyar/habitd/internal/config"
	"github.com/mtuyar/habitd/internal/notify"
	"github.com/mtuyar/habitd/internal/reminder"
	"github.com/mtuyar/habitd/internal/update"
)

func newRootCmd() *cobra.Command {
	opts := &appOptions{}
	root := &cobra.Command{
		Use:   "habitd",
		Short: "habitd - daily, weekly and monthly habit tracker",
		Long: `habitd tracks recurring and one-off tasks. Completion resets at the start
of every day, week (Monday) or month, and reminders fire as desktop
notifications. Run without a subcommand to open the interactive list.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, *opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newToggleCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newRemindCmd(opts),
		newUnremindCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// withApp opens the store with headless permission, loads the task list and
// runs fn. Reminders recorded here are registered for delivery the next time
// the TUI or watch starts.
func withApp(cmd *cobra.Command, opts appOptions, fn func(a *app) error) error {
	a, err := openApp(opts, headlessPermission, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.tracker.Load(cmd.Context()); err != nil {
		return err
	}
	return fn(a)
}

func runTUI(cmd *cobra.Command, opts appOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	var logger *log.Logger
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "habitd")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = log.Default()
	}

	a, err := openApp(opts, headlessPermission, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.engine.Start()

	modelOpts := []update.Option{update.WithContext(cmd.Context()), update.WithLogger(a.logger)}
	if desktopGranted(cmd, a) {
		modelOpts = append(modelOpts, update.WithNotifier(notify.ExecNotifier{}))
	}
	program := tea.NewProgram(update.NewModel(a.tracker, a.engine, modelOpts...), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// headlessPermission always grants. The TUI status bar is a delivery channel
// of its own, and one-off subcommands only record the reminder.
func headlessPermission(config.Config) reminder.Permission {
	return notify.StaticPermission(true)
}

func desktopPermission(cfg config.Config) reminder.Permission {
	return notify.NewPermission(cfg.Notifications.Desktop)
}

func desktopGranted(cmd *cobra.Command, a *app) bool {
	ok, err := desktopPermission(a.cfg).EnsurePermission(cmd.Context())
	if err != nil {
		a.logger.Printf("desktop permission: %v", err)
	}
	return ok
}

func describeError(err error) error {
	switch {
	case errors.Is(err, reminder.ErrPermissionDenied):
		return errors.New("notifications are not permitted; enable them in settings")
	case errors.Is(err, reminder.ErrScheduleFailed):
		return errors.New("could not schedule reminder; try again")
	default:
		return err
	}
}
