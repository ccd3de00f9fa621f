package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtuyar/habitd/internal/notify"
	"github.com/mtuyar/habitd/internal/reminder"
	"github.com/mtuyar/habitd/internal/scheduler"
)

func newWatchCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Deliver reminders as desktop notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*opts, desktopPermission, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if msg := deliveryWarning(cmd.Context(), desktopPermission(a.cfg)); msg != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			return runWatch(cmd, a, notify.ExecNotifier{}, time.Minute)
		},
	}
}

// deliveryWarning explains why reminders will not reach the desktop, or
// returns "" when delivery is possible.
func deliveryWarning(ctx context.Context, perm reminder.Permission) string {
	granted, err := perm.EnsurePermission(ctx)
	switch {
	case err != nil:
		return fmt.Sprintf("desktop notifications unavailable: %v; reminders will not be delivered", err)
	case !granted:
		return "desktop notifications unavailable (notifications.desktop is off or notify-send/osascript is missing); reminders will not be delivered"
	default:
		return ""
	}
}

// runWatch keeps the engine in step with the store until ctx is done. Fired
// one-shot reminders are disabled before they are handed to n, and each tick
// reloads the store so changes made by other habitd commands are picked up.
func runWatch(cmd *cobra.Command, a *app, n notify.Notifier, every time.Duration) error {
	ctx := cmd.Context()
	if err := a.tracker.Load(ctx); err != nil {
		return err
	}
	a.engine.Start()
	if err := a.tracker.RestoreReminders(ctx); err != nil {
		a.logger.Printf("watch: restore reminders: %v", err)
	}

	deliveries := make(chan scheduler.Event, a.cfg.Notifications.Buffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		notify.Dispatch(ctx, deliveries, n, a.logger)
	}()

	events := a.engine.C()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.engine.Stop()
			<-done
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !ev.Repeats {
				if _, err := a.tracker.ReminderFired(ctx, ev.ID); err != nil {
					a.logger.Printf("watch: disable fired reminder %s: %v", ev.ID, err)
				}
			}
			select {
			case deliveries <- ev:
			case <-ctx.Done():
			}
		case <-ticker.C:
			if _, err := a.tracker.Refresh(ctx); err != nil {
				a.logger.Printf("watch: refresh: %v", err)
			}
		}
	}
}
