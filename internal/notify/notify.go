// Package notify delivers fired reminders to the desktop.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mtuyar/habitd/internal/scheduler"
)

type Notification struct {
	Title string
	Body  string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, Notification) error { return nil }

// ExecNotifier shells out to notify-send on Linux and osascript on macOS.
// Other platforms are a silent no-op.
type ExecNotifier struct{}

func (ExecNotifier) Send(ctx context.Context, n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.CommandContext(ctx, "notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

func command() string {
	switch runtime.GOOS {
	case "linux":
		return "notify-send"
	case "darwin":
		return "osascript"
	default:
		return ""
	}
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeAppleScript(s string) string {
	return appleScriptEscaper.Replace(s)
}

// Permission grants reminders when desktop notifications are enabled and the
// platform's notification command is installed.
type Permission struct {
	Enabled  bool
	lookPath func(string) (string, error)
}

func NewPermission(enabled bool) Permission {
	return Permission{Enabled: enabled, lookPath: exec.LookPath}
}

func (p Permission) EnsurePermission(context.Context) (bool, error) {
	if !p.Enabled {
		return false, nil
	}
	name := command()
	if name == "" {
		return false, nil
	}
	lookPath := p.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(name); err != nil {
		return false, nil
	}
	return true, nil
}

// StaticPermission always answers with its own value. It backs the headless
// subcommands that record reminders without a live desktop session.
type StaticPermission bool

func (p StaticPermission) EnsurePermission(context.Context) (bool, error) {
	return bool(p), nil
}

// Dispatch forwards scheduler events to n until ctx is done or events closes.
// Delivery errors are logged and do not stop the loop.
func Dispatch(ctx context.Context, events <-chan scheduler.Event, n Notifier, logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := n.Send(ctx, FromEvent(ev)); err != nil {
				logger.Printf("notify: deliver %s: %v", ev.ID, err)
			}
		}
	}
}

func FromEvent(ev scheduler.Event) Notification {
	return Notification{Title: ev.Title, Body: ev.Body}
}
