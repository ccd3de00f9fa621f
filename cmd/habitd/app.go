package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mtuyar/habitd/internal/config"
	"github.com/mtuyar/habitd/internal/reminder"
	"github.com/mtuyar/habitd/internal/scheduler"
	"github.com/mtuyar/habitd/internal/storage"
	"github.com/mtuyar/habitd/internal/tracker"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg       config.Config
	store     storage.Store
	engine    *scheduler.Engine
	reminders *reminder.Scheduler
	tracker   *tracker.Tracker
	logger    *log.Logger
	logFile   *os.File
}

type appOptions struct {
	configPath string
	verbose    bool
}

// permissionFor picks the reminder permission once the config is known.
type permissionFor func(config.Config) reminder.Permission

func openApp(opts appOptions, permFor permissionFor, logger *log.Logger) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if logger == nil {
		logger, a.logFile, err = newLogger(cfg, opts.verbose)
		if err != nil {
			return nil, err
		}
	}
	a.logger = logger

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.engine = scheduler.NewEngine(cfg.Notifications.Buffer)
	a.reminders = reminder.NewScheduler(a.engine, permFor(cfg), reminder.WithLogger(logger))
	a.tracker = tracker.New(store, a.reminders, tracker.WithLogger(logger))
	return a, nil
}

func newLogger(cfg config.Config, verbose bool) (*log.Logger, *os.File, error) {
	switch {
	case verbose:
		return log.New(os.Stderr, "habitd: ", log.LstdFlags), nil, nil
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return log.New(f, "habitd: ", log.LstdFlags), f, nil
	default:
		return log.New(io.Discard, "", 0), nil, nil
	}
}

func (a *app) Close() {
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Printf("close store: %v", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
