package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v2"

	"daydesk/internal/app"
	"daydesk/internal/calendar"
	"daydesk/internal/config"
	"daydesk/internal/logger"
	"daydesk/internal/notes"
	"daydesk/internal/notify"
	"daydesk/internal/store"
)

func main() {
	cliApp := &cli.App{
		Name:  "daydesk",
		Usage: "Tasks, a day planner, a Pomodoro timer and meeting notes in the terminal.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a config file (default ./daydesk.yaml)."},
			&cli.StringFlag{Name: "log-level", Usage: "Override log.level (debug, info, warn, error)."},
		},
		Commands: []*cli.Command{
			addCommand(),
			listCommand(),
			doneCommand(true),
			doneCommand(false),
			renameCommand(),
			deleteCommand(),
			attachmentCommand(),
			planCommand(),
			calendarCommand(),
			dayCommand(),
			exportCommand(),
			importCommand(),
			summarizeCommand(),
			themeCommand(),
			notificationsCommand(),
			pomodoroCommand(),
			publishCommand(),
			authCommand(),
			pullGoogleCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "daydesk: %v\n", err)
		os.Exit(1)
	}
}

// env is what a command needs to run.
type env struct {
	cfg     *config.Config
	logger  *logger.Logger
	loc     *time.Location
	clock   clockwork.Clock
	persist *store.Persistence
	ctrl    *app.Controller
	out     io.Writer
	errOut  io.Writer
}

// withEnv loads the configuration and state, runs fn and saves pending
// changes afterwards.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := setup(c)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(c, e)
	}
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	grid, err := calendar.NewGrid(cfg.Planner.DayStart, cfg.Planner.DayEnd, cfg.Planner.StepMinutes)
	if err != nil {
		return nil, fmt.Errorf("invalid planner window: %w", err)
	}

	kv, err := store.NewKV(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data dir: %w", err)
	}
	blobs, err := store.NewBlobStore(filepath.Join(cfg.DataDir, "files"), cfg.Blobs.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment store: %w", err)
	}
	persist := store.NewPersistence(kv)
	clock := clockwork.NewRealClock()
	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}

	ctrl, err := app.New(app.Deps{
		Logger:      log,
		Clock:       clock,
		Location:    loc,
		Persistence: persist,
		Blobs:       blobs,
		Notifier:    notify.NewDesktop(log),
		Notices:     app.NoticeFunc(func(msg string) { fmt.Fprintln(errOut, msg) }),
		Grid:        grid,
		Summarizer:  notes.NewSummarizer(cfg.Notes.Keywords...),
		SaveQuiet:   cfg.Store.Debounce,
	})
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		logger:  log,
		loc:     loc,
		clock:   clock,
		persist: persist,
		ctrl:    ctrl,
		out:     c.App.Writer,
		errOut:  errOut,
	}, nil
}

func (e *env) close() {
	e.ctrl.Close()
	_ = e.logger.Sync()
}

// interruptible returns a context cancelled on SIGINT or SIGTERM.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
