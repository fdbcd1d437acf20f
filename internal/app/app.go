// Package app owns the daydesk state: the task list, settings and
// counters. Every operation goes through a Controller, which persists
// changes through a debounced writer.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"daydesk/internal/calendar"
	"daydesk/internal/logger"
	"daydesk/internal/models"
	"daydesk/internal/notes"
	"daydesk/internal/notify"
	"daydesk/internal/planner"
	"daydesk/internal/store"
)

// Persistence loads and saves the application documents.
type Persistence interface {
	LoadTasks() ([]*models.Task, error)
	SaveTasks([]*models.Task) error
	LoadSettings() (store.Settings, error)
	SaveSettings(store.Settings) error
	LoadCounters() (store.Counters, error)
	SaveCounters(store.Counters) error
}

// Blobs stores attachments.
type Blobs interface {
	Put(ctx context.Context, id, name, typ string, r io.Reader) error
	Get(ctx context.Context, id string) (*store.Blob, error)
	Delete(ctx context.Context, id string) error
}

// Notices shows short, non-blocking messages to the user.
type Notices interface {
	Notice(msg string)
}

// NoticeFunc adapts a function to Notices.
type NoticeFunc func(msg string)

// Notice calls f(msg).
func (f NoticeFunc) Notice(msg string) { f(msg) }

// Deps are the collaborators of a Controller.
type Deps struct {
	Logger      *logger.Logger
	Clock       clockwork.Clock
	Location    *time.Location
	Persistence Persistence
	Blobs       Blobs
	Notifier    notify.Sink
	Notices     Notices
	Grid        calendar.Grid
	Summarizer  *notes.Summarizer
	SaveQuiet   time.Duration
}

// State is everything the controller persists.
type State struct {
	Tasks    []*models.Task
	Settings store.Settings
	Counters store.Counters
}

// Controller serializes access to the state.
type Controller struct {
	logger     *logger.Logger
	clock      clockwork.Clock
	loc        *time.Location
	persist    Persistence
	blobs      Blobs
	notifier   notify.Sink
	notices    Notices
	grid       calendar.Grid
	planner    *planner.Planner
	projector  *calendar.Projector
	summarizer *notes.Summarizer
	saver      *store.Debouncer

	mu    sync.Mutex
	state State
}

// New loads the persisted state and returns a Controller.
func New(d Deps) (*Controller, error) {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Grid.Step == 0 {
		d.Grid = calendar.DefaultGrid()
	}
	if d.Summarizer == nil {
		d.Summarizer = notes.NewSummarizer()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLog(d.Logger)
	}
	if d.Notices == nil {
		d.Notices = NoticeFunc(func(string) {})
	}

	tasks, err := d.Persistence.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	settings, err := d.Persistence.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	counters, err := d.Persistence.LoadCounters()
	if err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}

	c := &Controller{
		logger:     d.Logger,
		clock:      d.Clock,
		loc:        d.Location,
		persist:    d.Persistence,
		blobs:      d.Blobs,
		notifier:   d.Notifier,
		notices:    d.Notices,
		grid:       d.Grid,
		planner:    planner.New(d.Grid),
		projector:  calendar.NewProjector(d.Grid),
		summarizer: d.Summarizer,
		state:      State{Tasks: tasks, Settings: settings, Counters: counters},
	}
	if c.state.Settings.CurrentDay == "" {
		c.state.Settings.CurrentDay = c.today()
	}
	c.saver = store.NewDebouncer(d.Clock, d.SaveQuiet, c.write)

	c.logger.Debugw("Loaded state", "tasks", len(tasks), "day", c.state.Settings.CurrentDay)
	return c, nil
}

// Close writes any pending changes.
func (c *Controller) Close() {
	c.saver.Flush()
}

// save schedules a write of the current state.
func (c *Controller) save() {
	c.saver.Trigger()
}

// write persists a snapshot of the state.
func (c *Controller) write() {
	c.mu.Lock()
	tasks := make([]*models.Task, len(c.state.Tasks))
	for i, t := range c.state.Tasks {
		tasks[i] = cloneTask(t)
	}
	settings := c.state.Settings
	if settings.Pomodoro != nil {
		pom := *settings.Pomodoro
		settings.Pomodoro = &pom
	}
	counters := c.state.Counters
	c.mu.Unlock()

	if err := c.persist.SaveTasks(tasks); err != nil {
		c.logger.Errorw("Failed to save tasks", "error", err)
	}
	if err := c.persist.SaveSettings(settings); err != nil {
		c.logger.Errorw("Failed to save settings", "error", err)
	}
	if err := c.persist.SaveCounters(counters); err != nil {
		c.logger.Errorw("Failed to save counters", "error", err)
	}
	c.logger.Debugw("State saved", "tasks", len(tasks))
}

func (c *Controller) now() time.Time {
	return c.clock.Now().In(c.loc)
}

func (c *Controller) today() string {
	return c.now().Format(time.DateOnly)
}

func (c *Controller) notice(msg string) {
	c.notices.Notice(msg)
}

func (c *Controller) find(id string) (int, *models.Task) {
	for i, t := range c.state.Tasks {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

func cloneTask(t *models.Task) *models.Task {
	cp := *t
	if t.Due != nil {
		due := *t.Due
		cp.Due = &due
	}
	if t.File != nil {
		f := *t.File
		cp.File = &f
	}
	return &cp
}
