package app

import (
	"context"
	"fmt"
	"time"

	"daydesk/internal/pomodoro"
	"daydesk/internal/store"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings returns a copy of the settings.
func (c *Controller) Settings() store.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state.Settings
	if s.Pomodoro != nil {
		pom := *s.Pomodoro
		s.Pomodoro = &pom
	}
	if s.Theme == "" {
		s.Theme = ThemeDark
	}
	return s
}

// SetTheme selects the dark or light theme.
func (c *Controller) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("unknown theme %q", theme)
	}
	c.mu.Lock()
	c.state.Settings.Theme = theme
	c.mu.Unlock()
	c.save()
	return nil
}

// SetNotifications turns planner and Pomodoro notifications on or off.
// Turning them on asks the sink for permission; a refusal leaves them off.
func (c *Controller) SetNotifications(ctx context.Context, on bool) error {
	if on {
		if err := c.notifier.RequestPermission(ctx); err != nil {
			c.logger.Warnw("Notification permission denied", "error", err)
			c.notice("Permission denied")
			c.setNotify(false)
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		c.setNotify(true)
		c.notice("Notifications enabled")
		return nil
	}
	c.setNotify(false)
	c.notice("Notifications disabled")
	return nil
}

func (c *Controller) setNotify(on bool) {
	c.mu.Lock()
	c.state.Settings.NotifyGranted = on
	c.mu.Unlock()
	c.save()
}

func (c *Controller) notify(title, body string) {
	c.mu.Lock()
	granted := c.state.Settings.NotifyGranted
	c.mu.Unlock()
	if granted {
		c.notifier.Notify(title, body)
	}
}

// PomodoroDurations returns the saved phase lengths, falling back to the
// defaults for unset values.
func (c *Controller) PomodoroDurations() pomodoro.Durations {
	d := pomodoro.DefaultDurations()
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.state.Settings.Pomodoro; p != nil {
		if p.Work > 0 {
			d.Work = time.Duration(p.Work) * time.Minute
		}
		if p.Short > 0 {
			d.Short = time.Duration(p.Short) * time.Minute
		}
		if p.Long > 0 {
			d.Long = time.Duration(p.Long) * time.Minute
		}
	}
	return d
}

// Pomodoro saves the phase lengths (in minutes, zero keeps the saved or
// default value) and returns a timer whose completed work intervals are
// counted in the persisted counters.
func (c *Controller) Pomodoro(work, short, long int) *pomodoro.Timer {
	d := c.PomodoroDurations()
	if work > 0 {
		d.Work = time.Duration(work) * time.Minute
	}
	if short > 0 {
		d.Short = time.Duration(short) * time.Minute
	}
	if long > 0 {
		d.Long = time.Duration(long) * time.Minute
	}

	c.mu.Lock()
	c.state.Settings.Pomodoro = &store.PomodoroSettings{
		Work:  int(d.Work / time.Minute),
		Short: int(d.Short / time.Minute),
		Long:  int(d.Long / time.Minute),
	}
	completed := c.state.Counters.Pomodoros
	c.mu.Unlock()
	c.save()

	return pomodoro.New(d, completed, c.onPomodoroTransition)
}

func (c *Controller) onPomodoroTransition(tr pomodoro.Transition) {
	if tr.Finished == pomodoro.Work {
		c.mu.Lock()
		c.state.Counters.Pomodoros = tr.Completed
		c.mu.Unlock()
		c.save()
	}
	c.logger.Infow("Pomodoro phase finished", "finished", tr.Finished.String(), "next", tr.Next.String(), "completed", tr.Completed)

	body := "Time for a break"
	if tr.Next == pomodoro.Work {
		body = "Back to work"
	}
	c.notify("Pomodoro", body)
}

// PomodoroCount returns the number of completed work intervals.
func (c *Controller) PomodoroCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Counters.Pomodoros
}

// ResetPomodoroCount zeroes the completed work interval counter.
func (c *Controller) ResetPomodoroCount() {
	c.mu.Lock()
	c.state.Counters.Pomodoros = 0
	c.mu.Unlock()
	c.save()
}
