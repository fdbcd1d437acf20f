package app

import (
	"fmt"
	"time"

	"daydesk/internal/calendar"
	"daydesk/internal/models"
	"daydesk/internal/planner"
)

// CurrentDay returns the selected day as YYYY-MM-DD.
func (c *Controller) CurrentDay() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Settings.CurrentDay
}

// SetDay selects a day.
func (c *Controller) SetDay(day string) error {
	d, err := calendar.ParseDay(day, c.loc)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}
	c.mu.Lock()
	c.state.Settings.CurrentDay = d.Format(time.DateOnly)
	c.mu.Unlock()
	c.save()
	return nil
}

// ShiftDay moves the selected day by delta days.
func (c *Controller) ShiftDay(delta int) (string, error) {
	c.mu.Lock()
	d, err := calendar.ParseDay(c.state.Settings.CurrentDay, c.loc)
	if err != nil {
		d = calendar.StartOfDay(c.now())
	}
	c.state.Settings.CurrentDay = d.AddDate(0, 0, delta).Format(time.DateOnly)
	day := c.state.Settings.CurrentDay
	c.mu.Unlock()
	c.save()
	return day, nil
}

func (c *Controller) selectedDay() (time.Time, bool) {
	d, err := calendar.ParseDay(c.state.Settings.CurrentDay, c.loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// DayView projects the tasks onto the selected day.
func (c *Controller) DayView() (calendar.DayView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	day, ok := c.selectedDay()
	if !ok {
		return calendar.DayView{}, fmt.Errorf("invalid current day %q", c.state.Settings.CurrentDay)
	}
	return c.projector.View(c.state.Tasks, day, c.now()), nil
}

// AutoPlan schedules the open tasks into the selected day in priority
// order and sets their due times. An invalid selected day plans nothing.
func (c *Controller) AutoPlan() []planner.Placement {
	c.mu.Lock()
	day, ok := c.selectedDay()
	if !ok {
		selected := c.state.Settings.CurrentDay
		c.mu.Unlock()
		c.logger.Warnw("Cannot plan, no valid day selected", "day", selected)
		return nil
	}
	placements := c.planner.AutoPlan(c.state.Tasks, day, c.now())
	granted := c.state.Settings.NotifyGranted

	out := make([]planner.Placement, len(placements))
	for i, p := range placements {
		out[i] = planner.Placement{Task: cloneTask(p.Task), Start: p.Start}
	}
	c.mu.Unlock()

	if len(out) > 0 {
		c.save()
	}
	for _, p := range out {
		c.logger.Debugw("Task planned", "id", p.Task.ID, "start", p.Start.Format("15:04"))
		if granted {
			c.notifier.Notify("Day plan", fmt.Sprintf("%s at %s", p.Task.Title, p.Start.Format("15:04")))
		}
	}
	c.logger.Infow("Day planned", "day", day.Format(time.DateOnly), "placed", len(out))
	c.notice("Day plan created")
	return out
}

// TasksWithDue returns copies of the tasks that have a due time.
func (c *Controller) TasksWithDue() []*models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*models.Task
	for _, t := range c.state.Tasks {
		if t.Due != nil {
			out = append(out, cloneTask(t))
		}
	}
	return out
}
