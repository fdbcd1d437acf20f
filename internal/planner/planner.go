// Package planner assigns start times to open tasks for a day.
//
// Planning is greedy and non-reconciling: tasks are taken in priority order
// and laid end to end from the start of the day window (or from now, when
// planning today). Existing due times of other tasks are not consulted, and
// only the start of a placement is checked against the end of the window.
package planner

import (
	"sort"
	"time"

	"daydesk/internal/calendar"
	"daydesk/internal/models"
)

// Placement is one planned task.
type Placement struct {
	Task  *models.Task
	Start time.Time
}

// Event returns the calendar event for the placement.
func (p Placement) Event() models.Event {
	return models.Event{
		Title:     p.Task.Title,
		StartTime: p.Start,
		Duration:  p.Task.EffectiveDuration(),
		TaskID:    p.Task.ID,
		HasFile:   p.Task.File != nil,
	}
}

// Planner plans days on a grid.
type Planner struct {
	grid calendar.Grid
}

// New creates a Planner for grid.
func New(grid calendar.Grid) *Planner {
	return &Planner{grid: grid}
}

// Plan computes placements for the open tasks on day without modifying
// them. A zero day yields no placements.
func (p *Planner) Plan(tasks []*models.Task, day, now time.Time) []Placement {
	if day.IsZero() || p.grid.Step <= 0 {
		return nil
	}

	open := Order(tasks)
	start, end := p.grid.Window(day)

	cursor := start
	if calendar.SameDay(now, day) {
		if n := now.In(day.Location()).Truncate(time.Minute); n.After(start) {
			cursor = n
		}
	}

	var placements []Placement
	for _, t := range open {
		if !cursor.Before(end) {
			break
		}
		cursor = p.align(cursor)
		if !cursor.Before(end) {
			break
		}
		placements = append(placements, Placement{Task: t, Start: cursor})
		cursor = cursor.Add(time.Duration(t.EffectiveDuration()) * time.Minute)
	}
	return placements
}

// AutoPlan plans day and records each placement as the task's due time.
func (p *Planner) AutoPlan(tasks []*models.Task, day, now time.Time) []Placement {
	placements := p.Plan(tasks, day, now)
	for _, pl := range placements {
		due := pl.Start
		pl.Task.Due = &due
	}
	return placements
}

// align moves t forward to the next step boundary, counted in minutes past
// the hour.
func (p *Planner) align(t time.Time) time.Time {
	if rem := t.Minute() % p.grid.Step; rem != 0 {
		return t.Add(time.Duration(p.grid.Step-rem) * time.Minute)
	}
	return t
}

// Order returns the open tasks sorted by importance descending, then by
// creation time ascending. Equal keys keep their store order.
func Order(tasks []*models.Task) []*models.Task {
	open := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Done {
			open = append(open, t)
		}
	}
	sort.SliceStable(open, func(i, j int) bool { return ByPriority(open[i], open[j]) })
	return open
}

// ByPriority orders a before b when it is more important, or equally
// important and created earlier.
func ByPriority(a, b *models.Task) bool {
	if a.Importance != b.Importance {
		return a.Importance > b.Importance
	}
	return a.Created.Before(b.Created)
}
