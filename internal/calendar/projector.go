package calendar

import (
	"time"

	"daydesk/internal/models"
)

// Projector places tasks onto a grid for a single day.
type Projector struct {
	grid Grid
}

// NewProjector creates a Projector over grid.
func NewProjector(grid Grid) *Projector {
	return &Projector{grid: grid}
}

// Project maps slot index to the events of the tasks due on day. Tasks
// without a due time, due on another date, or outside the grid are left
// out. Events sharing a slot keep the order of tasks.
func (p *Projector) Project(tasks []*models.Task, day time.Time) map[int][]models.Event {
	placed := make(map[int][]models.Event)
	for _, t := range tasks {
		ev, ok := t.Event()
		if !ok {
			continue
		}
		start := ev.StartTime.In(day.Location())
		if !SameDay(start, day) {
			continue
		}
		idx := p.grid.IndexOf(start)
		if !p.grid.Contains(idx) {
			continue
		}
		ev.StartTime = start
		placed[idx] = append(placed[idx], ev)
	}
	return placed
}

// DayView is a rendered day: every slot with the events placed in it.
type DayView struct {
	Day     time.Time
	Slots   []Slot
	Events  map[int][]models.Event
	NowSlot int // -1 when no slot is highlighted
}

// View projects tasks onto day and marks the slot containing now.
func (p *Projector) View(tasks []*models.Task, day, now time.Time) DayView {
	v := DayView{
		Day:     day,
		Slots:   p.grid.Slots(),
		Events:  p.Project(tasks, day),
		NowSlot: -1,
	}
	if idx, ok := p.NowSlot(day, now); ok {
		v.NowSlot = idx
	}
	return v
}

// NowSlot returns the slot holding now when day is today. Hours outside
// the grid's hour range never highlight.
func (p *Projector) NowSlot(day, now time.Time) (int, bool) {
	now = now.In(day.Location())
	if !SameDay(now, day) {
		return 0, false
	}
	if now.Hour() < p.grid.Start/60 || now.Hour() > p.grid.End/60 {
		return 0, false
	}
	idx := p.grid.IndexOf(now)
	if !p.grid.Contains(idx) {
		return 0, false
	}
	return idx, true
}
