// Package calendar models the visible day: a fixed grid of time slots and
// the projection of tasks onto it.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultDayStart is 08:00 in minutes from midnight.
	DefaultDayStart = 8 * 60
	// DefaultDayEnd is 20:00 in minutes from midnight.
	DefaultDayEnd = 20 * 60
	// DefaultStep is the slot length in minutes.
	DefaultStep = 30
)

// Slot is one bucket of the day grid.
type Slot struct {
	Index int
	Label string // "HH:MM"
}

// Grid describes the day window. Start and End are minutes from midnight;
// End is the last label of the grid, not a schedulable start.
type Grid struct {
	Start int
	End   int
	Step  int
}

// DefaultGrid returns the 08:00–20:00 grid with 30-minute slots.
func DefaultGrid() Grid {
	return Grid{Start: DefaultDayStart, End: DefaultDayEnd, Step: DefaultStep}
}

// NewGrid builds a grid from "HH:MM" bounds.
func NewGrid(start, end string, step int) (Grid, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Grid{}, fmt.Errorf("invalid day start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Grid{}, fmt.Errorf("invalid day end: %w", err)
	}
	if step <= 0 {
		return Grid{}, fmt.Errorf("invalid step %d: must be positive", step)
	}
	if e <= s {
		return Grid{}, fmt.Errorf("day end %s must be after day start %s", end, start)
	}
	return Grid{Start: s, End: e, Step: step}, nil
}

// GenerateSlots enumerates the grid labels from Start to End inclusive.
func GenerateSlots(start, end, step int) []Slot {
	if step <= 0 || end < start {
		return nil
	}
	slots := make([]Slot, 0, (end-start)/step+1)
	for m := start; m <= end; m += step {
		slots = append(slots, Slot{Index: len(slots), Label: FormatClock(m)})
	}
	return slots
}

// Slots enumerates the grid's slots.
func (g Grid) Slots() []Slot {
	return GenerateSlots(g.Start, g.End, g.Step)
}

// Len is the number of slots in the grid.
func (g Grid) Len() int {
	if g.Step <= 0 || g.End < g.Start {
		return 0
	}
	return (g.End-g.Start)/g.Step + 1
}

// IndexOf returns the slot a wall-clock time falls into. The result may be
// out of range; callers filter with Contains.
func (g Grid) IndexOf(t time.Time) int {
	return floorDiv(t.Hour()*60+t.Minute()-g.Start, g.Step)
}

// Contains reports whether idx addresses a slot of the grid.
func (g Grid) Contains(idx int) bool {
	return idx >= 0 && idx < g.Len()
}

// Window returns the absolute start and end of the grid on day. Both are
// wall-clock times in day's location, so DST changes do not shift them.
func (g Grid) Window(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	return time.Date(y, m, d, g.Start/60, g.Start%60, 0, 0, loc), time.Date(y, m, d, g.End/60, g.End%60, 0, 0, loc)
}

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date, comparing
// a in b's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDay parses a "YYYY-MM-DD" date at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
}

// ParseClock converts "HH:MM" to minutes from midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q: bad minute", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
