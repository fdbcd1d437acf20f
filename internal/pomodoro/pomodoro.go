// Package pomodoro implements a work/break countdown.
package pomodoro

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Phase is the kind of interval being counted down.
type Phase int

const (
	Work Phase = iota
	ShortBreak
	LongBreak
)

func (p Phase) String() string {
	switch p {
	case ShortBreak:
		return "short break"
	case LongBreak:
		return "long break"
	default:
		return "work"
	}
}

// LongBreakEvery is how many completed work intervals earn a long break.
const LongBreakEvery = 4

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// Durations are the phase lengths.
type Durations struct {
	Work  time.Duration
	Short time.Duration
	Long  time.Duration
}

// DefaultDurations are 25/5/15 minutes.
func DefaultDurations() Durations {
	return Durations{Work: 25 * time.Minute, Short: 5 * time.Minute, Long: 15 * time.Minute}
}

func (d Durations) of(p Phase) time.Duration {
	switch p {
	case ShortBreak:
		return d.Short
	case LongBreak:
		return d.Long
	default:
		return d.Work
	}
}

// Transition describes a finished phase.
type Transition struct {
	Finished  Phase
	Next      Phase
	Completed int // completed work intervals after the transition
}

// Status is a snapshot of the timer.
type Status struct {
	Phase     Phase
	Remaining time.Duration
	Completed int
	Running   bool
}

// Display renders the remaining time as "MM:SS".
func (s Status) Display() string {
	secs := int(s.Remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Timer counts phases down one tick at a time.
type Timer struct {
	durations    Durations
	onTransition func(Transition)

	mu        sync.Mutex
	phase     Phase
	remaining time.Duration
	completed int
	running   bool
}

// New creates a stopped timer at the start of a work interval. completed
// seeds the count of finished work intervals.
func New(d Durations, completed int, onTransition func(Transition)) *Timer {
	if onTransition == nil {
		onTransition = func(Transition) {}
	}
	return &Timer{
		durations:    d,
		onTransition: onTransition,
		remaining:    d.Work,
		completed:    completed,
	}
}

// Start begins counting. A paused interval resumes where it stopped.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remaining <= 0 {
		t.remaining = t.durations.of(t.phase)
	}
	t.running = true
}

// Pause stops counting without losing the remaining time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Reset stops the timer, clears the completed count and rewinds to a full
// work interval.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.completed = 0
	t.phase = Work
	t.remaining = t.durations.Work
}

// Tick advances a running timer by one TickInterval.
func (t *Timer) Tick() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.remaining -= TickInterval
	if t.remaining > 0 {
		t.mu.Unlock()
		return
	}

	tr := Transition{Finished: t.phase}
	if t.phase == Work {
		t.completed++
		tr.Next = ShortBreak
		if t.completed%LongBreakEvery == 0 {
			tr.Next = LongBreak
		}
	} else {
		tr.Next = Work
	}
	tr.Completed = t.completed
	t.phase = tr.Next
	t.remaining = t.durations.of(tr.Next)
	t.mu.Unlock()

	t.onTransition(tr)
}

// Status returns a snapshot of the timer.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{Phase: t.phase, Remaining: t.remaining, Completed: t.completed, Running: t.running}
}

// Run starts the timer and ticks it every TickInterval until ctx is done,
// reporting each tick to onTick.
func (t *Timer) Run(ctx context.Context, clock clockwork.Clock, onTick func(Status)) error {
	t.Start()
	ticker := clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Pause()
			return ctx.Err()
		case <-ticker.Chan():
			t.Tick()
			if onTick != nil {
				onTick(t.Status())
			}
		}
	}
}
