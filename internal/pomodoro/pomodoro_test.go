package pomodoro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func tickN(t *Timer, n int) {
	for i := 0; i < n; i++ {
		t.Tick()
	}
}

func TestTimerPhases(t *testing.T) {
	d := Durations{Work: 3 * time.Second, Short: 2 * time.Second, Long: 4 * time.Second}
	var transitions []Transition
	timer := New(d, 0, func(tr Transition) { transitions = append(transitions, tr) })

	timer.Tick()
	if got := timer.Status().Remaining; got != 3*time.Second {
		t.Fatalf("Stopped timer must not count, got %s", got)
	}

	timer.Start()
	for i := 0; i < 4; i++ {
		tickN(timer, 3) // work
		if i < 3 {
			tickN(timer, 2) // short break
		}
	}

	if len(transitions) != 7 {
		t.Fatalf("Expected 7 transitions, got %d: %+v", len(transitions), transitions)
	}
	if transitions[0].Next != ShortBreak || transitions[0].Completed != 1 {
		t.Errorf("Unexpected first transition %+v", transitions[0])
	}
	if transitions[1].Finished != ShortBreak || transitions[1].Next != Work {
		t.Errorf("Unexpected second transition %+v", transitions[1])
	}
	last := transitions[6]
	if last.Next != LongBreak || last.Completed != 4 {
		t.Errorf("Expected long break after 4th pomodoro, got %+v", last)
	}
	if s := timer.Status(); s.Phase != LongBreak || s.Remaining != 4*time.Second {
		t.Errorf("Unexpected status %+v", s)
	}
}

func TestTimerPauseResumeReset(t *testing.T) {
	timer := New(Durations{Work: 10 * time.Second, Short: time.Second, Long: time.Second}, 5, nil)
	timer.Start()
	tickN(timer, 4)
	timer.Pause()
	tickN(timer, 4)

	s := timer.Status()
	if s.Remaining != 6*time.Second || s.Running {
		t.Fatalf("Expected paused at 6s, got %+v", s)
	}
	if s.Display() != "00:06" {
		t.Errorf("Expected display 00:06, got %s", s.Display())
	}

	timer.Start()
	timer.Tick()
	if got := timer.Status().Remaining; got != 5*time.Second {
		t.Errorf("Expected resume from 6s, got %s", got)
	}

	timer.Reset()
	s = timer.Status()
	if s.Completed != 0 || s.Remaining != 10*time.Second || s.Running || s.Phase != Work {
		t.Errorf("Unexpected status after reset %+v", s)
	}
}

func TestTimerRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := New(DefaultDurations(), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan Status, 10)

	done := make(chan error, 1)
	go func() { done <- timer.Run(ctx, clock, func(s Status) { ticks <- s }) }()

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("Ticker was not registered: %v", err)
	}
	clock.Advance(TickInterval)

	select {
	case s := <-ticks:
		if s.Display() != "24:59" {
			t.Errorf("Expected 24:59, got %s", s.Display())
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a tick")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if timer.Status().Running {
		t.Error("Expected timer paused after Run returns")
	}
}
