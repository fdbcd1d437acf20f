package store

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQuiet is how long a Debouncer waits after the last change.
const DefaultQuiet = 120 * time.Millisecond

// Debouncer runs a write once no change has been signalled for the quiet
// interval. Changes made inside the interval restart it, so a burst ends
// in a single write of the final state. Pending changes are lost if the
// process exits before the write runs and Flush was not called.
type Debouncer struct {
	clock clockwork.Clock
	quiet time.Duration
	write func()

	// writeMu keeps writes from overlapping, so the last write to start
	// is the last to finish.
	writeMu sync.Mutex

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64
	pending bool
}

// NewDebouncer creates a Debouncer calling write after quiet.
func NewDebouncer(clock clockwork.Clock, quiet time.Duration, write func()) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{clock: clock, quiet: quiet, write: write}
}

// Trigger records a change and restarts the quiet interval.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// fire ignores timers superseded by a later Trigger.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.runWrite()
}

// Flush runs a pending write immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	pending := d.pending
	d.pending = false
	d.mu.Unlock()

	if pending {
		d.runWrite()
	}
}

func (d *Debouncer) runWrite() {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.write()
}

// Pending reports whether a write is waiting for the quiet interval.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
