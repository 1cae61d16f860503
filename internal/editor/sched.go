package editor

import (
	"sync"
	"time"
)

// Runner executes a task. The controller uses two of them: one that runs
// persistence calls off the UI goroutine, and one that marshals completions
// back onto it. Tests inject inline runners so every path is synchronous.
type Runner func(task func())

// GoRunner runs the task on a new goroutine.
func GoRunner(task func()) {
	go task()
}

// InlineRunner runs the task immediately on the calling goroutine.
func InlineRunner(task func()) {
	task()
}

// Debouncer coalesces bursts of calls into one deferred invocation. It is a
// cancellable replacement for ad-hoc timer juggling: each Trigger restarts
// the delay, Flush fires immediately, Cancel drops the pending call.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a debouncer that invokes fn once delay has elapsed
// with no further triggers.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the delay.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Flush cancels the pending timer and invokes the function now if a call was
// pending. Returns true if the function ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()

	if pending {
		d.fn()
	}
	return pending
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
