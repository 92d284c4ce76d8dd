package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once after wait has passed without another Trigger.
// Create it once and reuse it, Stop releases it.
type Debouncer struct {
	wait time.Duration
	fn   func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

func New(wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{
		wait: wait,
		fn:   fn,
	}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.wait, d.fire)
		return
	}
	d.timer.Reset(d.wait)
}

// Cancel drops a pending call and reports whether there was one. Later
// triggers still work.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.pending
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	return pending
}

// Stop drops any pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()

	d.fn()
}
