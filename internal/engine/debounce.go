package engine

import (
	"sync"
	"time"
)

// Debouncer runs fn once after delay has passed without another Trigger.
// At most one timer is pending at a time.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	// gen identifies the current timer. A timer whose generation is stale
	// when it fires was superseded and does nothing.
	gen uint64
}

// NewDebouncer returns a Debouncer with no pending timer.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger cancels any pending run and arms a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.arm()
}

// arm replaces the pending timer. d.mu must be held.
func (d *Debouncer) arm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	g := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(g) })
}

func (d *Debouncer) fire(g uint64) {
	d.mu.Lock()
	if g != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// pending reports whether a run is armed.
func (d *Debouncer) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
