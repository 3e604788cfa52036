package source

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of change events into a single callback.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	window   time.Duration
	stopped  bool
	callback func()
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
	}
}

// Trigger restarts the debounce window. The callback runs once the window passes without
// another Trigger.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire runs the callback unless a later Trigger or Stop superseded gen.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	if d.callback != nil {
		d.callback()
	}
}

// Stop cancels a pending callback and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
