// Package reminder provides a cancellable, restartable periodic timer.
package reminder

import (
	"sync"
	"time"
)

// Func is a timer callback. Returning false stops the timer.
type Func func() bool

// Timer calls a function every interval until stopped. Each Start begins a new
// generation; a fire belonging to an older generation is discarded, so after
// Stop returns the callback never runs again for the stopped generation.
type Timer struct {
	mu         sync.Mutex
	fireMu     sync.Mutex
	generation uint64
	running    bool
	t          *time.Timer
	interval   time.Duration
	fn         Func
}

// Start (re)arms the timer. Any previous schedule is stopped first.
// Like Stop, it must not be called from the timer's own callback.
func (r *Timer) Start(interval time.Duration, fn Func) {
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.running = true
	r.interval = interval
	r.fn = fn
	gen := r.generation
	r.t = time.AfterFunc(interval, func() { r.fire(gen) })
}

// Stop cancels the timer and waits for an in-flight callback to return.
// Stopping a stopped timer is a no-op. Stop must not be called from the
// timer's own callback; return false instead.
func (r *Timer) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.generation++
	r.running = false
	if r.t != nil {
		r.t.Stop()
		r.t = nil
	}
	r.mu.Unlock()

	// Wait out a callback that already passed its generation check.
	r.fireMu.Lock()
	defer r.fireMu.Unlock()
}

// Running reports whether the timer is armed.
func (r *Timer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Interval returns the interval of the current or last schedule.
func (r *Timer) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

func (r *Timer) fire(gen uint64) {
	r.fireMu.Lock()
	defer r.fireMu.Unlock()

	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return
	}
	fn := r.fn
	r.mu.Unlock()

	keep := fn()

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return
	}
	if !keep {
		r.generation++
		r.running = false
		r.t = nil
		return
	}
	r.t = time.AfterFunc(r.interval, func() { r.fire(gen) })
}
