package resilience

import (
	"sync"
	"time"
)

// Linear is a bounded retry policy whose delay grows by Step with each retry
type Linear struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// Step is the delay before the first retry; retry n waits Step*(n+1)
	Step time.Duration
}

// Next returns the delay before retry number retry+1, or false when the
// policy is exhausted. retry is the number of retries already made.
func (l Linear) Next(retry int) (time.Duration, bool) {
	if retry < 0 || retry >= l.MaxRetries {
		return 0, false
	}
	return l.Step * time.Duration(retry+1), true
}

// Attempts returns the total number of attempts the policy allows
func (l Linear) Attempts() int {
	if l.MaxRetries < 0 {
		return 1
	}
	return l.MaxRetries + 1
}

// Task is a delayed action that can be cancelled until it starts running
type Task struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
	fired     bool
}

// Schedule runs fn after delay on its own goroutine
func Schedule(delay time.Duration, fn func()) *Task {
	t := &Task{}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()

		fn()
	})
	return t
}

// Cancel prevents fn from running. It reports false if fn already started.
// Safe to call on a nil Task and more than once.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired {
		return false
	}
	t.cancelled = true
	t.timer.Stop()
	return true
}

// Fired reports whether fn has started
func (t *Task) Fired() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
