package monitor

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RepeatingTimer calls fn once per interval on its own goroutine. At most one
// ticker is active per RepeatingTimer: Start while running restarts the
// period from now.
type RepeatingTimer struct {
	clock    clockwork.Clock
	interval time.Duration
	fn       func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewRepeatingTimer creates a stopped timer.
func NewRepeatingTimer(clock clockwork.Clock, interval time.Duration, fn func()) *RepeatingTimer {
	return &RepeatingTimer{clock: clock, interval: interval, fn: fn}
}

// Start begins ticking, replacing any active ticker.
func (t *RepeatingTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startLocked()
}

func (t *RepeatingTimer) startLocked() {
	t.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	ticker := t.clock.NewTicker(t.interval)
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				t.fn()
			}
		}
	}()
}

// Restart restarts the period if the timer is running and does nothing otherwise.
func (t *RepeatingTimer) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		t.startLocked()
	}
}

// Stop halts the timer and waits for its goroutine to exit. fn will not be
// called after Stop returns.
func (t *RepeatingTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Running reports whether a ticker is active.
func (t *RepeatingTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *RepeatingTimer) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
}
