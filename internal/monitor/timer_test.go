package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestRepeatingTimer_TicksUntilStopped(t *testing.T) {
	fc := clockwork.NewFakeClock()
	var calls atomic.Int32
	timer := NewRepeatingTimer(fc, time.Minute, func() { calls.Add(1) })

	assert.False(t, timer.Running())
	timer.Start()
	assert.True(t, timer.Running())

	fc.Advance(time.Minute)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	fc.Advance(time.Minute)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	timer.Stop()
	assert.False(t, timer.Running())
	fc.Advance(time.Minute)
	assert.Never(t, func() bool { return calls.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestRepeatingTimer_RestartResetsPeriod(t *testing.T) {
	fc := clockwork.NewFakeClock()
	var calls atomic.Int32
	timer := NewRepeatingTimer(fc, 5*time.Minute, func() { calls.Add(1) })
	timer.Start()
	defer timer.Stop()

	fc.Advance(3 * time.Minute)
	timer.Restart()

	fc.Advance(3 * time.Minute)
	assert.Never(t, func() bool { return calls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"the original period must not fire after a restart")

	fc.Advance(2 * time.Minute)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRepeatingTimer_RestartWhenStoppedIsNoop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	timer := NewRepeatingTimer(fc, time.Minute, func() {})

	timer.Restart()
	assert.False(t, timer.Running())

	timer.Stop()
	timer.Stop()
}
