//go:build !tinygo

package core

import (
	"sync"
	"time"
)

// SoftTimer is a TickSource backed by a goroutine, used by the host simulator
// and by tests that want real time to pass.
type SoftTimer struct {
	counter TickCounter
	period  time.Duration

	rearm    chan struct{}
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
	stopOnce sync.Once
}

// NewSoftTimer creates a stopped timer. A zero period selects TickPeriod.
func NewSoftTimer(period time.Duration) *SoftTimer {
	if period <= 0 {
		period = TickPeriod
	}
	return &SoftTimer{
		period: period,
		rearm:  make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the tick goroutine. Calling it more than once has no effect.
func (t *SoftTimer) Start(initialDelay time.Duration) {
	t.once.Do(func() {
		go t.run(initialDelay)
	})
}

func (t *SoftTimer) run(initialDelay time.Duration) {
	defer close(t.done)

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-t.rearm:
			timer.Reset(t.period)
		case <-timer.C:
			t.counter.Increment()
			timer.Reset(t.period)
		}
	}
}

// Current returns the tick count since the last Rearm
func (t *SoftTimer) Current() uint8 {
	return t.counter.Current()
}

// Rearm zeroes the counter and asks the goroutine to restart the period.
// It never blocks; a pending rearm request is coalesced.
func (t *SoftTimer) Rearm() {
	t.counter.Reset()
	select {
	case t.rearm <- struct{}{}:
	default:
	}
}

// Stop terminates the tick goroutine and waits for it to exit. A timer that
// was never started is marked done so Stop still returns.
func (t *SoftTimer) Stop() {
	t.once.Do(func() { close(t.done) })
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}
