package core

import "time"

// AlarmFunc schedules the next tick interrupt delay from now, replacing any
// pending alarm.
type AlarmFunc func(delay time.Duration)

// IRQTimer is a TickSource driven by a hardware alarm. The target wires its
// alarm interrupt to Fire and supplies the AlarmFunc that programs it.
type IRQTimer struct {
	counter TickCounter
	period  time.Duration
	arm     AlarmFunc
}

// NewIRQTimer creates a timer on top of arm. A zero period selects TickPeriod.
func NewIRQTimer(period time.Duration, arm AlarmFunc) *IRQTimer {
	if period <= 0 {
		period = TickPeriod
	}
	return &IRQTimer{period: period, arm: arm}
}

// Start programs the first alarm
func (t *IRQTimer) Start(initialDelay time.Duration) {
	t.arm(initialDelay)
}

// Fire is the alarm interrupt handler: count the tick and reload the period
func (t *IRQTimer) Fire() {
	t.counter.Increment()
	t.arm(t.period)
}

// Current returns the tick count since the last Rearm
func (t *IRQTimer) Current() uint8 {
	return t.counter.Current()
}

// Rearm zeroes the counter and reloads the alarm with interrupts masked, so
// a tick cannot land between the two.
func (t *IRQTimer) Rearm() {
	state := disableInterrupts()
	t.counter.Reset()
	t.arm(t.period)
	restoreInterrupts(state)
}
