package core

import "time"

// Strobe clock timing. The original hardware divides the system clock down to
// 400 interrupts per second, one tick every 2.5ms.
const (
	TicksPerSecond = 400
	TickPeriod     = time.Second / TicksPerSecond

	// MaxTickDelay is the longest interval an 8-bit tick counter can express
	MaxTickDelay = 255 * TickPeriod
)

// TickSource is the strobe clock seen by the control loop.
//
// Rearm zeroes the counter and restarts the underlying timer period, so the
// next increment lands a full TickPeriod after the phase change rather than
// whenever the free-running timer happens to fire.
type TickSource interface {
	// Start begins ticking; the first increment happens after initialDelay
	Start(initialDelay time.Duration)

	// Current returns the ticks elapsed since the last Rearm, modulo 256
	Current() uint8

	// Rearm resynchronises the phase: counter to zero, timer reloaded
	Rearm()
}

// TicksFromMS converts milliseconds to strobe ticks, saturating at 255
func TicksFromMS(ms uint32) uint8 {
	ticks := ms * TicksPerSecond / 1000
	if ticks > 255 {
		return 255
	}
	return uint8(ticks)
}

// TicksToMS converts strobe ticks to milliseconds (truncated)
func TicksToMS(ticks uint8) uint32 {
	return uint32(ticks) * 1000 / TicksPerSecond
}
