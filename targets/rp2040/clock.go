//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"time"

	"dmxled/core"
)

// Alarm 0 belongs to the TinyGo scheduler; the strobe clock uses alarm 1
const strobeAlarm = 1

var strobeTimer *core.IRQTimer

// InitClock sets up the strobe tick source on the 1MHz system timer
func InitClock(period time.Duration) *core.IRQTimer {
	core.RegisterConstant(core.ConstMCU, "rp2040")
	core.RegisterConstant("CLOCK_FREQ", uint32(1000000))

	strobeTimer = core.NewIRQTimer(period, armStrobeAlarm)
	rp.TIMER.INTE.SetBits(1 << strobeAlarm)
	irq := interrupt.New(rp.IRQ_TIMER_IRQ_1, handleStrobeAlarm)
	irq.Enable()
	return strobeTimer
}

// armStrobeAlarm programs alarm 1 to fire delay from now. Writing the
// target arms the alarm and replaces a pending one.
func armStrobeAlarm(delay time.Duration) {
	us := uint32(delay / time.Microsecond)
	if us == 0 {
		us = 1
	}
	rp.TIMER.ALARM1.Set(hardwareTime() + us)
}

func handleStrobeAlarm(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(1 << strobeAlarm)
	strobeTimer.Fire()
}

// hardwareTime returns the low word of the microsecond timer
func hardwareTime() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}
