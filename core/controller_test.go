package core

import (
	"testing"
	"time"

	"dmxled/dmx"
)

// manualTicks is a TickSource driven by the test
type manualTicks struct {
	now    uint8
	rearms int
}

func (m *manualTicks) Start(time.Duration) {}
func (m *manualTicks) Current() uint8 { return m.now }
func (m *manualTicks) Rearm() {
	m.now = 0
	m.rearms++
}

func strobeFrame(master, speed uint8, leds ...uint8) dmx.Frame {
	return dmx.NewFrame(append([]uint8{master, speed}, leds...))
}

func TestControllerStrobeDisabled(t *testing.T) {
	ticks := &manualTicks{now: 123}
	ctrl := NewController(ticks, 3)

	levels := ctrl.Iterate(strobeFrame(128, 0, 255, 100, 0))

	expected := []uint8{128, 50, 0}
	for i := range expected {
		if levels[i] != expected[i] {
			t.Errorf("levels[%d] = %d, expected %d", i, levels[i], expected[i])
		}
	}
	if ticks.rearms != 0 {
		t.Errorf("disabled strobe must not touch the timer, got %d rearms", ticks.rearms)
	}
}

func TestControllerFlashCycle(t *testing.T) {
	ticks := &manualTicks{now: 77}
	ctrl := NewController(ticks, 2)
	frame := strobeFrame(200, 10, 255, 255)
	off := OffTicks(10)

	// Activation: lit immediately, timer rearmed
	levels := ctrl.Iterate(frame)
	if levels[0] != 200 || ticks.rearms != 1 {
		t.Fatalf("activation: level %d rearms %d, expected 200 and 1", levels[0], ticks.rearms)
	}

	for cycle := 0; cycle < 3; cycle++ {
		for ticks.now = 1; ticks.now < OnTimeTicks; ticks.now++ {
			if levels = ctrl.Iterate(frame); levels[0] != 200 {
				t.Fatalf("cycle %d tick %d: expected lit, got %d", cycle, ticks.now, levels[0])
			}
		}

		ticks.now = OnTimeTicks
		if levels = ctrl.Iterate(frame); levels[0] != 0 || levels[1] != 0 {
			t.Fatalf("cycle %d: expected dark at on-time expiry, got %v", cycle, levels)
		}
		if ticks.now != 0 {
			t.Fatalf("cycle %d: timer not rearmed on flash end", cycle)
		}

		for ticks.now = 0; ticks.now <= off; ticks.now++ {
			if levels = ctrl.Iterate(frame); levels[0] != 0 {
				t.Fatalf("cycle %d tick %d: expected dark, got %d", cycle, ticks.now, levels[0])
			}
		}

		ticks.now = off + 1
		if levels = ctrl.Iterate(frame); levels[0] != 200 {
			t.Fatalf("cycle %d: expected flash after %d ticks, got %d", cycle, off+1, levels[0])
		}
		if status := ctrl.Status(); status.State != StrobeOn {
			t.Fatalf("cycle %d: expected state %v, got %v", cycle, StrobeOn, status.State)
		}
	}

	// activation + (off + on) per cycle
	if ticks.rearms != 1+3*2 {
		t.Errorf("expected %d rearms, got %d", 1+3*2, ticks.rearms)
	}
}

func TestControllerReactivationRearms(t *testing.T) {
	ticks := &manualTicks{}
	ctrl := NewController(ticks, 1)

	ctrl.Iterate(strobeFrame(255, 50, 255))
	ticks.now = OnTimeTicks
	ctrl.Iterate(strobeFrame(255, 50, 255)) // now dark

	ticks.now = 30
	if levels := ctrl.Iterate(strobeFrame(255, 0, 255)); levels[0] != 255 {
		t.Fatalf("disabled strobe should follow master, got %d", levels[0])
	}

	rearms := ticks.rearms
	ticks.now = 90
	if levels := ctrl.Iterate(strobeFrame(255, 50, 255)); levels[0] != 255 {
		t.Errorf("re-activation should start with a lit flash, got %d", levels[0])
	}
	if ticks.rearms != rearms+1 {
		t.Errorf("re-activation should rearm the timer once, got %d", ticks.rearms-rearms)
	}
}

func TestControllerRecordsTiming(t *testing.T) {
	ClearTimingRing()
	defer ClearTimingRing()

	ticks := &manualTicks{}
	ctrl := NewController(ticks, 1)

	ctrl.Iterate(strobeFrame(255, 255, 255))
	ticks.now = OnTimeTicks
	ctrl.Iterate(strobeFrame(255, 255, 255))
	ticks.now = OffTicks(255) + 1
	ctrl.Iterate(strobeFrame(255, 255, 255))
	ctrl.Iterate(strobeFrame(255, 0, 255))

	events := TimingEvents()
	expected := []uint8{EvtStrobeArm, EvtFlashOff, EvtFlashOn, EvtStrobeDisarm}
	if len(events) != len(expected) {
		t.Fatalf("expected %d events, got %d: %+v", len(expected), len(events), events)
	}
	for i, evt := range events {
		if evt.EventType != expected[i] {
			t.Errorf("event %d: expected %s, got %s", i, EventName(expected[i]), EventName(evt.EventType))
		}
		if evt.Loop != uint32(i+1) {
			t.Errorf("event %d: expected loop %d, got %d", i, i+1, evt.Loop)
		}
	}
}

func TestControllerDefaultsLEDCount(t *testing.T) {
	ctrl := NewController(&manualTicks{}, 0)
	if len(ctrl.Levels()) != DefaultLEDCount {
		t.Errorf("expected %d levels, got %d", DefaultLEDCount, len(ctrl.Levels()))
	}
}
