package core

import "dmxled/dmx"

// DefaultLEDCount is the number of LED channels on the reference board
const DefaultLEDCount = 8

// Controller runs one iteration of the control loop per Iterate call: strobe
// transition, tick rearm on phase change, then master scaling of every LED.
//
// A Controller is owned by the control loop goroutine. Only the tick source
// is shared with an interrupt.
type Controller struct {
	ticks TickSource

	state     StrobeState
	wasActive bool
	effective uint8
	lastTicks uint8
	loops     uint32

	levels []uint8
}

// NewController creates a controller for the given number of LEDs. The strobe
// starts in the dark phase.
func NewController(ticks TickSource, leds int) *Controller {
	if leds <= 0 {
		leds = DefaultLEDCount
	}
	return &Controller{
		ticks:  ticks,
		state:  StrobeOff,
		levels: make([]uint8, leds),
	}
}

// Iterate processes one DMX snapshot and returns the LED levels. The returned
// slice is owned by the controller and overwritten on the next call.
func (c *Controller) Iterate(frame dmx.Frame) []uint8 {
	c.loops++
	speed := frame.Speed()
	ticks := c.ticks.Current()

	res := StepStrobe(StrobeInput{
		State:     c.state,
		Ticks:     ticks,
		Master:    frame.Master(),
		Speed:     speed,
		WasActive: c.wasActive,
	})

	if res.ResetTicks {
		c.ticks.Rearm()
	}
	c.record(res, speed, ticks)

	c.state = res.State
	c.wasActive = speed != 0
	c.effective = res.Effective
	c.lastTicks = ticks

	ScaleFrame(c.levels, frame, res.Effective)
	return c.levels
}

// record logs phase changes into the timing ring
func (c *Controller) record(res StrobeResult, speed, ticks uint8) {
	switch {
	case !c.wasActive && speed != 0:
		RecordTiming(EvtStrobeArm, ticks, c.loops, uint32(speed), 0)
	case c.wasActive && speed == 0:
		RecordTiming(EvtStrobeDisarm, ticks, c.loops, 0, 0)
	case !res.ResetTicks:
	case res.State == StrobeOn:
		RecordTiming(EvtFlashOn, ticks, c.loops, uint32(speed), uint32(OffTicks(speed)))
	default:
		RecordTiming(EvtFlashOff, ticks, c.loops, uint32(speed), 0)
	}
}

// Levels returns the output of the last iteration
func (c *Controller) Levels() []uint8 {
	return c.levels
}

// ControllerStatus is a snapshot of the control loop for diagnostics
type ControllerStatus struct {
	State     StrobeState
	Active    bool  // strobe speed nonzero on the last iteration
	Ticks     uint8 // tick counter seen by the last iteration
	Effective uint8 // effective master of the last iteration
	Loops     uint32
}

// Status returns the state after the last iteration
func (c *Controller) Status() ControllerStatus {
	return ControllerStatus{
		State:     c.state,
		Active:    c.wasActive,
		Ticks:     c.lastTicks,
		Effective: c.effective,
		Loops:     c.loops,
	}
}
