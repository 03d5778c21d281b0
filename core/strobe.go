package core

// StrobeState is the phase of the current strobe flash
type StrobeState uint8

const (
	StrobeOff StrobeState = iota // dark, waiting for the off-time to elapse
	StrobeOn                     // lit, waiting for OnTimeTicks to elapse
)

func (s StrobeState) String() string {
	switch s {
	case StrobeOff:
		return "off"
	case StrobeOn:
		return "on"
	default:
		return "unknown"
	}
}

// OnTimeTicks is the lit duration of one flash (4 ticks = 10ms). It is fixed
// and not controlled by DMX.
const OnTimeTicks = 4

// Off-time interpolation constants.
//
// The off time is the linear map of the speed byte from [0,255] onto
// [offTicksSlowest, offTicksFastest] ticks:
//
//	off = slowest - speed*(slowest-fastest)/255
//
// Multiplying through by 255 gives the integer-only form
//
//	off = (slowest*255 - speed*(slowest-fastest)) / 255 = (51000 - speed*190) / 255
//
// The numerator peaks at 51000, so it fits in 16 bits.
const (
	offTicksSlowest = 200 // speed 0, 500ms
	offTicksFastest = 10  // speed 255, 25ms
	offTicksScale   = 255

	offTicksBase  = offTicksSlowest * offTicksScale   // 51000
	offTicksSlope = offTicksSlowest - offTicksFastest // 190
)

// OffTicks maps a strobe speed byte to the dark time between flashes, in
// ticks. Larger speeds give shorter gaps. Speed 0 means strobe disabled and
// callers do not use the result for it.
func OffTicks(speed uint8) uint8 {
	return uint8((uint16(offTicksBase) - uint16(speed)*offTicksSlope) / offTicksScale)
}

// StrobeInput is everything the strobe transition looks at in one control
// loop iteration
type StrobeInput struct {
	State     StrobeState
	Ticks     uint8 // tick counter value read this iteration
	Master    uint8 // DMX channel 0
	Speed     uint8 // DMX channel 1, 0 = strobe disabled
	WasActive bool  // Speed was nonzero on the previous iteration
}

// StrobeResult is the outcome of one transition. When ResetTicks is set the
// caller must Rearm the tick source.
type StrobeResult struct {
	State      StrobeState
	Effective  uint8 // either Master or 0
	ResetTicks bool
}

// StepStrobe computes one strobe transition. It has no side effects; the
// caller owns the state and the tick source.
//
// Note the comparisons: the lit phase ends at ticks >= OnTimeTicks, the dark
// phase ends at ticks > OffTicks(speed). Changing either shifts the flash
// cadence by one tick.
func StepStrobe(in StrobeInput) StrobeResult {
	res := StrobeResult{State: in.State}
	ticks := in.Ticks

	// Strobe just switched on: start a fresh flash from now
	if !in.WasActive && in.Speed != 0 {
		res.State = StrobeOn
		res.ResetTicks = true
		ticks = 0
	}

	if in.Speed == 0 {
		// Disabled. Park in the lit state; the rising edge above re-arms
		// the phase whenever the strobe comes back.
		res.State = StrobeOn
		res.Effective = in.Master
		return res
	}

	switch res.State {
	case StrobeOn:
		if ticks >= OnTimeTicks {
			res.State = StrobeOff
			res.Effective = 0
			res.ResetTicks = true
		} else {
			res.Effective = in.Master
		}
	default:
		if ticks > OffTicks(in.Speed) {
			res.State = StrobeOn
			res.Effective = in.Master
			res.ResetTicks = true
		} else {
			res.Effective = 0
		}
	}

	return res
}
