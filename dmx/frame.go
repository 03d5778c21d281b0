// Package dmx holds the read-only view of received DMX channel data used by
// the control loop, and the receivers that fill it: a break-framed UART
// assembler for the wire and an Art-Net listener for the host.
package dmx

// UniverseSize is the number of channels in one DMX-512 universe
const UniverseSize = 512

// Fixture channel layout, relative to the start address
const (
	ChannelMaster   = 0 // master brightness
	ChannelStrobe   = 1 // strobe speed, 0 = off
	ChannelFirstLED = 2 // first per-LED brightness channel
)

// Universe is one full DMX frame. The zero value is an all-dark frame.
type Universe [UniverseSize]uint8

// Frame is the slice of a universe that belongs to one fixture. Channel
// offsets are relative to the fixture's start address. Reads past the end
// return 0, matching a receiver that has not seen that channel yet.
type Frame struct {
	channels []uint8
}

// NewFrame wraps fixture channel data (master, strobe, LEDs...). The slice is
// not copied; the frame must be treated as read-only.
func NewFrame(channels []uint8) Frame {
	return Frame{channels: channels}
}

// FromUniverse returns the frame of a fixture with the given number of LEDs
// whose first channel is the 1-based DMX address start.
func FromUniverse(u *Universe, start uint16, leds int) Frame {
	if u == nil {
		return Frame{}
	}
	count := FixtureChannels(leds)
	start = ClampAddress(start, count)
	first := int(start) - 1
	return Frame{channels: u[first : first+count]}
}

// Channel returns the value at a fixture-relative channel offset
func (f Frame) Channel(offset int) uint8 {
	if offset < 0 || offset >= len(f.channels) {
		return 0
	}
	return f.channels[offset]
}

// Master returns the master brightness byte
func (f Frame) Master() uint8 { return f.Channel(ChannelMaster) }

// Speed returns the strobe speed byte
func (f Frame) Speed() uint8 { return f.Channel(ChannelStrobe) }

// LED returns the raw brightness of LED i
func (f Frame) LED(i int) uint8 { return f.Channel(ChannelFirstLED + i) }

// Len returns the number of channels in the frame
func (f Frame) Len() int { return len(f.channels) }

// FixtureChannels is the footprint of a fixture with the given LED count
func FixtureChannels(leds int) int {
	if leds < 0 {
		leds = 0
	}
	n := ChannelFirstLED + leds
	if n > UniverseSize {
		n = UniverseSize
	}
	return n
}

// ClampAddress keeps a fixture of the given channel count inside the universe.
// Address 0 is not a valid DMX address and becomes 1; addresses that would run
// past channel 512 are pulled back to 512-channels.
func ClampAddress(addr uint16, channels int) uint16 {
	if addr == 0 {
		addr = 1
	}
	last := uint16(UniverseSize - channels)
	if channels >= UniverseSize {
		last = 1
	}
	if addr > last {
		addr = last
	}
	return addr
}
