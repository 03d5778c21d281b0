//go:build rp2040

package main

import (
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
)

// ws2812Latch is the minimum idle time between frames. A write closer to the
// previous one would be appended to it by the strip.
const ws2812Latch = time.Millisecond

// WS2812Driver drives a strip of addressable LEDs from a PIO state machine,
// one white pixel per channel.
type WS2812Driver struct {
	sm       pio.StateMachine
	strip    *piolib.WS2812B
	channels int
	last     []uint8
	written  time.Time
}

// NewWS2812Driver claims a PIO0 state machine and loads the strip program
func NewWS2812Driver(pin machine.Pin) (*WS2812Driver, error) {
	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	strip, err := piolib.NewWS2812B(sm, pin)
	if err != nil {
		return nil, err
	}
	return &WS2812Driver{sm: sm, strip: strip}, nil
}

// Configure sets the pixel count
func (d *WS2812Driver) Configure(channels int) error {
	d.channels = channels
	d.last = make([]uint8, channels)
	return nil
}

// Write pushes the frame when it changed and the strip has latched
func (d *WS2812Driver) Write(levels []uint8) error {
	if !d.written.IsZero() && time.Since(d.written) < ws2812Latch {
		return nil
	}
	changed := d.written.IsZero()
	for i := 0; i < d.channels && i < len(levels); i++ {
		if levels[i] != d.last[i] {
			changed = true
			d.last[i] = levels[i]
		}
	}
	if !changed {
		return nil
	}
	for _, level := range d.last {
		for d.sm.IsTxFIFOFull() {
		}
		d.strip.PutRGB(level, level, level)
	}
	d.written = time.Now()
	return nil
}

// MaxValue returns 255
func (d *WS2812Driver) MaxValue() uint32 {
	return 255
}
