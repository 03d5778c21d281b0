package output

import (
	"bytes"
	"fmt"
	"time"

	"dmxled/core"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pca9685"
)

// PCA9685Channels is the channel count of one expander
const PCA9685Channels = 16

// PCA9685Driver drives LEDs from a PCA9685 12-bit PWM expander. All channels
// are written in one I2C transaction per changed frame; a full update holds
// the bus for about 1.5ms at 400kHz, so unchanged frames are skipped.
type PCA9685Driver struct {
	dev      *pca9685.DevBuffered
	period   time.Duration
	channels int
	last     []uint8 // levels of the last successful update
}

// NewPCA9685Driver creates a driver for the expander at addr. A zero period
// selects the library default of 1ms.
func NewPCA9685Driver(bus drivers.I2C, addr uint8, period time.Duration) *PCA9685Driver {
	return &PCA9685Driver{
		dev:    pca9685.NewBuffered(bus, addr),
		period: period,
	}
}

// Configure wakes the expander, drives every output low and sets the period
func (p *PCA9685Driver) Configure(channels int) error {
	if channels > PCA9685Channels {
		return fmt.Errorf("%w: %d > %d", ErrTooManyChannels, channels, PCA9685Channels)
	}
	if err := p.dev.Configure(pca9685.PWMConfig{Period: uint64(p.period.Nanoseconds())}); err != nil {
		return fmt.Errorf("configure pca9685: %w", err)
	}
	p.channels = channels
	p.last = nil
	return nil
}

// Write scales each level to 0-4095 and updates all channels at once. A
// frame equal to the last one written does not touch the bus.
func (p *PCA9685Driver) Write(levels []uint8) error {
	if p.channels == 0 {
		return ErrNotConfigured
	}
	if len(levels) > p.channels {
		levels = levels[:p.channels]
	}
	if p.last != nil && bytes.Equal(levels, p.last[:len(levels)]) && allZero(p.last[len(levels):]) {
		return nil
	}

	top := p.dev.Top()
	for ch := 0; ch < p.channels; ch++ {
		var level uint8
		if ch < len(levels) {
			level = levels[ch]
		}
		p.dev.PrepSet(uint8(ch), core.LevelToDuty(level, top))
	}
	if err := p.dev.Update(); err != nil {
		p.last = nil
		return err
	}

	if p.last == nil {
		p.last = make([]uint8, p.channels)
	}
	n := copy(p.last, levels)
	clear(p.last[n:])
	return nil
}

func allZero(levels []uint8) bool {
	for _, l := range levels {
		if l != 0 {
			return false
		}
	}
	return true
}

// MaxValue returns 4095
func (p *PCA9685Driver) MaxValue() uint32 {
	return p.dev.Top()
}
