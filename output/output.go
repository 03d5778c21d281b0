// Package output holds LED drivers that are not tied to a single board: an
// I2C PCA9685 expander, a framed byte stream for visualisers, a zap logger
// for the host simulator, and a fan-out of several drivers.
package output

import (
	"errors"

	"dmxled/core"
)

var (
	ErrTooManyChannels = errors.New("output: too many channels")
	ErrNotConfigured   = errors.New("output: driver not configured")
)

// Multi writes every frame to each driver in turn
type Multi []core.LEDDriver

// Configure configures every driver
func (m Multi) Configure(channels int) error {
	for _, d := range m {
		if err := d.Configure(channels); err != nil {
			return err
		}
	}
	return nil
}

// Write writes to every driver and returns the joined errors
func (m Multi) Write(levels []uint8) error {
	var errs []error
	for _, d := range m {
		if err := d.Write(levels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MaxValue returns the largest full-scale value of the drivers
func (m Multi) MaxValue() uint32 {
	var top uint32
	for _, d := range m {
		if v := d.MaxValue(); v > top {
			top = v
		}
	}
	return top
}
