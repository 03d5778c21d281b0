//go:build rp2040

package main

import (
	"errors"

	"dmxled/core"
	"machine"
)

// ledPWMPeriod is the PWM period in nanoseconds (1kHz, flicker free)
const ledPWMPeriod = 1000000

var errNoPWMPin = errors.New("pwm: not enough LED pins")

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

type pwmOutput struct {
	slice   pwmPeripheral
	channel uint8
}

// RP2040PWMDriver drives one LED per GPIO from the hardware PWM slices.
// GPIO N belongs to slice (N>>1)&7, channel A for even pins and B for odd.
type RP2040PWMDriver struct {
	pins    []int
	outputs []pwmOutput
}

// NewRP2040PWMDriver creates a driver for the given GPIO numbers, LED 0 first
func NewRP2040PWMDriver(pins []int) *RP2040PWMDriver {
	return &RP2040PWMDriver{pins: pins}
}

// Configure claims a PWM channel for each of the first channels pins. Every
// slice runs at the same period, so sharing one between two LEDs is fine.
func (d *RP2040PWMDriver) Configure(channels int) error {
	if channels > len(d.pins) {
		return errNoPWMPin
	}
	configured := make(map[uint8]bool)
	d.outputs = d.outputs[:0]
	for _, n := range d.pins[:channels] {
		sliceNum := uint8((n >> 1) & 0x7)
		slice := pwmSlice(sliceNum)
		if !configured[sliceNum] {
			if err := slice.Configure(machine.PWMConfig{Period: ledPWMPeriod}); err != nil {
				return err
			}
			configured[sliceNum] = true
		}
		ch, err := slice.Channel(machine.Pin(n))
		if err != nil {
			return err
		}
		slice.Set(ch, 0)
		d.outputs = append(d.outputs, pwmOutput{slice: slice, channel: ch})
	}
	return nil
}

// Write sets each channel's duty from its level
func (d *RP2040PWMDriver) Write(levels []uint8) error {
	for i, out := range d.outputs {
		var level uint8
		if i < len(levels) {
			level = levels[i]
		}
		out.slice.Set(out.channel, core.LevelToDuty(level, out.slice.Top()))
	}
	return nil
}

// MaxValue returns the counter top of the first slice
func (d *RP2040PWMDriver) MaxValue() uint32 {
	if len(d.outputs) == 0 {
		return 255
	}
	return d.outputs[0].slice.Top()
}

// pwmSlice returns the PWM peripheral for a slice number
func pwmSlice(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return machine.PWM0
	}
}
