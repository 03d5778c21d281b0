//go:build rp2040

package main

import (
	"machine"
)

// i2cFrequency is fast mode; one PCA9685 frame is 66 bytes
const i2cFrequency = 400000

// configureI2C sets up the I2C peripheral that owns the given pins. On the
// RP2040 SDA pins 0, 4, 8... belong to I2C0 and 2, 6, 10... to I2C1.
func configureI2C(sda, scl uint8) (*machine.I2C, error) {
	bus := machine.I2C0
	if (sda>>1)&1 == 1 {
		bus = machine.I2C1
	}
	err := bus.Configure(machine.I2CConfig{
		SDA:       machine.Pin(sda),
		SCL:       machine.Pin(scl),
		Frequency: i2cFrequency,
	})
	if err != nil {
		return nil, err
	}
	return bus, nil
}
