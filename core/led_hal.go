package core

// LEDDriver is the abstract LED output the control loop writes to.
// Platform-specific implementations handle the actual PWM hardware.
type LEDDriver interface {
	// Configure prepares the given number of LED channels
	Configure(channels int) error

	// Write outputs one brightness level (0-255) per channel.
	// levels always holds exactly the configured number of channels.
	Write(levels []uint8) error

	// MaxValue returns the native full-scale value of the output
	// (255 for 8-bit PWM, 4095 for a PCA9685, ...)
	MaxValue() uint32
}

// Global singleton used by the control loop and link commands.
var ledDriver LEDDriver

// SetLEDDriver is called by target-specific code to register its driver.
func SetLEDDriver(d LEDDriver) {
	ledDriver = d
}

// MustLED returns the configured driver or panics if missing.
func MustLED() LEDDriver {
	if ledDriver == nil {
		panic("LED driver not configured")
	}
	return ledDriver
}

// LevelToDuty converts an 8-bit level to a duty value in [0, top], using the
// same multiply-then-divide as the master scaling
func LevelToDuty(level uint8, top uint32) uint32 {
	return uint32(level) * top / levelScale
}
