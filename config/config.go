// Package config describes a driver installation: where the fixture sits in
// the DMX universe, how many LEDs it has and which output backend drives
// them. Firmware builds use DefaultConfig; host tools load YAML.
package config

import (
	"errors"
	"fmt"
	"time"

	"dmxled/core"
	"dmxled/dmx"
)

// Output backends
const (
	BackendPWM     = "pwm"
	BackendPCA9685 = "pca9685"
	BackendWS2812  = "ws2812"
	BackendStream  = "stream"
	BackendLog     = "log"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete installation description
type Config struct {
	DMX    DMXConfig    `yaml:"dmx"`
	Timing TimingConfig `yaml:"timing"`
	Output OutputConfig `yaml:"output"`
	Serial SerialConfig `yaml:"serial"`
	Pins   PinConfig    `yaml:"pins"`
	Debug  bool         `yaml:"debug"`
}

// DMXConfig places the fixture in the universe
type DMXConfig struct {
	Address uint16 `yaml:"address"` // 1-based start channel
	LEDs    int    `yaml:"leds"`
}

// TimingConfig sets the strobe tick source
type TimingConfig struct {
	TickPeriod time.Duration `yaml:"tick_period"`
}

// OutputConfig selects and parameterises the LED driver
type OutputConfig struct {
	Backend string        `yaml:"backend"`
	PCA9685 PCA9685Config `yaml:"pca9685"`
	Stream  string        `yaml:"stream"` // file or device for the stream backend
}

// PCA9685Config addresses an I2C PWM expander
type PCA9685Config struct {
	Address uint8         `yaml:"address"`
	Period  time.Duration `yaml:"period"`
}

// SerialConfig is the host side of the link
type SerialConfig struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// PinConfig lists GPIO numbers on the board
type PinConfig struct {
	LEDs   []int `yaml:"leds"`
	WS2812 uint8 `yaml:"ws2812"`
	SDA    uint8 `yaml:"sda"`
	SCL    uint8 `yaml:"scl"`
	DMXRX  uint8 `yaml:"dmx_rx"` // UART RX wired to the RS-485 transceiver
}

// DefaultConfig returns the reference board: eight LEDs on GPIO 0-7 driven
// by hardware PWM, fixture at address 1.
func DefaultConfig() *Config {
	return &Config{
		DMX: DMXConfig{
			Address: 1,
			LEDs:    core.DefaultLEDCount,
		},
		Timing: TimingConfig{
			TickPeriod: core.TickPeriod,
		},
		Output: OutputConfig{
			Backend: BackendPWM,
			PCA9685: PCA9685Config{
				Address: 0x40,
				Period:  time.Millisecond,
			},
		},
		Serial: SerialConfig{
			Device:      "/dev/ttyACM0",
			Baud:        250000,
			ReadTimeout: 100 * time.Millisecond,
		},
		Pins: PinConfig{
			LEDs:   []int{0, 1, 2, 3, 4, 5, 6, 7},
			WS2812: 16,
			SDA:    4,
			SCL:    5,
			DMXRX:  9,
		},
	}
}

// applyDefaults fills zero values from DefaultConfig and clamps the DMX
// address so the fixture fits in the universe
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.DMX.LEDs == 0 {
		cfg.DMX.LEDs = def.DMX.LEDs
	}
	cfg.DMX.Address = dmx.ClampAddress(cfg.DMX.Address, dmx.FixtureChannels(cfg.DMX.LEDs))

	if cfg.Timing.TickPeriod == 0 {
		cfg.Timing.TickPeriod = def.Timing.TickPeriod
	}
	if cfg.Output.Backend == "" {
		cfg.Output.Backend = def.Output.Backend
	}
	if cfg.Output.PCA9685.Address == 0 {
		cfg.Output.PCA9685.Address = def.Output.PCA9685.Address
	}
	if cfg.Output.PCA9685.Period == 0 {
		cfg.Output.PCA9685.Period = def.Output.PCA9685.Period
	}
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = def.Serial.Device
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = def.Serial.Baud
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = def.Serial.ReadTimeout
	}
	if len(cfg.Pins.LEDs) == 0 {
		cfg.Pins.LEDs = def.Pins.LEDs
	}
}

// Validate checks the fields defaults cannot repair
func (c *Config) Validate() error {
	var errs []error

	if c.DMX.LEDs < 1 || dmx.FixtureChannels(c.DMX.LEDs) < c.DMX.LEDs+dmx.ChannelFirstLED {
		errs = append(errs, fmt.Errorf("dmx.leds %d does not fit in a universe", c.DMX.LEDs))
	}
	if c.Timing.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("timing.tick_period %v must be positive", c.Timing.TickPeriod))
	}

	switch c.Output.Backend {
	case BackendPWM:
		if len(c.Pins.LEDs) < c.DMX.LEDs {
			errs = append(errs, fmt.Errorf("pwm backend needs %d pins, %d listed", c.DMX.LEDs, len(c.Pins.LEDs)))
		}
	case BackendPCA9685:
		if c.DMX.LEDs > 16 {
			errs = append(errs, fmt.Errorf("pca9685 drives at most 16 LEDs, got %d", c.DMX.LEDs))
		}
		if p := c.Output.PCA9685.Period; p < time.Millisecond || p > 25*time.Millisecond {
			errs = append(errs, fmt.Errorf("output.pca9685.period %v outside 1ms-25ms", p))
		}
	case BackendWS2812, BackendLog:
	case BackendStream:
		if c.Output.Stream == "" {
			errs = append(errs, errors.New("stream backend needs output.stream"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output backend %q", c.Output.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Channels returns the DMX footprint of the fixture
func (c *Config) Channels() int {
	return dmx.FixtureChannels(c.DMX.LEDs)
}
