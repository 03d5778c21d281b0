// Package serial opens the host end of the LED driver link
package serial

import (
	"io"
	"time"
)

// Port is an open serial connection
type Port interface {
	io.ReadWriteCloser

	// Flush pushes out any buffered data
	Flush() error
}

// Config holds serial port settings
type Config struct {
	// Device path, e.g. "/dev/ttyACM0" or "COM3"
	Device string

	// Baud rate; USB CDC ignores it
	Baud int

	// ReadTimeout bounds each Read so the reader can notice Close.
	// Zero blocks.
	ReadTimeout time.Duration
}

// DefaultConfig returns settings for a USB CDC link on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}
