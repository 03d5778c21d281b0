//go:build !tinygo

package output

import (
	"bytes"
	"sync"

	"go.uber.org/zap"
)

// LogDriver reports LED levels to a zap logger. Only changes are logged.
type LogDriver struct {
	mu       sync.Mutex
	logger   *zap.Logger
	channels int
	last     []uint8
	writes   uint64
}

// NewLogDriver creates a driver logging to logger
func NewLogDriver(logger *zap.Logger) *LogDriver {
	return &LogDriver{logger: logger}
}

func (l *LogDriver) Configure(channels int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels = channels
	l.last = make([]uint8, channels)
	l.logger.Info("led output configured", zap.Int("channels", channels))
	return nil
}

func (l *LogDriver) Write(levels []uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.channels == 0 {
		return ErrNotConfigured
	}
	l.writes++
	if bytes.Equal(levels, l.last) {
		return nil
	}
	copy(l.last, levels)
	l.logger.Debug("leds",
		zap.Uint8s("levels", l.last),
		zap.Uint64("write", l.writes),
	)
	return nil
}

func (l *LogDriver) MaxValue() uint32 {
	return 255
}

// Levels returns a copy of the last levels written
func (l *LogDriver) Levels() []uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint8(nil), l.last...)
}
