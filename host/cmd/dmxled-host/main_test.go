package main

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"dmxled/core"
)

type constants map[string]string

func (c constants) Constant(name string) (string, bool) {
	v, ok := c[name]
	return v, ok
}

func TestDeviceLEDCount(t *testing.T) {
	testCases := []struct {
		name     string
		consts   constants
		expected int
		warns    int
	}{
		{"reported", constants{core.ConstLEDCount: "8"}, 8, 0},
		{"missing", constants{}, 4, 0},
		{"malformed", constants{core.ConstLEDCount: "eight"}, 4, 1},
		{"trailing junk", constants{core.ConstLEDCount: "8x"}, 4, 1},
		{"zero", constants{core.ConstLEDCount: "0"}, 4, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			obs, logs := observer.New(zapcore.WarnLevel)
			if got := deviceLEDCount(tc.consts, 4, zap.New(obs)); got != tc.expected {
				t.Errorf("expected %d LEDs, got %d", tc.expected, got)
			}
			if logs.Len() != tc.warns {
				t.Errorf("expected %d warnings, got %d", tc.warns, logs.Len())
			}
		})
	}
}
