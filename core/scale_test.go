package core

import (
	"testing"

	"dmxled/dmx"
)

func TestScaleLevel(t *testing.T) {
	testCases := []struct {
		raw, master, expected uint8
	}{
		{255, 255, 255},
		{128, 0, 0},
		{100, 128, 50}, // 12800/255 = 50.19
		{0, 255, 0},
		{1, 254, 0},
		{200, 255, 200},
		{255, 1, 1},
	}

	for _, tc := range testCases {
		if got := ScaleLevel(tc.raw, tc.master); got != tc.expected {
			t.Errorf("ScaleLevel(%d, %d) = %d, expected %d", tc.raw, tc.master, got, tc.expected)
		}
	}
}

func TestScaleLevelNeverExceedsRaw(t *testing.T) {
	for raw := 0; raw <= 255; raw++ {
		prev := uint8(0)
		for master := 0; master <= 255; master++ {
			got := ScaleLevel(uint8(raw), uint8(master))
			if got > uint8(raw) {
				t.Fatalf("ScaleLevel(%d, %d) = %d exceeds raw", raw, master, got)
			}
			if got < prev {
				t.Fatalf("ScaleLevel(%d, %d) = %d decreased from %d", raw, master, got, prev)
			}
			prev = got
		}
	}
}

func TestScaleLevelsOverwritesAll(t *testing.T) {
	dst := []uint8{9, 9, 9, 9}
	ScaleLevels(dst, []uint8{255, 100}, 128)

	expected := []uint8{128, 50, 0, 0}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("dst[%d] = %d, expected %d", i, dst[i], expected[i])
		}
	}
}

func TestScaleFrame(t *testing.T) {
	frame := dmx.NewFrame([]uint8{128, 0, 255, 100, 10})
	dst := make([]uint8, 4)
	ScaleFrame(dst, frame, frame.Master())

	expected := []uint8{128, 50, 5, 0}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("dst[%d] = %d, expected %d", i, dst[i], expected[i])
		}
	}
}

func TestLevelToDuty(t *testing.T) {
	if got := LevelToDuty(255, 4095); got != 4095 {
		t.Errorf("full level should map to top, got %d", got)
	}
	if got := LevelToDuty(0, 4095); got != 0 {
		t.Errorf("zero level should map to 0, got %d", got)
	}
	if got := LevelToDuty(128, 255); got != 128 {
		t.Errorf("8-bit top should pass levels through, got %d", got)
	}
}
