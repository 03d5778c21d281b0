//go:build !wasm

package serial

import (
	"errors"
	"testing"
)

func TestFindDevice(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: RP2040VID, PID: "000A", Product: "Pico"},
	}

	p, err := FindDevice(ports)
	if err != nil {
		t.Fatalf("FindDevice: %v", err)
	}
	if p.Name != "/dev/ttyACM0" {
		t.Errorf("expected /dev/ttyACM0, got %s", p.Name)
	}
	if p.String() != "/dev/ttyACM0 [2E8A:000A] Pico" {
		t.Errorf("unexpected description %q", p.String())
	}

	if _, err := FindDevice(ports[:2]); !errors.Is(err, ErrNoDevice) {
		t.Errorf("expected ErrNoDevice, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM1")
	if cfg.Device != "/dev/ttyACM1" || cfg.Baud != 250000 || cfg.ReadTimeout == 0 {
		t.Errorf("unexpected default config %+v", cfg)
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
