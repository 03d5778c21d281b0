package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"dmxled/core"
	"dmxled/host/link"
)

type fakeTarget struct {
	master, speed uint8
	levels        []uint8
	sets, clears  int
}

func (f *fakeTarget) SetFrame(_ context.Context, master, speed uint8, levels []uint8) error {
	f.master, f.speed = master, speed
	f.levels = append([]uint8(nil), levels...)
	f.sets++
	return nil
}

func (f *fakeTarget) ClearFrame(context.Context) error {
	f.clears++
	return nil
}

func (f *fakeTarget) Status(context.Context) (link.Status, error) {
	return link.Status{
		ControllerStatus: core.ControllerStatus{State: core.StrobeOn, Effective: f.master, Loops: 42},
		Override:         f.sets > f.clears,
		DMXFrames:        1200,
		DMXDropped:       1,
	}, nil
}

func (f *fakeTarget) DumpTiming(context.Context) ([]core.TimingEvent, error) {
	return []core.TimingEvent{{EventType: core.EvtStrobeArm, Ticks: 3, Loop: 7, Value1: 50}}, nil
}

func TestConsoleEditsFrame(t *testing.T) {
	target := &fakeTarget{}
	var out bytes.Buffer
	c := newConsole(target, 4, &out)
	ctx := context.Background()

	for _, line := range []string{
		"master 200",
		"speed 0x10",
		"led 2 7",
		"leds 1 2",
	} {
		if err := c.execute(ctx, line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}

	if target.master != 200 || target.speed != 16 {
		t.Errorf("master/speed = %d/%d, expected 200/16", target.master, target.speed)
	}
	expected := []uint8{1, 2, 7, 255}
	for i := range expected {
		if target.levels[i] != expected[i] {
			t.Errorf("levels[%d] = %d, expected %d", i, target.levels[i], expected[i])
		}
	}
	if target.sets != 4 {
		t.Errorf("expected one SetFrame per edit, got %d", target.sets)
	}
}

func TestConsoleRejectsBadInput(t *testing.T) {
	c := newConsole(&fakeTarget{}, 2, &bytes.Buffer{})
	ctx := context.Background()

	for _, line := range []string{
		"master 256",
		"master",
		"speed -1",
		"led 2 10",
		"led x 10",
		"leds 1 2 3",
		"strobe 5",
		`master "unterminated`,
	} {
		if err := c.execute(ctx, line); err == nil {
			t.Errorf("%q: expected an error", line)
		}
	}
}

func TestConsoleRun(t *testing.T) {
	target := &fakeTarget{}
	var out bytes.Buffer
	c := newConsole(target, 2, &out)

	script := strings.Join([]string{
		"master 99",
		"status",
		"timing",
		"bogus",
		"clear",
		"quit",
		"master 1",
	}, "\n")
	if err := c.run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"strobe=on active=false ticks=0 effective=99 override=true loops=42 dmx_frames=1200 dmx_dropped=1",
		"STROBE_ARM",
		`unknown command "bogus"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if target.clears != 1 || target.master != 99 {
		t.Errorf("commands after quit must not run: clears %d master %d", target.clears, target.master)
	}
}

func TestConsoleShowDrawsFrame(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(&fakeTarget{}, 2, &out)
	c.master = 128

	if err := c.execute(context.Background(), "show"); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected master, speed and two LED rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "master") || !strings.Contains(lines[0], "128") {
		t.Errorf("unexpected master row %q", lines[0])
	}
	if !strings.Contains(lines[3], "led 1") || !strings.Contains(lines[3], "255") {
		t.Errorf("unexpected LED row %q", lines[3])
	}
	if strings.Count(lines[0], "█") != 8 {
		t.Errorf("expected 8 bar cells for 128, got %q", lines[0])
	}
}
