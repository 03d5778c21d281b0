package main

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"dmxled/core"
	"dmxled/dmx"
	"dmxled/output"
)

func TestSimulatorAppliesBenchFrame(t *testing.T) {
	core.ClearTimingRing()
	defer core.ClearTimingRing()

	driver := output.NewLogDriver(zap.NewNop())
	if err := driver.Configure(2); err != nil {
		t.Fatal(err)
	}
	sim := newSimulator(dmx.NewBuffer(1, 2), 2, 0, driver, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.run(ctx) }()

	if err := sim.SetFrame(ctx, 200, 0, []uint8{255, 128}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		levels := driver.Levels()
		if levels[0] == 200 && levels[1] == 100 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("levels never reached [200 100], last %v", levels)
		}
		time.Sleep(time.Millisecond)
	}

	status, _ := sim.Status(ctx)
	if !status.Override || status.Effective != 200 || status.Loops == 0 {
		t.Errorf("unexpected status %+v", status)
	}

	events, _ := sim.DumpTiming(ctx)
	if len(events) == 0 || events[0].EventType != core.EvtOverrideSet {
		t.Errorf("expected override event first, got %+v", events)
	}

	if err := sim.ClearFrame(ctx); err != nil {
		t.Fatal(err)
	}
	if status, _ = sim.Status(ctx); status.Override {
		t.Error("override should be cleared")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("simulator did not stop")
	}
}
