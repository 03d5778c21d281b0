package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"dmxled/core"
	"dmxled/dmx"
	"dmxled/host/link"
)

// loopPeriod paces the simulated control loop. The firmware loop spins
// freely; 1ms is well inside one 2.5ms tick.
const loopPeriod = time.Millisecond

// simulator runs the control core on the host against a software tick source
type simulator struct {
	logger *zap.Logger
	timer  *core.SoftTimer
	live   *dmx.Buffer
	mux    *dmx.Mux
	driver core.LEDDriver

	mu   sync.Mutex // guards ctrl and the timing ring
	ctrl *core.Controller
}

func newSimulator(live *dmx.Buffer, leds int, tick time.Duration, driver core.LEDDriver, logger *zap.Logger) *simulator {
	timer := core.NewSoftTimer(tick)
	return &simulator{
		logger: logger,
		timer:  timer,
		live:   live,
		mux:    dmx.NewMux(live, leds),
		driver: driver,
		ctrl:   core.NewController(timer, leds),
	}
}

// run drives the loop until ctx is done
func (s *simulator) run(ctx context.Context) error {
	s.timer.Start(0)
	defer s.timer.Stop()

	ticker := time.NewTicker(loopPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *simulator) step() {
	s.mu.Lock()
	levels := s.ctrl.Iterate(s.mux.Snapshot())
	status := s.ctrl.Status()
	s.mu.Unlock()

	if err := s.driver.Write(levels); err != nil {
		s.record(core.EvtOutputError, status.Ticks, status.Loops, 0, 0)
		s.logger.Warn("led write failed", zap.Error(err))
	}
}

func (s *simulator) record(evt, ticks uint8, loop, v1, v2 uint32) {
	s.mu.Lock()
	core.RecordTiming(evt, ticks, loop, v1, v2)
	s.mu.Unlock()
}

func (s *simulator) SetFrame(_ context.Context, master, speed uint8, levels []uint8) error {
	channels := append([]uint8{master, speed}, levels...)
	s.mux.SetOverride(channels)
	s.record(core.EvtOverrideSet, s.timer.Current(), 0, uint32(master), uint32(speed))
	s.logger.Debug("bench frame", zap.Uint8("master", master), zap.Uint8("speed", speed))
	return nil
}

func (s *simulator) ClearFrame(context.Context) error {
	s.mux.ClearOverride()
	s.record(core.EvtOverrideClear, s.timer.Current(), 0, 0, 0)
	return nil
}

func (s *simulator) Status(context.Context) (link.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return link.Status{
		ControllerStatus: s.ctrl.Status(),
		Override:         s.mux.Overridden(),
	}, nil
}

func (s *simulator) DumpTiming(context.Context) ([]core.TimingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.TimingEvents(), nil
}
