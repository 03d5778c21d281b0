package dmx

import "sync/atomic"

// Source supplies the latest frame to the control loop. Implementations must
// return the zero frame rather than fail when nothing has been received.
type Source interface {
	Snapshot() Frame
}

// Buffer holds the most recently received fixture frame. A receiver stores
// complete frames from its own goroutine or interrupt; the control loop takes
// snapshots without locking.
type Buffer struct {
	start uint16
	leds  int
	frame atomic.Pointer[Frame]
}

// NewBuffer creates a buffer for a fixture at DMX address start with the given
// number of LEDs
func NewBuffer(start uint16, leds int) *Buffer {
	return &Buffer{
		start: ClampAddress(start, FixtureChannels(leds)),
		leds:  leds,
	}
}

// Address returns the effective (clamped) start address
func (b *Buffer) Address() uint16 {
	return b.start
}

// LastChannel returns the 1-based universe channel of the fixture's last slot
func (b *Buffer) LastChannel() int {
	return int(b.start) + FixtureChannels(b.leds) - 1
}

// Store publishes a received universe. The universe is copied.
func (b *Buffer) Store(u *Universe) {
	if u == nil {
		b.frame.Store(nil)
		return
	}
	cp := *u
	f := FromUniverse(&cp, b.start, b.leds)
	b.frame.Store(&f)
}

// StoreChannels publishes fixture-relative channel data directly. The slice is
// copied and truncated to the fixture footprint.
func (b *Buffer) StoreChannels(channels []uint8) {
	n := FixtureChannels(b.leds)
	cp := make([]uint8, n)
	copy(cp, channels)
	f := NewFrame(cp)
	b.frame.Store(&f)
}

// Reset drops the stored frame; snapshots return the zero frame again
func (b *Buffer) Reset() {
	b.frame.Store(nil)
}

// Snapshot returns the latest frame or the zero frame
func (b *Buffer) Snapshot() Frame {
	if f := b.frame.Load(); f != nil {
		return *f
	}
	return Frame{}
}

// Mux serves a bench override frame while one is set and the live source
// otherwise
type Mux struct {
	live     Source
	override *Buffer
	active   atomic.Bool
}

// NewMux wraps a live source. leds sizes the override frame.
func NewMux(live Source, leds int) *Mux {
	return &Mux{
		live:     live,
		override: NewBuffer(1, leds),
	}
}

// SetOverride replaces live data with the given fixture channels
func (m *Mux) SetOverride(channels []uint8) {
	m.override.StoreChannels(channels)
	m.active.Store(true)
}

// ClearOverride returns to live data
func (m *Mux) ClearOverride() {
	m.active.Store(false)
	m.override.Reset()
}

// Overridden reports whether an override is in effect
func (m *Mux) Overridden() bool {
	return m.active.Load()
}

// Snapshot returns the override frame, the live frame, or the zero frame
func (m *Mux) Snapshot() Frame {
	if m.active.Load() {
		return m.override.Snapshot()
	}
	if m.live == nil {
		return Frame{}
	}
	return m.live.Snapshot()
}
