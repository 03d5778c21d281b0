package core

import "sync/atomic"

// TickCounter is the free-running 8-bit strobe clock.
//
// The tick interrupt is the only writer of increments and the strobe logic is
// the only caller of Reset. The value is kept in a 32-bit atomic word and
// truncated on read, so it wraps at 256 exactly like the hardware byte.
//
// Increment and Reset are not serialised against each other. If the interrupt
// fires between the control loop reading the counter and resetting it, that
// tick is lost; if it fires right after the reset, the next phase starts one
// tick early. Either way a flash is off by at most one tick, which is
// accepted. Do not put a lock here: the interrupt must never wait.
type TickCounter struct {
	value uint32
}

// Increment advances the counter by one tick. Safe to call from an interrupt.
func (c *TickCounter) Increment() {
	atomic.AddUint32(&c.value, 1)
}

// Current returns the counter value, wrapped to 8 bits
func (c *TickCounter) Current() uint8 {
	return uint8(atomic.LoadUint32(&c.value))
}

// Reset zeroes the counter
func (c *TickCounter) Reset() {
	atomic.StoreUint32(&c.value, 0)
}
