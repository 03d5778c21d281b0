package dmx

// StartCodeDimmer is the null start code of a standard dimmer packet.
// Packets with any other start code (RDM, text, vendor) are ignored.
const StartCodeDimmer = 0x00

// Receiver assembles DMX-512 packets from a UART byte stream. The UART layer
// calls Break when it sees a line break and Byte for every received slot.
//
// A packet is published to the Buffer as soon as the fixture's last channel
// arrives, so the control loop sees new data without waiting for the next
// break. Packets that end before that channel are dropped.
type Receiver struct {
	dst  *Buffer
	last int // 1-based channel that completes the fixture

	u       Universe
	slot    int // slots since the break, start code is slot 0
	synced  bool
	frames  uint32
	dropped uint32
}

// NewReceiver creates a receiver publishing into dst
func NewReceiver(dst *Buffer) *Receiver {
	return &Receiver{dst: dst, last: dst.LastChannel()}
}

// Break marks the start of a new packet
func (r *Receiver) Break() {
	if r.synced && r.slot > 0 {
		// the previous packet never reached the fixture
		r.dropped++
	}
	r.slot = 0
	r.synced = true
}

// Byte consumes one received slot
func (r *Receiver) Byte(b uint8) {
	if !r.synced {
		return
	}
	if r.slot == 0 && b != StartCodeDimmer {
		r.synced = false
		return
	}
	if r.slot > 0 {
		r.u[r.slot-1] = b
	}
	if r.slot == r.last {
		r.dst.Store(&r.u)
		r.frames++
		r.synced = false
		return
	}
	r.slot++
}

// FramingError abandons the current packet. A framing error that is not a
// break means line noise or a baud mismatch.
func (r *Receiver) FramingError() {
	if r.synced {
		r.dropped++
	}
	r.synced = false
}

// Frames returns the number of packets published
func (r *Receiver) Frames() uint32 {
	return r.frames
}

// Dropped returns the number of packets abandoned before the fixture was
// complete
func (r *Receiver) Dropped() uint32 {
	return r.dropped
}
