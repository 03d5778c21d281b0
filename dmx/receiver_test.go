package dmx

import "testing"

func feed(r *Receiver, start uint8, slots ...uint8) {
	r.Break()
	r.Byte(start)
	for _, b := range slots {
		r.Byte(b)
	}
}

func TestReceiverPublishesFixture(t *testing.T) {
	buf := NewBuffer(3, 2) // channels 3-6
	r := NewReceiver(buf)

	feed(r, StartCodeDimmer, 1, 2, 200, 10, 255, 128, 99, 99)

	f := buf.Snapshot()
	if f.Master() != 200 || f.Speed() != 10 || f.LED(0) != 255 || f.LED(1) != 128 {
		t.Errorf("unexpected frame master=%d speed=%d leds=%d,%d", f.Master(), f.Speed(), f.LED(0), f.LED(1))
	}
	if r.Frames() != 1 || r.Dropped() != 0 {
		t.Errorf("frames/dropped = %d/%d, expected 1/0", r.Frames(), r.Dropped())
	}
}

func TestReceiverPublishesBeforeNextBreak(t *testing.T) {
	buf := NewBuffer(1, 1)
	r := NewReceiver(buf)

	r.Break()
	r.Byte(StartCodeDimmer)
	r.Byte(50)
	r.Byte(0)
	if buf.Snapshot().Len() != 0 {
		t.Fatal("frame published before the fixture was complete")
	}
	r.Byte(77)
	if buf.Snapshot().LED(0) != 77 {
		t.Errorf("expected LED 77 as soon as the last channel arrived, got %d", buf.Snapshot().LED(0))
	}
}

func TestReceiverIgnoresAlternateStartCode(t *testing.T) {
	buf := NewBuffer(1, 1)
	r := NewReceiver(buf)

	feed(r, 0xCC, 9, 9, 9) // RDM
	if buf.Snapshot().Len() != 0 || r.Frames() != 0 {
		t.Error("non-dimmer packet must not be published")
	}

	feed(r, StartCodeDimmer, 1, 2, 3)
	if buf.Snapshot().Master() != 1 {
		t.Errorf("expected dimmer packet after RDM, got master %d", buf.Snapshot().Master())
	}
}

func TestReceiverDropsShortAndNoisyPackets(t *testing.T) {
	buf := NewBuffer(10, 1)
	r := NewReceiver(buf)

	feed(r, StartCodeDimmer, 1, 2, 3) // ends at channel 3
	r.Break()
	if r.Dropped() != 1 {
		t.Errorf("expected short packet dropped, got %d", r.Dropped())
	}

	r.Byte(StartCodeDimmer)
	r.Byte(4)
	r.FramingError()
	for i := 0; i < 20; i++ {
		r.Byte(0xFF)
	}
	if r.Dropped() != 2 || r.Frames() != 0 || buf.Snapshot().Len() != 0 {
		t.Errorf("frames/dropped = %d/%d, expected 0/2", r.Frames(), r.Dropped())
	}
}

func TestReceiverIgnoresBytesBeforeBreak(t *testing.T) {
	buf := NewBuffer(1, 1)
	r := NewReceiver(buf)

	for _, b := range []uint8{0, 1, 2, 3, 4} {
		r.Byte(b)
	}
	if buf.Snapshot().Len() != 0 {
		t.Error("receiver must wait for a break before assembling")
	}
}
