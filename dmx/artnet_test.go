//go:build !tinygo

package dmx

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseArtDMX(t *testing.T) {
	packet := BuildArtDMX(9, 0x0123, []byte{1, 2, 3})
	if len(packet) != 21 || string(packet[:7]) != "Art-Net" {
		t.Fatalf("unexpected packet %x", packet)
	}

	frame, err := ParseArtDMX(packet)
	if err != nil {
		t.Fatalf("ParseArtDMX: %v", err)
	}
	if frame.Sequence != 9 || frame.Universe != 0x0123 || len(frame.Data) != 3 || frame.Data[2] != 3 {
		t.Errorf("unexpected frame %+v", frame)
	}
}

func TestParseArtDMXRejects(t *testing.T) {
	good := BuildArtDMX(1, 0, []byte{1, 2, 3})

	poll := append([]byte(nil), good...)
	poll[9] = 0x20 // ArtPoll

	truncated := append([]byte(nil), good[:19]...)

	badID := append([]byte(nil), good...)
	badID[0] = 'X'

	for name, packet := range map[string][]byte{
		"short":     good[:10],
		"poll":      poll,
		"truncated": truncated,
		"id":        badID,
	} {
		if _, err := ParseArtDMX(packet); !errors.Is(err, ErrNotArtDMX) {
			t.Errorf("%s: expected ErrNotArtDMX, got %v", name, err)
		}
	}
}

func TestArtNetReceiver(t *testing.T) {
	buf := NewBuffer(3, 2)
	recv, err := ListenArtNet("127.0.0.1:0", 4, buf)
	if err != nil {
		t.Skipf("udp unavailable: %v", err)
	}
	frames := make(chan ArtDMX, 4)
	recv.OnFrame = func(f ArtDMX) { frames <- f }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- recv.Run(ctx) }()

	sender, err := DialArtNet(recv.Addr().String(), 4)
	if err != nil {
		t.Fatalf("DialArtNet: %v", err)
	}
	defer sender.Close()

	// a frame for another universe is ignored
	other, _ := DialArtNet(recv.Addr().String(), 5)
	defer other.Close()
	if err := other.Send([]byte{0, 0, 1, 1, 1, 1}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := sender.Send([]byte{0, 0, 200, 30, 40, 50}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case f := <-frames:
		if f.Universe != 4 {
			t.Errorf("unexpected universe %d", f.Universe)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	snap := buf.Snapshot()
	if snap.Master() != 200 || snap.Speed() != 30 || snap.LED(1) != 50 {
		t.Errorf("unexpected snapshot master %d speed %d led1 %d", snap.Master(), snap.Speed(), snap.LED(1))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not stop")
	}
}
