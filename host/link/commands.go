package link

import (
	"context"
	"fmt"

	"dmxled/core"
	"dmxled/protocol"
)

// Status is the answer to get_status
type Status struct {
	core.ControllerStatus
	Override   bool   // a set_frame override is active
	DMXFrames  uint32 // packets received for this fixture
	DMXDropped uint32 // packets abandoned on a line error
}

// SetFrame overrides the DMX snapshot on the device
func (d *Device) SetFrame(ctx context.Context, master, speed uint8, levels []uint8) error {
	return d.Send(ctx, "set_frame", func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, uint32(master))
		protocol.EncodeVLQUint(o, uint32(speed))
		protocol.EncodeVLQBytes(o, levels)
	})
}

// ClearFrame returns the device to live DMX
func (d *Device) ClearFrame(ctx context.Context) error {
	return d.Send(ctx, "clear_frame", nil)
}

// Status reads the control loop state
func (d *Device) Status(ctx context.Context) (Status, error) {
	payload, err := d.Request(ctx, "get_status", "status", nil)
	if err != nil {
		return Status{}, err
	}

	var fields [8]uint32
	for i := range fields {
		if fields[i], err = protocol.DecodeVLQUint(&payload); err != nil {
			return Status{}, fmt.Errorf("decode status: %w", err)
		}
	}
	return Status{
		ControllerStatus: core.ControllerStatus{
			State:     core.StrobeState(fields[0]),
			Active:    fields[1] != 0,
			Ticks:     uint8(fields[2]),
			Effective: uint8(fields[3]),
			Loops:     fields[5],
		},
		Override:   fields[4] != 0,
		DMXFrames:  fields[6],
		DMXDropped: fields[7],
	}, nil
}

// DumpTiming fetches the device timing ring, oldest event first.
//
// The device writes every timing_event before the ACK of dump_timing, so
// once the ACK is in they are all queued.
func (d *Device) DumpTiming(ctx context.Context) ([]core.TimingEvent, error) {
	_, respID, err := d.ids("dump_timing", "timing_event")
	if err != nil {
		return nil, err
	}
	d.transport.DrainResponses()
	if err := d.Send(ctx, "dump_timing", nil); err != nil {
		return nil, err
	}

	var events []core.TimingEvent
	for _, msg := range d.transport.DrainResponses() {
		payload := msg.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil || int(id) != respID {
			continue
		}
		var f [5]uint32
		for i := range f {
			if f[i], err = protocol.DecodeVLQUint(&payload); err != nil {
				return nil, fmt.Errorf("decode timing_event: %w", err)
			}
		}
		events = append(events, core.TimingEvent{
			EventType: uint8(f[0]),
			Ticks:     uint8(f[1]),
			Loop:      f[2],
			Value1:    f[3],
			Value2:    f[4],
		})
	}
	return events, nil
}
