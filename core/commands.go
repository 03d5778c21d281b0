package core

import (
	"dmxled/dmx"
	"dmxled/protocol"
)

// Dictionary constant names
const (
	ConstTickHz        = "TICK_HZ"
	ConstLEDCount      = "LED_COUNT"
	ConstStrobeOnTicks = "STROBE_ON_TICKS"
	ConstDMXAddress    = "DMX_ADDRESS"
	ConstMCU           = "MCU"
)

// DMXCounters is the packet accounting of a DMX receiver
type DMXCounters interface {
	Frames() uint32
	Dropped() uint32
}

var (
	globalTransport *protocol.Transport
	linkController  *Controller
	linkMux         *dmx.Mux
	linkDMX         DMXCounters
)

// SetGlobalTransport sets the transport responses are written to
func SetGlobalTransport(transport *protocol.Transport) {
	globalTransport = transport
}

// SetDMXCounters sets the receiver whose counts get_status reports. Without
// one both counts read zero.
func SetDMXCounters(counters DMXCounters) {
	linkDMX = counters
}

// InitLinkCommands registers the link commands against ctrl and mux.
//
// identify_response and identify are registered first so they get IDs 0
// and 1, which a host uses before it has the dictionary.
func InitLinkCommands(ctrl *Controller, mux *dmx.Mux) {
	linkController = ctrl
	linkMux = mux

	RegisterResponse("identify_response", "offset=%u data=%*s") // ID 0
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify) // ID 1

	RegisterCommand("get_status", "", handleGetStatus)
	RegisterCommand("set_frame", "master=%c speed=%c levels=%*s", handleSetFrame)
	RegisterCommand("clear_frame", "", handleClearFrame)
	RegisterCommand("dump_timing", "", handleDumpTiming)

	RegisterResponse("status", "strobe=%c active=%c ticks=%c effective=%c override=%c loops=%u dmx_frames=%u dmx_dropped=%u")
	RegisterResponse("led_state", "levels=%*s")
	RegisterResponse("timing_event", "type=%c ticks=%c loop=%u v1=%u v2=%u")

	RegisterConstant(ConstTickHz, uint32(TicksPerSecond))
	RegisterConstant(ConstStrobeOnTicks, uint8(OnTimeTicks))
	if ctrl != nil {
		RegisterConstant(ConstLEDCount, len(ctrl.Levels()))
	}
}

// SendResponse encodes a registered response on the global transport. It is
// a no-op until a transport is set.
func SendResponse(name string, args func(output protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		panic("response not registered: " + name)
	}
	if err := globalTransport.SendCommand(cmd.ID, args); err != nil {
		DebugPrintln("[LINK] " + name + ": " + err.Error())
	}
}

// ResponseID returns the ID of a registered response
func ResponseID(name string) (uint16, bool) {
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok || !cmd.IsResponse() {
		return 0, false
	}
	return cmd.ID, true
}

func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint8(data)
	if err != nil {
		return err
	}

	chunk := GetGlobalDictionary().GetChunk(offset, count)
	SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

func handleGetStatus(_ *[]byte) error {
	var status ControllerStatus
	if linkController != nil {
		status = linkController.Status()
	}
	override := linkMux != nil && linkMux.Overridden()
	var frames, dropped uint32
	if linkDMX != nil {
		frames, dropped = linkDMX.Frames(), linkDMX.Dropped()
	}

	SendResponse("status", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(status.State))
		protocol.EncodeVLQUint(output, boolToUint(status.Active))
		protocol.EncodeVLQUint(output, uint32(status.Ticks))
		protocol.EncodeVLQUint(output, uint32(status.Effective))
		protocol.EncodeVLQUint(output, boolToUint(override))
		protocol.EncodeVLQUint(output, status.Loops)
		protocol.EncodeVLQUint(output, frames)
		protocol.EncodeVLQUint(output, dropped)
	})
	return nil
}

func handleSetFrame(data *[]byte) error {
	master, err := protocol.DecodeVLQUint8(data)
	if err != nil {
		return err
	}
	speed, err := protocol.DecodeVLQUint8(data)
	if err != nil {
		return err
	}
	levels, err := protocol.DecodeVLQBytes(data)
	if err != nil {
		return err
	}

	if linkMux == nil {
		return nil
	}
	channels := make([]uint8, 0, dmx.ChannelFirstLED+len(levels))
	channels = append(channels, master, speed)
	channels = append(channels, levels...)
	linkMux.SetOverride(channels)
	RecordTiming(EvtOverrideSet, 0, 0, uint32(master), uint32(speed))
	return nil
}

func handleClearFrame(_ *[]byte) error {
	if linkMux != nil && linkMux.Overridden() {
		linkMux.ClearOverride()
		RecordTiming(EvtOverrideClear, 0, 0, 0, 0)
	}
	return nil
}

func handleDumpTiming(_ *[]byte) error {
	for _, evt := range TimingEvents() {
		evt := evt
		SendResponse("timing_event", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, uint32(evt.EventType))
			protocol.EncodeVLQUint(output, uint32(evt.Ticks))
			protocol.EncodeVLQUint(output, evt.Loop)
			protocol.EncodeVLQUint(output, evt.Value1)
			protocol.EncodeVLQUint(output, evt.Value2)
		})
	}
	DumpTimingRing()
	return nil
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
