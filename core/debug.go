package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a strobe event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Ticks     uint8  // Tick counter when the event happened
	Loop      uint32 // Control loop iteration
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStrobeArm     = 1 // strobe speed went from 0 to nonzero
	EvtFlashOn       = 2 // off time elapsed, flash lit (v1=speed, v2=off ticks)
	EvtFlashOff      = 3 // on time elapsed, flash dark (v1=speed)
	EvtStrobeDisarm  = 4 // strobe speed went back to 0
	EvtOverrideSet   = 5 // bench frame override installed (v1=master, v2=speed)
	EvtOverrideClear = 6 // bench frame override removed
	EvtOutputError   = 7 // LED driver write failed
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8        // Next write position
	timingEnabled  bool  = true // Always capture timing events

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Blocks on the writer; use DebugAsync from the control loop.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message and returns immediately.
// The message is dropped if the queue is full.
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordTiming captures an event in the ring buffer. Never blocks.
func RecordTiming(eventType, ticks uint8, loop, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Ticks:     ticks,
		Loop:      loop,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events, oldest first
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns a short label for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtStrobeArm:
		return "STROBE_ARM"
	case EvtFlashOn:
		return "FLASH_ON"
	case EvtFlashOff:
		return "FLASH_OFF"
	case EvtStrobeDisarm:
		return "STROBE_DISARM"
	case EvtOverrideSet:
		return "OVERRIDE_SET"
	case EvtOverrideClear:
		return "OVERRIDE_CLR"
	case EvtOutputError:
		return "OUTPUT_ERR!"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing writes the ring buffer through the debug writer
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + EventName(evt.EventType) +
			" ticks=" + utoa(uint32(evt.Ticks)) +
			" loop=" + utoa(evt.Loop) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
