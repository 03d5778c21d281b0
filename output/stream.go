package output

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"dmxled/protocol"
)

// StreamDriver writes every frame as a framed led_state block, using the
// same block format as the link. A visualiser on the other end decodes them
// with protocol.ParseBlock.
type StreamDriver struct {
	mu       sync.Mutex
	w        io.Writer
	cmdID    uint16
	seq      uint8
	channels int
	last     []uint8

	// OnlyChanges suppresses frames identical to the previous one
	OnlyChanges bool
}

// NewStreamDriver creates a stream writing led_state blocks with the given
// response ID
func NewStreamDriver(w io.Writer, cmdID uint16) *StreamDriver {
	return &StreamDriver{
		w:     w,
		cmdID: cmdID,
		seq:   protocol.MessageDest,
	}
}

// Configure sets the channel count. A block carries at most
// MaxStreamChannels levels.
func (s *StreamDriver) Configure(channels int) error {
	if channels > MaxStreamChannels {
		return fmt.Errorf("%w: %d > %d", ErrTooManyChannels, channels, MaxStreamChannels)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = channels
	s.last = nil
	return nil
}

// MaxStreamChannels fits one led_state block within the maximum block length
const MaxStreamChannels = protocol.MessageLengthMax - protocol.MessageLengthMin - 4

// Write encodes levels as one block
func (s *StreamDriver) Write(levels []uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channels == 0 {
		return ErrNotConfigured
	}
	if len(levels) > s.channels {
		levels = levels[:s.channels]
	}
	if s.OnlyChanges && s.last != nil && bytes.Equal(levels, s.last) {
		return nil
	}

	out := protocol.NewScratchOutput()
	err := protocol.EncodeBlock(out, s.seq, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, uint32(s.cmdID))
		protocol.EncodeVLQBytes(o, levels)
	})
	if err != nil {
		return err
	}
	if _, err := s.w.Write(out.Result()); err != nil {
		return fmt.Errorf("write led_state: %w", err)
	}

	s.seq = protocol.NextSequence(s.seq)
	s.last = append(s.last[:0], levels...)
	return nil
}

// MaxValue returns 255; levels are sent unscaled
func (s *StreamDriver) MaxValue() uint32 {
	return 255
}

// DecodeLEDState extracts the levels from a led_state block payload
func DecodeLEDState(payload []byte, cmdID uint16) ([]uint8, error) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	if uint16(id) != cmdID {
		return nil, fmt.Errorf("unexpected message id %d", id)
	}
	return protocol.DecodeVLQBytes(&payload)
}
