package protocol

import (
	"errors"
	"sync/atomic"
)

// CommandHandler dispatches one decoded command. It must consume the
// command's arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the device end of the link. It validates incoming blocks,
// dispatches their commands in order and answers every block with an ACK
// carrying the next expected sequence.
type Transport struct {
	synced  atomic.Bool
	nextSeq atomic.Uint32 // expected host sequence, 0x10-0x1F

	output  OutputBuffer
	handler CommandHandler

	resetCallback func()
	flushCallback func()
}

// NewTransport creates a synchronised transport writing to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		output:  output,
		handler: handler,
	}
	t.synced.Store(true)
	t.nextSeq.Store(MessageDest)
	return t
}

// Receive consumes every complete block in input. Partial blocks are left
// in place for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.synced.Load() {
			rest, found := skipToSync(data)
			data = rest
			if found {
				t.synced.Store(true)
				t.encodeAck()
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) > MessagePositionSeq && data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
			t.synced.Store(false)
			continue
		}

		msg, n, err := ParseBlock(data)
		if errors.Is(err, ErrIncomplete) {
			break
		}
		if err != nil {
			t.synced.Store(false)
			continue
		}
		data = data[n:]

		expected := uint8(t.nextSeq.Load())
		if msg.Sequence == MessageDest && expected != MessageDest {
			// host restarted its sequence
			t.nextSeq.Store(MessageDest)
			expected = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if msg.Sequence == expected {
			t.nextSeq.Store(uint32(NextSequence(expected)))
			_ = t.dispatch(msg.Payload)
		}
		// a stale sequence gets the same ACK, which the host reads as a NAK
		t.encodeAck()
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

func (t *Transport) dispatch(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.synced.Store(false)
			err = ErrBadBlock
		}
	}()

	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.synced.Store(false)
			return err
		}
		if t.handler == nil {
			continue
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			return err
		}
	}
	return nil
}

// encodeAck writes an empty block with the next expected sequence after
// the responses of the block it answers, and flushes them all.
func (t *Transport) encodeAck() {
	_ = t.encode(nil)
	t.flush()
}

// encode writes one block. When output is full it is flushed and the block
// written again, so a long run of responses never costs the ACK.
func (t *Transport) encode(frameData func(output OutputBuffer)) error {
	err := EncodeBlock(t.output, uint8(t.nextSeq.Load()), frameData)
	if errors.Is(err, ErrOutputFull) && t.flushCallback != nil {
		t.flushCallback()
		err = EncodeBlock(t.output, uint8(t.nextSeq.Load()), frameData)
	}
	return err
}

// EncodeFrame writes one response block. Responses carry the sequence of
// the ACK that follows them.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) error {
	return t.encode(frameData)
}

// flush pushes pending output through the flush callback, if one is set
func (t *Transport) flush() {
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// SendCommand writes a response block holding a single command
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns to the power-on state, e.g. after a USB reconnect
func (t *Transport) Reset() {
	t.synced.Store(true)
	t.nextSeq.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// Synchronized reports whether the receiver is aligned on block boundaries
func (t *Transport) Synchronized() bool {
	return t.synced.Load()
}

// SetResetCallback sets the function run when the host restarts its sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets the function that writes the output buffer to the
// host and empties it. It runs after every ACK and whenever output fills up.
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
