package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrClosed           = errors.New("transport closed")
	ErrSequenceMismatch = errors.New("sequence mismatch")
)

// HostTransport is the host end of the link. Each command block waits for
// the device ACK before the next one is sent.
type HostTransport struct {
	port io.ReadWriteCloser

	seq    atomic.Uint32
	synced atomic.Bool

	input   *FifoBuffer
	acks    chan *Message
	replies chan *Message

	sendMu sync.Mutex // one outstanding block at a time
	readMu sync.Mutex

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts reading from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:    port,
		input:   NewFifoBuffer(MessageMax),
		acks:    make(chan *Message, 1),
		replies: make(chan *Message, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	t.seq.Store(MessageDest)
	t.synced.Store(true)

	go t.readLoop()
	return t
}

// SendCommand writes one command block and waits for its ACK
func (t *HostTransport) SendCommand(ctx context.Context, cmdID uint16, args func(output OutputBuffer)) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	seq := uint8(t.seq.Load())
	scratch := NewScratchOutput()
	err := EncodeBlock(scratch, seq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
	if err != nil {
		return fmt.Errorf("encode command %d: %w", cmdID, err)
	}

	block := scratch.Result()
	n, err := t.port.Write(block)
	if err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	}
	if n != len(block) {
		return fmt.Errorf("write command %d: short write %d/%d", cmdID, n, len(block))
	}

	return t.waitForAck(ctx, seq)
}

func (t *HostTransport) waitForAck(ctx context.Context, sent uint8) error {
	expected := NextSequence(sent)
	select {
	case ack := <-t.acks:
		if ack.Sequence != expected {
			return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrSequenceMismatch, expected, ack.Sequence)
		}
		t.seq.Store(uint32(expected))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for ack: %w", ctx.Err())
	case <-t.stop:
		return ErrClosed
	}
}

// ReceiveResponse returns the next response block
func (t *HostTransport) ReceiveResponse(ctx context.Context) (*Message, error) {
	select {
	case msg := <-t.replies:
		return msg, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for response: %w", ctx.Err())
	case <-t.stop:
		return nil, ErrClosed
	}
}

// DrainResponses returns every response already received without waiting
func (t *HostTransport) DrainResponses() []*Message {
	var msgs []*Message
	for {
		select {
		case msg := <-t.replies:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	buf := make([]byte, 256)
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			t.processInput(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) processInput(chunk []byte) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	t.input.Write(chunk)
	data := t.input.Data()
	for len(data) > 0 {
		if !t.synced.Load() {
			rest, found := skipToSync(data)
			data = rest
			if found {
				t.synced.Store(true)
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
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

		// payload aliases the fifo
		msg.Payload = append([]byte(nil), msg.Payload...)
		t.dispatch(msg)
	}

	if consumed := t.input.Available() - len(data); consumed > 0 {
		t.input.Pop(consumed)
	}
}

func (t *HostTransport) dispatch(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.acks <- msg:
		default:
		}
		return
	}

	select {
	case t.replies <- msg:
	default:
		// drop the oldest unread response
		select {
		case <-t.replies:
		default:
		}
		t.replies <- msg
	}
}

// Close closes the port and waits for the read goroutine to exit
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.done
	})
	return err
}

// Reset restarts the sequence and discards anything queued. The device
// reads the next block, sent with the first sequence, as a new session.
func (t *HostTransport) Reset() {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	t.readMu.Lock()
	defer t.readMu.Unlock()

	t.synced.Store(true)
	t.seq.Store(MessageDest)
	for len(t.acks) > 0 {
		<-t.acks
	}
	for len(t.replies) > 0 {
		<-t.replies
	}
	t.input.Reset()
}

// Sequence returns the sequence the next command will carry
func (t *HostTransport) Sequence() uint8 {
	return uint8(t.seq.Load())
}
