// Package link talks to LED driver firmware over the framed serial protocol:
// it downloads the command dictionary and then drives the bench commands
// by name.
package link

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"dmxled/host/serial"
	"dmxled/protocol"
)

// IDs fixed before the dictionary is known
const (
	identifyResponseID = 0
	identifyID         = 1

	identifyChunk = 40
)

var (
	ErrNotConnected    = errors.New("link: not connected")
	ErrNoDictionary    = errors.New("link: dictionary not loaded")
	ErrUnknownCommand  = errors.New("link: unknown command")
	ErrUnexpectedReply = errors.New("link: unexpected response")
)

// Dictionary is the firmware self-description
type Dictionary struct {
	Version       string            `json:"version"`
	BuildVersions string            `json:"build_versions"`
	Config        map[string]string `json:"config"`
	Commands      map[string]int    `json:"commands"`
	Responses     map[string]int    `json:"responses"`
}

// lookup finds an entry by its bare name, ignoring the argument format
func lookup(entries map[string]int, name string) (uint16, bool) {
	for sig, id := range entries {
		if sig == name || strings.HasPrefix(sig, name+" ") {
			return uint16(id), true
		}
	}
	return 0, false
}

// Device is a connection to one LED driver
type Device struct {
	logger    *zap.Logger
	transport *protocol.HostTransport

	mu         sync.Mutex
	dictionary *Dictionary
	timeout    time.Duration
}

// New wraps an already open port, e.g. a pipe in tests
func New(port io.ReadWriteCloser, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Device{
		logger:    logger,
		transport: protocol.NewHostTransport(port),
		timeout:   time.Second,
	}
}

// Connect opens the serial port described by cfg
func Connect(cfg *serial.Config, logger *zap.Logger) (*Device, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	d := New(port, logger)
	d.logger.Info("connected", zap.String("device", cfg.Device), zap.Int("baud", cfg.Baud))
	return d, nil
}

// SetTimeout bounds each command/response exchange
func (d *Device) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Close closes the transport and port
func (d *Device) Close() error {
	return d.transport.Close()
}

// RetrieveDictionary downloads and parses the dictionary with identify
func (d *Device) RetrieveDictionary(ctx context.Context) error {
	var buf bytes.Buffer
	for {
		chunk, err := d.identify(ctx, uint32(buf.Len()))
		if err != nil {
			return fmt.Errorf("dictionary chunk at %d: %w", buf.Len(), err)
		}
		buf.Write(chunk)
		if len(chunk) < identifyChunk {
			break
		}
	}

	dict := &Dictionary{}
	if err := json.Unmarshal(buf.Bytes(), dict); err != nil {
		return fmt.Errorf("parse dictionary: %w", err)
	}

	d.mu.Lock()
	d.dictionary = dict
	d.mu.Unlock()

	d.logger.Info("dictionary loaded",
		zap.String("version", dict.Version),
		zap.Int("bytes", buf.Len()),
		zap.Int("commands", len(dict.Commands)),
		zap.Int("responses", len(dict.Responses)),
	)
	return nil
}

func (d *Device) identify(ctx context.Context, offset uint32) ([]byte, error) {
	payload, err := d.exchange(ctx, identifyID, identifyResponseID, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, offset)
		protocol.EncodeVLQUint(o, identifyChunk)
	})
	if err != nil {
		return nil, err
	}

	got, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	if got != offset {
		return nil, fmt.Errorf("%w: offset %d, expected %d", ErrUnexpectedReply, got, offset)
	}
	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// Dictionary returns the loaded dictionary, or nil
func (d *Device) Dictionary() *Dictionary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dictionary
}

// Constant returns a dictionary constant
func (d *Device) Constant(name string) (string, bool) {
	dict := d.Dictionary()
	if dict == nil {
		return "", false
	}
	v, ok := dict.Config[name]
	return v, ok
}

func (d *Device) ids(command, response string) (uint16, int, error) {
	dict := d.Dictionary()
	if dict == nil {
		return 0, 0, ErrNoDictionary
	}
	cmdID, ok := lookup(dict.Commands, command)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	if response == "" {
		return cmdID, -1, nil
	}
	respID, ok := lookup(dict.Responses, response)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownCommand, response)
	}
	return cmdID, int(respID), nil
}

// Send sends a command by name without waiting for a response
func (d *Device) Send(ctx context.Context, name string, args func(o protocol.OutputBuffer)) error {
	cmdID, _, err := d.ids(name, "")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.send(ctx, cmdID, args)
}

// send writes one command block. Without its ACK the host cannot tell
// whether the device ran the block, so the sequence is restarted and the
// next block opens a new session on the device.
func (d *Device) send(ctx context.Context, cmdID uint16, args func(o protocol.OutputBuffer)) error {
	err := d.transport.SendCommand(ctx, cmdID, args)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, protocol.ErrSequenceMismatch) {
		d.logger.Warn("link out of step, restarting sequence",
			zap.Uint8("seq", d.transport.Sequence()),
			zap.Uint16("command", cmdID),
			zap.Error(err),
		)
		d.transport.Reset()
	}
	return err
}

// exchange sends cmdID and returns the arguments of the first response with
// respID. Other responses are logged and skipped.
func (d *Device) exchange(ctx context.Context, cmdID uint16, respID int, args func(o protocol.OutputBuffer)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.send(ctx, cmdID, args); err != nil {
		return nil, err
	}
	for {
		msg, err := d.transport.ReceiveResponse(ctx)
		if err != nil {
			return nil, err
		}
		payload := msg.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if int(id) == respID {
			return payload, nil
		}
		d.logger.Debug("skipping response", zap.Uint32("id", id), zap.Int("want", respID))
	}
}

// Request sends a command by name and waits for the named response
func (d *Device) Request(ctx context.Context, command, response string, args func(o protocol.OutputBuffer)) ([]byte, error) {
	cmdID, respID, err := d.ids(command, response)
	if err != nil {
		return nil, err
	}
	return d.exchange(ctx, cmdID, respID, args)
}
