//go:build !tinygo

package dmx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ArtNetPort is the UDP port Art-Net nodes listen on
const ArtNetPort = 6454

const (
	artNetHeaderSize = 18
	opArtDMX         = 0x5000
)

var (
	artNetID = []byte("Art-Net\x00")

	ErrNotArtDMX = errors.New("dmx: not an ArtDMX packet")
)

// ArtDMX is one decoded ArtDMX packet
type ArtDMX struct {
	Sequence uint8
	Universe uint16 // 15-bit port address: net, sub-net, universe
	Data     []byte // aliases the packet
}

// ParseArtDMX decodes an ArtDMX packet
func ParseArtDMX(packet []byte) (ArtDMX, error) {
	if len(packet) < artNetHeaderSize || !bytes.Equal(packet[:8], artNetID) {
		return ArtDMX{}, ErrNotArtDMX
	}
	// opcode is little endian, length big endian
	if op := uint16(packet[8]) | uint16(packet[9])<<8; op != opArtDMX {
		return ArtDMX{}, ErrNotArtDMX
	}

	length := int(packet[16])<<8 | int(packet[17])
	if length > UniverseSize || artNetHeaderSize+length > len(packet) {
		return ArtDMX{}, fmt.Errorf("%w: bad length %d", ErrNotArtDMX, length)
	}
	return ArtDMX{
		Sequence: packet[12],
		Universe: uint16(packet[14]) | uint16(packet[15]&0x7F)<<8,
		Data:     packet[artNetHeaderSize : artNetHeaderSize+length],
	}, nil
}

// BuildArtDMX encodes an ArtDMX packet for universe
func BuildArtDMX(seq uint8, universe uint16, data []byte) []byte {
	packet := make([]byte, artNetHeaderSize+len(data))
	copy(packet, artNetID)
	packet[8], packet[9] = 0x00, 0x50 // OpCode ArtDMX
	packet[10], packet[11] = 0x00, 14 // protocol version 14
	packet[12], packet[13] = seq, 0x00
	packet[14], packet[15] = byte(universe), byte(universe>>8)&0x7F
	packet[16], packet[17] = byte(len(data)>>8), byte(len(data))
	copy(packet[artNetHeaderSize:], data)
	return packet
}

// ArtNetReceiver feeds one Art-Net universe into a Buffer
type ArtNetReceiver struct {
	conn     net.PacketConn
	universe uint16
	buf      *Buffer

	// OnFrame, if set, is called after each stored frame
	OnFrame func(ArtDMX)
}

// ListenArtNet opens addr (e.g. ":6454") for universe
func ListenArtNet(addr string, universe uint16, buf *Buffer) (*ArtNetReceiver, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen art-net %s: %w", addr, err)
	}
	return NewArtNetReceiver(conn, universe, buf), nil
}

// NewArtNetReceiver wraps an open packet connection
func NewArtNetReceiver(conn net.PacketConn, universe uint16, buf *Buffer) *ArtNetReceiver {
	return &ArtNetReceiver{conn: conn, universe: universe, buf: buf}
}

// Addr returns the local address
func (r *ArtNetReceiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Run receives until ctx is done, then closes the connection
func (r *ArtNetReceiver) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	packet := make([]byte, 1024)
	var u Universe
	for {
		n, _, err := r.conn.ReadFrom(packet)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("art-net receive: %w", err)
		}

		frame, err := ParseArtDMX(packet[:n])
		if err != nil || frame.Universe != r.universe {
			continue
		}
		u = Universe{}
		copy(u[:], frame.Data)
		r.buf.Store(&u)
		if r.OnFrame != nil {
			r.OnFrame(frame)
		}
	}
}

// ArtNetSender sends one universe to a node
type ArtNetSender struct {
	conn     net.Conn
	universe uint16
	seq      uint8
}

// DialArtNet connects to a node at addr
func DialArtNet(addr string, universe uint16) (*ArtNetSender, error) {
	conn, err := net.DialTimeout("udp", addr, time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial art-net %s: %w", addr, err)
	}
	return &ArtNetSender{conn: conn, universe: universe, seq: 1}, nil
}

// Send transmits data as one ArtDMX packet. Sequence 0 means "unsequenced"
// and is skipped.
func (s *ArtNetSender) Send(data []byte) error {
	if len(data) > UniverseSize {
		return fmt.Errorf("dmx: %d channels exceed a universe", len(data))
	}
	if _, err := s.conn.Write(BuildArtDMX(s.seq, s.universe, data)); err != nil {
		return err
	}
	s.seq++
	if s.seq == 0 {
		s.seq = 1
	}
	return nil
}

// Close closes the socket
func (s *ArtNetSender) Close() error {
	return s.conn.Close()
}
