package protocol

import "errors"

// Block layout: [len][seq][payload...][crc hi][crc lo][sync]
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	MessageSeqMask = 0x0F
)

var (
	ErrIncomplete = errors.New("incomplete block")
	ErrBadBlock   = errors.New("malformed block")
	ErrTooLong    = errors.New("block exceeds maximum length")
	ErrOutputFull = errors.New("output buffer full")
)

// Message is a parsed block
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // block data without header/trailer
	CRC      uint16
}

// EncodeBlock writes a complete block with the given sequence byte. payload
// may be nil for an ACK/NAK. A block that is too long or does not fit in
// output is removed again, so output only ever holds whole blocks.
func EncodeBlock(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) error {
	cursor := output.CurPosition()
	output.Output([]byte{0, seq})
	if payload != nil {
		payload(output)
	}

	length := len(output.DataSince(cursor)) + MessageTrailerSize
	if length > MessageLengthMax {
		output.Truncate(cursor)
		return ErrTooLong
	}
	output.Update(cursor+MessagePositionLen, uint8(length))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	if output.Overflowed() {
		output.Truncate(cursor)
		return ErrOutputFull
	}
	return nil
}

// ParseBlock parses one block at the start of data. It returns the message and
// the number of bytes it occupied, ErrIncomplete if more data is needed, or
// ErrBadBlock if the receiver should resynchronise. The payload aliases data.
func ParseBlock(data []byte) (*Message, int, error) {
	if len(data) < MessageLengthMin {
		return nil, 0, ErrIncomplete
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return nil, 0, ErrBadBlock
	}
	if len(data) < msgLen {
		return nil, 0, ErrIncomplete
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return nil, 0, ErrBadBlock
	}

	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return nil, 0, ErrBadBlock
	}

	return &Message{
		Length:   uint8(msgLen),
		Sequence: data[MessagePositionSeq],
		Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
		CRC:      frameCRC,
	}, msgLen, nil
}

// skipToSync returns data after the first sync byte, or nil if there is none
func skipToSync(data []byte) ([]byte, bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}

// NextSequence advances a sequence byte within the 0x10-0x1F window
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
