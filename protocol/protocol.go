// Package protocol implements the framed serial link between the LED driver
// firmware and a host: message blocks with CRC16 trailers, VLQ-encoded
// arguments, and the device and host ends of the transport.
package protocol

// Version is the link protocol version reported in the dictionary
const Version = "0.1.0"

// MessageMax is the size of a scratch output buffer. Large enough for several
// blocks queued between two USB writes.
const MessageMax = 512
