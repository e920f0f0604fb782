// Package frame implements AMQP 0-9-1 framing: the frame model, the wire
// codec, and the protocol header exchanged before framing begins.
//
// A frame on the wire is a 7-byte header (type, channel, payload size),
// the payload, and a fixed end octet:
//
//	octet 0      frame type    (1 byte)
//	octet 1..3   channel id    (2 bytes, big-endian)
//	octet 3..7   payload size  (4 bytes, big-endian)
//	octet 7..7+N payload       (N bytes)
//	octet 7+N    frame end     (0xCE)
//
// Method arguments and content properties are carried as opaque bytes; their
// field-level encoding belongs to the method layer above this package.
package frame

import (
	"encoding/binary"
)

// Frame type octets.
const (
	TypeMethod        uint8 = 1
	TypeContentHeader uint8 = 2
	TypeContentBody   uint8 = 3
	TypeHeartbeat     uint8 = 8
)

const (
	// HeaderSize is the fixed frame header length preceding the payload.
	HeaderSize = 7

	// End terminates every frame; the decoder rejects frames without it.
	End byte = 0xCE

	// MaxFrameSize caps the payload size accepted or produced. This is a
	// structural sanity limit against hostile length fields, not the
	// negotiated frame-max (tuning happens in the connection layer).
	MaxFrameSize = 64 * 1024 * 1024
)

var byteOrder = binary.BigEndian

// Frame is one delimited unit of protocol communication. Implementations
// serialize their payload by appending to the caller's buffer, which lets the
// writer encode header, payload, and end octet into one contiguous buffer.
type Frame interface {
	FrameType() uint8
	AppendPayload(dst []byte) ([]byte, error)
}

// Method carries a class method. The class and method ids are structural;
// the argument fields stay opaque at this layer.
type Method struct {
	ClassID   uint16
	MethodID  uint16
	Arguments []byte
}

func (m Method) FrameType() uint8 { return TypeMethod }

func (m Method) AppendPayload(dst []byte) ([]byte, error) {
	dst = byteOrder.AppendUint16(dst, m.ClassID)
	dst = byteOrder.AppendUint16(dst, m.MethodID)
	return append(dst, m.Arguments...), nil
}

// ContentHeader precedes the body frames of a content-bearing method.
// Properties stay opaque; PropertyFlags is kept structural so the layer above
// can tell which properties are present without re-parsing.
type ContentHeader struct {
	ClassID       uint16
	Weight        uint16
	BodySize      uint64
	PropertyFlags uint16
	Properties    []byte
}

func (h ContentHeader) FrameType() uint8 { return TypeContentHeader }

func (h ContentHeader) AppendPayload(dst []byte) ([]byte, error) {
	dst = byteOrder.AppendUint16(dst, h.ClassID)
	dst = byteOrder.AppendUint16(dst, h.Weight)
	dst = byteOrder.AppendUint64(dst, h.BodySize)
	dst = byteOrder.AppendUint16(dst, h.PropertyFlags)
	return append(dst, h.Properties...), nil
}

// ContentBody carries one chunk of message content.
type ContentBody struct {
	Data []byte
}

func (b ContentBody) FrameType() uint8 { return TypeContentBody }

func (b ContentBody) AppendPayload(dst []byte) ([]byte, error) {
	return append(dst, b.Data...), nil
}

// Heartbeat has an empty payload; a heartbeat with payload bytes is a
// protocol violation.
type Heartbeat struct{}

func (Heartbeat) FrameType() uint8 { return TypeHeartbeat }

func (Heartbeat) AppendPayload(dst []byte) ([]byte, error) { return dst, nil }

// ProtocolHeader is the 8 raw bytes a client sends before any framing:
// "AMQP" followed by the protocol version. It is written unframed, so it
// serializes through AppendBinary rather than the Frame interface.
type ProtocolHeader struct {
	Major    uint8
	Minor    uint8
	Revision uint8
}

// DefaultProtocolHeader announces AMQP 0-9-1.
func DefaultProtocolHeader() ProtocolHeader {
	return ProtocolHeader{Major: 0, Minor: 9, Revision: 1}
}

func (p ProtocolHeader) AppendBinary(dst []byte) ([]byte, error) {
	return append(dst, 'A', 'M', 'Q', 'P', 0, p.Major, p.Minor, p.Revision), nil
}
