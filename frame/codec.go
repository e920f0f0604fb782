package frame

import "fmt"

// AppendHeader appends the 7-byte frame header to dst. The writer first
// appends a header with size zero, then patches the size field once the
// payload length is known.
func AppendHeader(dst []byte, typ uint8, channel uint16, size uint32) []byte {
	dst = append(dst, typ)
	dst = byteOrder.AppendUint16(dst, channel)
	return byteOrder.AppendUint32(dst, size)
}

// Decode parses exactly one frame from the front of buf. It returns the
// number of bytes consumed, the channel the frame arrived on, and the frame.
// When buf does not yet hold a complete frame it returns (0, 0, nil, nil)
// without consuming anything. Structurally invalid bytes return an error
// wrapping ErrCorrupted; the buffer's frame alignment cannot be trusted
// afterwards.
func Decode(buf []byte) (consumed int, channel uint16, f Frame, err error) {
	if len(buf) < HeaderSize {
		return 0, 0, nil, nil
	}
	typ := buf[0]
	channel = byteOrder.Uint16(buf[1:3])
	size := byteOrder.Uint32(buf[3:7])
	if size > MaxFrameSize {
		return 0, 0, nil, errCorruptedf("payload size %d exceeds %d", size, MaxFrameSize)
	}
	total := HeaderSize + int(size) + 1
	if len(buf) < total {
		return 0, 0, nil, nil
	}
	if buf[total-1] != End {
		return 0, 0, nil, errCorruptedf("bad frame-end octet 0x%02x", buf[total-1])
	}
	payload := buf[HeaderSize : HeaderSize+int(size)]

	switch typ {
	case TypeMethod:
		if len(payload) < 4 {
			return 0, 0, nil, errCorruptedf("method payload too short: %d bytes", len(payload))
		}
		f = Method{
			ClassID:   byteOrder.Uint16(payload[0:2]),
			MethodID:  byteOrder.Uint16(payload[2:4]),
			Arguments: cloneBytes(payload[4:]),
		}
	case TypeContentHeader:
		if len(payload) < 14 {
			return 0, 0, nil, errCorruptedf("content header payload too short: %d bytes", len(payload))
		}
		f = ContentHeader{
			ClassID:       byteOrder.Uint16(payload[0:2]),
			Weight:        byteOrder.Uint16(payload[2:4]),
			BodySize:      byteOrder.Uint64(payload[4:12]),
			PropertyFlags: byteOrder.Uint16(payload[12:14]),
			Properties:    cloneBytes(payload[14:]),
		}
	case TypeContentBody:
		f = ContentBody{Data: cloneBytes(payload)}
	case TypeHeartbeat:
		if size != 0 {
			return 0, 0, nil, errCorruptedf("heartbeat with %d payload bytes", size)
		}
		f = Heartbeat{}
	default:
		return 0, 0, nil, errCorruptedf("unknown frame type %d", typ)
	}
	return total, channel, f, nil
}

// cloneBytes copies payload slices out of the read buffer, which the reader
// reuses for the next frame.
func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func errCorruptedf(format string, args ...any) error {
	return fmt.Errorf("frame: %s: %w", fmt.Sprintf(format, args...), ErrCorrupted)
}
