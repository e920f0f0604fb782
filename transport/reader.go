package transport

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jdelgadoalfonso/amqprs/frame"
)

// Reader owns the inbound stream direction and a growable scratch buffer.
// After every decoded frame the buffer holds exactly the unconsumed trailing
// bytes, so over-reads carry into the next ReadFrame and no byte is consumed
// twice or dropped.
//
// A Reader must be driven by a single goroutine.
type Reader struct {
	stream readStream
	buffer []byte
	logger *zap.Logger
}

func newReader(stream readStream, logger *zap.Logger) *Reader {
	return &Reader{
		stream: stream,
		buffer: make([]byte, 0, DefaultBufferSize),
		logger: logger,
	}
}

// decode attempts to parse one frame from the buffered bytes. A nil frame
// with nil error means more bytes are needed; the buffer is untouched.
func (r *Reader) decode() (uint16, frame.Frame, error) {
	consumed, channel, f, err := frame.Decode(r.buffer)
	if err != nil {
		return 0, nil, err
	}
	if f == nil {
		return 0, nil, nil
	}
	r.buffer = r.buffer[:copy(r.buffer, r.buffer[consumed:])]
	r.logger.Debug("received frame",
		zap.Uint16("channel", channel),
		zap.Uint8("frame_type", f.FrameType()),
		zap.Int("bytes", consumed))
	return channel, f, nil
}

// ReadFrame returns the next complete frame and the channel it arrived on.
// Bytes buffered by a previous over-read are decoded first without touching
// the stream; otherwise it reads until a complete frame is present.
//
// The stream ending on a frame boundary (empty buffer) returns ErrClosed;
// ending with a partial frame buffered returns ErrInterrupted. A decode
// failure is fatal to the stream: frame alignment cannot be trusted
// afterwards and the caller must reconnect.
func (r *Reader) ReadFrame() (uint16, frame.Frame, error) {
	if channel, f, err := r.decode(); err != nil || f != nil {
		return channel, f, err
	}
	for {
		n, err := r.fill()
		if n > 0 {
			r.logger.Debug("read from network", zap.Int("bytes", n))
			if channel, f, derr := r.decode(); derr != nil || f != nil {
				return channel, f, derr
			}
			continue
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			if len(r.buffer) == 0 {
				return 0, nil, ErrClosed
			}
			return 0, nil, ErrInterrupted
		default:
			return 0, nil, fmt.Errorf("transport: read: %w", err)
		}
	}
}

// fill reads once from the stream into the buffer's spare capacity, growing
// the buffer when it is full.
func (r *Reader) fill() (int, error) {
	if len(r.buffer) == cap(r.buffer) {
		grown := make([]byte, len(r.buffer), 2*cap(r.buffer))
		copy(grown, r.buffer)
		r.buffer = grown
	}
	n, err := r.stream.Read(r.buffer[len(r.buffer):cap(r.buffer)])
	r.buffer = r.buffer[:len(r.buffer)+n]
	return n, err
}

// Close releases the connection. In a graceful shutdown the reader is the
// last half standing (half-close the writer, drain reads to stream end), so
// closing it tears down the socket.
func (r *Reader) Close() error {
	return r.stream.Close()
}
