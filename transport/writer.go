package transport

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jdelgadoalfonso/amqprs/frame"
)

// BinaryAppender is implemented by values that serialize themselves by
// appending their encoding to a buffer. Used for the raw, unframed bytes
// exchanged before framing begins (frame.ProtocolHeader).
type BinaryAppender interface {
	AppendBinary(dst []byte) ([]byte, error)
}

// Writer owns the outbound stream direction and a growable scratch buffer.
// The buffer is empty at the start of every write: each successful write
// drains it completely, and a failed flush poisons the writer instead of
// leaving a half-sent buffer to be retried. This emptiness is what makes the
// frame-size patch at a fixed offset correct.
//
// A Writer must be driven by a single goroutine.
type Writer struct {
	stream writeStream
	buffer []byte
	failed bool
	logger *zap.Logger
}

func newWriter(stream writeStream, logger *zap.Logger) *Writer {
	return &Writer{
		stream: stream,
		buffer: make([]byte, 0, DefaultBufferSize),
		logger: logger,
	}
}

// Write serializes v into the buffer without framing and flushes it. Returns
// the number of bytes written to the stream.
func (w *Writer) Write(v BinaryAppender) (int, error) {
	if w.failed {
		return 0, ErrWriterFailed
	}
	buf, err := v.AppendBinary(w.buffer)
	if err != nil {
		w.buffer = w.buffer[:0]
		return 0, fmt.Errorf("transport: serialize: %w", err)
	}
	w.buffer = buf
	return w.flush()
}

// WriteFrame sends one frame on the given channel as a single flush: header
// with a zero size placeholder, payload, the size patched in place, the end
// octet, then the whole buffer in one stream write. On success the peer
// receives a structurally valid frame whose size field matches its payload;
// partial frames are never flushed.
func (w *Writer) WriteFrame(channel uint16, f frame.Frame) (int, error) {
	if w.failed {
		return 0, ErrWriterFailed
	}
	w.buffer = frame.AppendHeader(w.buffer, f.FrameType(), channel, 0)
	buf, err := f.AppendPayload(w.buffer)
	if err != nil {
		w.buffer = w.buffer[:0]
		return 0, fmt.Errorf("transport: encode payload: %w", err)
	}
	w.buffer = buf

	size := len(w.buffer) - frame.HeaderSize
	if size > frame.MaxFrameSize {
		w.buffer = w.buffer[:0]
		return 0, frame.ErrFrameTooLarge
	}
	// patch the size field written as zero above; valid because the buffer
	// held nothing before this write began
	byteOrder.PutUint32(w.buffer[3:7], uint32(size))
	w.buffer = append(w.buffer, frame.End)

	n, err := w.flush()
	if err != nil {
		return n, err
	}
	w.logger.Debug("sent frame",
		zap.Uint16("channel", channel),
		zap.Uint8("frame_type", f.FrameType()),
		zap.Int("bytes", n))
	return n, nil
}

// flush writes the whole buffer to the stream and drains it. On error the
// buffer stays un-drained and the writer is poisoned: some prefix of it may
// already be on the wire, so resending would corrupt the stream.
func (w *Writer) flush() (int, error) {
	n := len(w.buffer)
	if _, err := w.stream.Write(w.buffer); err != nil {
		w.failed = true
		return 0, fmt.Errorf("transport: write: %w", err)
	}
	w.buffer = w.buffer[:0]
	return n, nil
}

// Close shuts down the write direction, signalling an orderly close to the
// peer while leaving the read direction open for in-flight frames.
func (w *Writer) Close() error {
	if err := w.stream.CloseWrite(); err != nil {
		return fmt.Errorf("transport: shutdown: %w", err)
	}
	return nil
}
