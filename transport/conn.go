// Package transport turns a raw TCP stream into a sequence of
// length-delimited, channel-multiplexed AMQP frames. A Conn can be split into
// a Reader half and a Writer half that are owned and driven by different
// goroutines with no further coordination: each half exclusively owns its
// stream direction and its scratch buffer.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jdelgadoalfonso/amqprs/frame"
)

// DefaultBufferSize is the initial capacity of each half's scratch buffer,
// sized to amortize reallocation for typical frames. It does not bound frame
// size; buffers grow as needed.
const DefaultBufferSize = 8192

var byteOrder = binary.BigEndian

// readStream is the reader half's view of the socket: inbound bytes plus the
// final release of the connection.
type readStream interface {
	io.Reader
	Close() error
}

// writeStream is the writer half's view of the socket: outbound bytes plus
// the orderly half-close.
type writeStream interface {
	io.Writer
	CloseWrite() error
}

// Conn is a connection carrying AMQP frames. It composes a Reader and a
// Writer and forwards to them, so callers see identical read/write
// operations before and after Split.
type Conn struct {
	reader *Reader
	writer *Writer
}

// Open connects to addr (host:port) and allocates the two buffered halves.
// A nil logger disables frame tracing; otherwise trace events are tagged
// with a per-connection id.
func Open(addr string, logger *zap.Logger) (*Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("conn_id", uuid.NewString()))

	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", addr, err)
	}
	tcp := c.(*net.TCPConn)
	return &Conn{
		reader: newReader(tcp, logger),
		writer: newWriter(tcp, logger),
	}, nil
}

// Split decomposes the connection into its two halves so each can be driven
// by its own goroutine. The Conn must not be used afterwards: the halves are
// the sole owners of their stream direction and buffer.
func (c *Conn) Split() (*Reader, *Writer) {
	r, w := c.reader, c.writer
	c.reader, c.writer = nil, nil
	return r, w
}

// Close shuts down the write direction, telling the peer no more data is
// coming, then releases the read half. Any in-flight response can still be
// read by the peer before it closes its end.
func (c *Conn) Close() error {
	err := c.writer.Close()
	if cerr := c.reader.Close(); err == nil {
		err = cerr
	}
	return err
}

// Write forwards to the writer half. See Writer.Write.
func (c *Conn) Write(v BinaryAppender) (int, error) {
	return c.writer.Write(v)
}

// WriteFrame forwards to the writer half. See Writer.WriteFrame.
func (c *Conn) WriteFrame(channel uint16, f frame.Frame) (int, error) {
	return c.writer.WriteFrame(channel, f)
}

// ReadFrame forwards to the reader half. See Reader.ReadFrame.
func (c *Conn) ReadFrame() (uint16, frame.Frame, error) {
	return c.reader.ReadFrame()
}
