package transport

import "errors"

var (
	// ErrClosed reports a clean close: the stream ended exactly on a frame
	// boundary. Expected after a deliberate shutdown, not a hard fault.
	ErrClosed = errors.New("transport: connection closed by peer")

	// ErrInterrupted reports the stream ending with a partial frame
	// buffered. Data was lost mid-frame.
	ErrInterrupted = errors.New("transport: connection interrupted mid-frame")

	// ErrWriterFailed reports a write attempted after an earlier flush
	// failure. The wire position is unknowable once a flush partially
	// completes, so the connection must be re-established.
	ErrWriterFailed = errors.New("transport: writer failed, connection must be re-established")
)
