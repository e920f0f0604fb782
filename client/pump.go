// Package client provides the canonical full-duplex usage of a split
// connection: a dedicated goroutine ingesting frames into an inbound channel
// and a second goroutine draining an outbound channel to the wire. Each half
// is owned by exactly one goroutine, so the pump needs no locks.
package client

import (
	"sync"

	"go.uber.org/zap"

	"github.com/jdelgadoalfonso/amqprs/frame"
	"github.com/jdelgadoalfonso/amqprs/transport"
)

// ChannelFrame pairs a frame with the channel it travels on.
type ChannelFrame struct {
	Channel uint16
	Frame   frame.Frame
}

const queueDepth = 64

// Pump drives a split connection. Received frames arrive on In; frames sent
// to Out are written in order. The first terminal error (a clean close
// included, as transport.ErrClosed) is delivered on Err.
//
// Callers must drain In until it is closed; the read loop blocks on delivery
// so that inbound frames are never dropped.
type Pump struct {
	reader *transport.Reader
	writer *transport.Writer
	in     chan ChannelFrame
	out    chan ChannelFrame
	errs   chan error
	wg     sync.WaitGroup
	logger *zap.Logger
}

// Start launches the reader and writer goroutines over the two halves of a
// split connection. A nil logger disables logging.
func Start(r *transport.Reader, w *transport.Writer, logger *zap.Logger) *Pump {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pump{
		reader: r,
		writer: w,
		in:     make(chan ChannelFrame, queueDepth),
		out:    make(chan ChannelFrame, queueDepth),
		errs:   make(chan error, 2),
		logger: logger,
	}
	p.wg.Add(2)
	go p.readLoop()
	go p.writeLoop()
	return p
}

// In delivers received frames. Closed once the stream ends or fails.
func (p *Pump) In() <-chan ChannelFrame { return p.in }

// Out accepts frames to send. Closed by Shutdown, never by the caller.
func (p *Pump) Out() chan<- ChannelFrame { return p.out }

// Err delivers the first terminal error of either loop.
func (p *Pump) Err() <-chan error { return p.errs }

func (p *Pump) readLoop() {
	defer p.wg.Done()
	defer close(p.in)
	for {
		channel, f, err := p.reader.ReadFrame()
		if err != nil {
			p.report(err)
			return
		}
		p.in <- ChannelFrame{Channel: channel, Frame: f}
	}
}

func (p *Pump) writeLoop() {
	defer p.wg.Done()
	for cf := range p.out {
		if _, err := p.writer.WriteFrame(cf.Channel, cf.Frame); err != nil {
			p.report(err)
			// best-effort half-close so the read loop still reaches stream
			// end when only the write direction has failed
			_ = p.writer.Close()
			return
		}
	}
	// outbound queue closed: orderly half-close so the peer sees stream end
	if err := p.writer.Close(); err != nil {
		p.report(err)
	}
}

func (p *Pump) report(err error) {
	select {
	case p.errs <- err:
	default:
	}
}

// Shutdown closes the outbound queue, which half-closes the writer once the
// queue is drained, waits for the reader to reach stream end, and releases
// the connection. The caller must keep draining In until it closes.
func (p *Pump) Shutdown() error {
	close(p.out)
	p.wg.Wait()
	p.logger.Debug("pump stopped")
	return p.reader.Close()
}
