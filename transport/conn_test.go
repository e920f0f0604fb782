package transport

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdelgadoalfonso/amqprs/frame"
)

func TestConn_ProtocolHeaderThenFrames(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var header [8]byte
	var serverErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc, err := ln.Accept()
		if err != nil {
			serverErr = err
			return
		}
		defer sc.Close()
		if _, err := io.ReadFull(sc, header[:]); err != nil {
			serverErr = err
			return
		}
		_, serverErr = sc.Write(wireFrame(t, 0, frame.Heartbeat{}))
	}()

	conn, err := Open(ln.Addr().String(), nil)
	require.NoError(t, err)

	n, err := conn.Write(frame.DefaultProtocolHeader())
	require.NoError(t, err)
	require.Equal(t, 8, n)

	channel, f, err := conn.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, uint16(0), channel)
	require.IsType(t, frame.Heartbeat{}, f)

	// server closed after the heartbeat with nothing buffered: clean close
	_, _, err = conn.ReadFrame()
	require.ErrorIs(t, err, ErrClosed)

	require.NoError(t, conn.Close())
	wg.Wait()
	require.NoError(t, serverErr)
	require.True(t, bytes.Equal(header[:], []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}))
}

func TestConn_InterruptedClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	wire := wireFrame(t, 1, frame.ContentBody{Data: []byte("truncated")})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = sc.Write(wire[:len(wire)-3])
		sc.Close()
	}()

	conn, err := Open(ln.Addr().String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadFrame()
	require.ErrorIs(t, err, ErrInterrupted)
	wg.Wait()
}

func TestSplit_HalfIndependence(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// echo server: client frames come straight back; copy ends on the
	// client's half-close, then the server closes its end
	go func() {
		sc, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = io.Copy(sc, sc)
		sc.Close()
	}()

	conn, err := Open(ln.Addr().String(), nil)
	require.NoError(t, err)
	reader, writer := conn.Split()
	defer reader.Close()

	const total = 50
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			_, err := writer.WriteFrame(uint16(i), frame.Method{ClassID: 10, MethodID: uint16(i), Arguments: []byte("ping")})
			if err != nil {
				t.Error(err)
				return
			}
		}
		if err := writer.Close(); err != nil {
			t.Error(err)
		}
	}()

	for i := 0; i < total; i++ {
		channel, f, err := reader.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, uint16(i), channel)
		m, ok := f.(frame.Method)
		require.True(t, ok)
		require.Equal(t, uint16(i), m.MethodID)
	}
	_, _, err = reader.ReadFrame()
	require.ErrorIs(t, err, ErrClosed)
	wg.Wait()
}

func TestConn_Close_SignalsPeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		sc, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer sc.Close()
		_, err = io.ReadAll(sc) // returns on the client's shutdown
		done <- err
	}()

	conn, err := Open(ln.Addr().String(), nil)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, <-done)
}

func TestOpen_InvalidAddr(t *testing.T) {
	if _, err := Open("invalid:addr:here", nil); err == nil {
		t.Fatal("expected error for invalid address")
	}
}
