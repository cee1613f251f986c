package ipc

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ipclink/ipclink/pkg/codec"
	"github.com/ipclink/ipclink/pkg/frame"
	"github.com/ipclink/ipclink/pkg/metrics"
)

// Conn is a message-framed connection over one raw stream. Both ends of a
// Listener/Dial pair hold a Conn with an identical contract regardless of
// the transport underneath.
//
// Send and Recv each serialize internally, so one Conn may be shared across
// goroutines; a single logical request/response exchange still needs
// caller-side coordination.
type Conn struct {
	nc     net.Conn
	codec  codec.Codec
	reader *frame.Reader
	max    uint32

	sendMu sync.Mutex
	recvMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established raw stream. Listen and Dial do this for
// every connection they hand out; exposing it lets tests and custom
// transports reuse the framed contract.
func NewConn(nc net.Conn, opts ...Option) (*Conn, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return newConn(nc, o), nil
}

func newConn(nc net.Conn, o *options) *Conn {
	return &Conn{
		nc:     nc,
		codec:  o.codec,
		reader: frame.NewReader(nc, o.maxFrameSize),
		max:    o.maxFrameSize,
	}
}

// Send serializes v with the connection's codec and writes it as one frame.
func (c *Conn) Send(v any) error {
	data, err := c.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", c.codec.Name(), err)
	}
	return c.SendBytes(data)
}

// Recv blocks for one frame and decodes it into v. A malformed payload
// yields a *DeserializationError and leaves the connection usable.
func (c *Conn) Recv(v any) error {
	data, err := c.RecvBytes()
	if err != nil {
		return err
	}
	if err := c.codec.Decode(data, v); err != nil {
		return &DeserializationError{Codec: c.codec.Name(), Err: err}
	}
	return nil
}

// SendBytes writes one frame with b as its verbatim payload.
func (c *Conn) SendBytes(b []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := frame.Write(c.nc, b, c.max); err != nil {
		return err
	}
	metrics.FramesSent.Inc()
	metrics.BytesSent.Add(float64(len(b)))
	return nil
}

// RecvBytes blocks for one frame and returns its payload verbatim.
func (c *Conn) RecvBytes() ([]byte, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	return c.nextFrame()
}

// RecvBytesInto blocks for one frame and copies its payload into
// buf[off:], returning the byte count copied. A payload that does not fit
// is still consumed from the stream and comes back inside a
// *frame.BufferTooShortError, so the connection stays synchronized and the
// caller can retry with a larger buffer without losing the data.
func (c *Conn) RecvBytesInto(buf []byte, off int) (int, error) {
	if off < 0 || off > len(buf) {
		return 0, fmt.Errorf("offset %d outside buffer of %d bytes", off, len(buf))
	}

	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	payload, err := c.nextFrame()
	if err != nil {
		return 0, err
	}
	if len(payload) > len(buf)-off {
		return 0, &frame.BufferTooShortError{Payload: payload}
	}
	return copy(buf[off:], payload), nil
}

// Poll reports whether a complete frame is available within timeout,
// without consuming it. A non-positive timeout checks and returns
// immediately. Partial frame progress made during a Poll is kept, so
// interleaving Poll and Recv never desynchronizes the stream.
func (c *Conn) Poll(timeout time.Duration) (bool, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	if c.reader.Ready() {
		return true, nil
	}

	deadline := time.Now()
	if timeout > 0 {
		deadline = deadline.Add(timeout)
	}
	if err := c.nc.SetReadDeadline(deadline); err != nil {
		return false, err
	}
	done, err := c.reader.Fill()
	if derr := c.nc.SetReadDeadline(time.Time{}); derr != nil && err == nil {
		err = derr
	}
	return done, err
}

// Close closes the underlying stream exactly once. Any operation blocked on
// the connection returns promptly with frame.ErrConnClosed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

func (c *Conn) LocalAddr() net.Addr  { return c.nc.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

func (c *Conn) nextFrame() ([]byte, error) {
	payload, err := c.reader.Next()
	if err != nil {
		return nil, err
	}
	metrics.FramesReceived.Inc()
	metrics.BytesReceived.Add(float64(len(payload)))
	return payload, nil
}
