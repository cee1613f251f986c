package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ipclink/ipclink/pkg/address"
	"github.com/ipclink/ipclink/pkg/auth"
	"github.com/ipclink/ipclink/pkg/metrics"
	"github.com/ipclink/ipclink/pkg/transport"
)

// Listener accepts framed connections at one bound address. Its address is
// fixed at construction; LastAccepted tracks the most recent fully accepted
// peer.
type Listener struct {
	nl     net.Listener
	addr   address.Addr
	family address.Family
	opts   *options
	log    *zap.Logger

	mu           sync.Mutex
	closed       bool
	lastAccepted address.Addr
}

// Listen resolves addr (nil means "synthesize a default local endpoint"),
// binds the transport for its family and returns a listener. If an auth key
// is configured, every accepted connection completes the challenge
// handshake before it is returned by Accept.
func Listen(ctx context.Context, addr address.Addr, opts ...Option) (*Listener, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	resolved, family, err := address.Resolve(addr, o.family)
	if err != nil {
		return nil, err
	}

	tr, err := transport.ForFamily(family)
	if err != nil {
		return nil, err
	}

	nl, err := tr.Listen(ctx, resolved)
	if err != nil {
		return nil, err
	}

	// an ephemeral port only becomes concrete at bind time
	if family == address.TCP {
		if bound, ok := address.FromNetAddr(nl.Addr()); ok {
			resolved = bound
		}
	}

	l := &Listener{
		nl:     nl,
		addr:   resolved,
		family: family,
		opts:   o,
		log:    o.logger,
	}
	l.log.Debug("listening",
		zap.Stringer("family", family),
		zap.String("address", resolved.String()),
		zap.Bool("authenticated", o.authenticate),
	)
	return l, nil
}

// Addr returns the bound address. It never changes after Listen.
func (l *Listener) Addr() address.Addr { return l.addr }

// Family returns the resolved transport family.
func (l *Listener) Family() address.Family { return l.family }

// LastAccepted returns the peer address of the most recent fully accepted
// connection, or nil when none has been accepted yet or the transport
// cannot report one (named pipes).
func (l *Listener) LastAccepted() address.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastAccepted
}

// Accept blocks for the next connection, runs the challenger side of the
// handshake when authentication is enabled and returns the framed
// connection. A handshake failure closes the raw stream, leaves
// LastAccepted untouched and surfaces auth.ErrAuthFailed.
func (l *Listener) Accept() (*Conn, error) {
	nc, err := l.nl.Accept()
	if err != nil {
		if l.isClosed() || errors.Is(err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		return nil, err
	}

	if l.opts.authenticate {
		if err := auth.Challenge(nc, l.opts.authKey); err != nil {
			_ = nc.Close()
			metrics.HandshakeFailures.WithLabelValues("challenger").Inc()
			l.log.Warn("handshake failed", zap.String("remote", remoteString(nc)), zap.Error(err))
			return nil, err
		}
	}

	peer, _ := address.FromNetAddr(nc.RemoteAddr())
	l.mu.Lock()
	l.lastAccepted = peer
	l.mu.Unlock()

	metrics.ConnectionsAccepted.Inc()
	l.log.Debug("accepted", zap.String("remote", remoteString(nc)))
	return newConn(nc, l.opts), nil
}

// Close releases the listener. It is idempotent, causes an in-flight
// Accept to return ErrListenerClosed, and for unix sockets removes the
// bound filesystem path.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	err := l.nl.Close()
	if ua, ok := l.addr.(address.UnixAddr); ok {
		if rmErr := os.Remove(ua.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}
	l.log.Debug("listener closed", zap.String("address", l.addr.String()))
	return err
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func remoteString(nc net.Conn) string {
	if ra := nc.RemoteAddr(); ra != nil {
		return ra.String()
	}
	return ""
}
