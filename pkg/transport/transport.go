// Package transport unifies the OS-level stream mechanisms — TCP sockets,
// unix domain sockets and Windows named pipes — behind one bind/dial
// interface. It deals in raw byte streams only; message boundaries belong
// to the framing layer.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ipclink/ipclink/pkg/address"
)

// ErrFamilyUnavailable reports a transport family the current platform
// cannot provide. Callers must surface it rather than fall back silently.
var ErrFamilyUnavailable = errors.New("ipclink: transport family unavailable on this platform")

// Transport binds listeners and opens connections for one address family.
// Accept and connection reads/writes block; cancellation is by closing the
// handle out-of-band.
type Transport interface {
	Family() address.Family
	Listen(ctx context.Context, addr address.Addr) (net.Listener, error)
	Dial(ctx context.Context, addr address.Addr) (net.Conn, error)
}

// ForFamily returns the transport for a resolved family.
func ForFamily(f address.Family) (Transport, error) {
	if !address.Supported(f) {
		return nil, fmt.Errorf("%w: %s", ErrFamilyUnavailable, f)
	}
	switch f {
	case address.TCP:
		return tcpTransport{}, nil
	case address.Unix:
		return unixTransport{}, nil
	case address.Pipe:
		return newPipeTransport()
	default:
		return nil, fmt.Errorf("%w: %s", ErrFamilyUnavailable, f)
	}
}

// BindError reports a failed bind: address in use, path not creatable, and
// the like. Not retried by this layer.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// ConnectError reports a failed dial: no listener, refused, timeout.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
