package transport

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/ipclink/ipclink/pkg/address"
)

type unixTransport struct{}

var _ Transport = unixTransport{}

func (unixTransport) Family() address.Family { return address.Unix }

// Listen binds a unix socket and restricts the path to the owning user.
// Closing the returned listener does not remove the path; the facade
// listener owns that cleanup.
func (unixTransport) Listen(ctx context.Context, addr address.Addr) (net.Listener, error) {
	ua, ok := addr.(address.UnixAddr)
	if !ok {
		return nil, &BindError{Addr: addr.String(), Err: errFamilyMismatch(addr, address.Unix)}
	}

	lc := net.ListenConfig{}
	l, err := lc.Listen(ctx, "unix", ua.Path)
	if err != nil {
		return nil, &BindError{Addr: ua.Path, Err: err}
	}

	if ul, ok := l.(*net.UnixListener); ok {
		// the facade unlinks the path itself on Close
		ul.SetUnlinkOnClose(false)
	}

	if err := os.Chmod(ua.Path, 0o700); err != nil {
		_ = l.Close()
		_ = os.Remove(ua.Path)
		return nil, &BindError{Addr: ua.Path, Err: fmt.Errorf("restrict socket permissions: %w", err)}
	}

	return l, nil
}

func (unixTransport) Dial(ctx context.Context, addr address.Addr) (net.Conn, error) {
	ua, ok := addr.(address.UnixAddr)
	if !ok {
		return nil, &ConnectError{Addr: addr.String(), Err: errFamilyMismatch(addr, address.Unix)}
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", ua.Path)
	if err != nil {
		return nil, &ConnectError{Addr: ua.Path, Err: err}
	}
	return conn, nil
}

func errFamilyMismatch(addr address.Addr, want address.Family) error {
	return fmt.Errorf("address family %s does not match transport %s", addr.Family(), want)
}
