package transport

import (
	"context"
	"net"
	"time"

	"github.com/ipclink/ipclink/pkg/address"
)

const keepAlivePeriod = 30 * time.Second

type tcpTransport struct{}

var _ Transport = tcpTransport{}

func (tcpTransport) Family() address.Family { return address.TCP }

func (tcpTransport) Listen(ctx context.Context, addr address.Addr) (net.Listener, error) {
	ta, ok := addr.(address.TCPAddr)
	if !ok {
		return nil, &BindError{Addr: addr.String(), Err: errFamilyMismatch(addr, address.TCP)}
	}

	lc := net.ListenConfig{}
	l, err := lc.Listen(ctx, "tcp", ta.String())
	if err != nil {
		return nil, &BindError{Addr: ta.String(), Err: err}
	}
	return l, nil
}

func (tcpTransport) Dial(ctx context.Context, addr address.Addr) (net.Conn, error) {
	ta, ok := addr.(address.TCPAddr)
	if !ok {
		return nil, &ConnectError{Addr: addr.String(), Err: errFamilyMismatch(addr, address.TCP)}
	}

	dialer := &net.Dialer{KeepAlive: keepAlivePeriod}
	conn, err := dialer.DialContext(ctx, "tcp", ta.String())
	if err != nil {
		return nil, &ConnectError{Addr: ta.String(), Err: err}
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, &ConnectError{Addr: ta.String(), Err: err}
		}
	}

	return conn, nil
}
