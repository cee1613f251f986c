//go:build windows

package transport

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/ipclink/ipclink/pkg/address"
)

type pipeTransport struct{}

var _ Transport = pipeTransport{}

func newPipeTransport() (Transport, error) {
	return pipeTransport{}, nil
}

func (pipeTransport) Family() address.Family { return address.Pipe }

func (pipeTransport) Listen(ctx context.Context, addr address.Addr) (net.Listener, error) {
	pa, ok := addr.(address.PipeAddr)
	if !ok {
		return nil, &BindError{Addr: addr.String(), Err: errFamilyMismatch(addr, address.Pipe)}
	}

	l, err := winio.ListenPipe(pa.Name, nil)
	if err != nil {
		return nil, &BindError{Addr: pa.Name, Err: err}
	}
	return l, nil
}

func (pipeTransport) Dial(ctx context.Context, addr address.Addr) (net.Conn, error) {
	pa, ok := addr.(address.PipeAddr)
	if !ok {
		return nil, &ConnectError{Addr: addr.String(), Err: errFamilyMismatch(addr, address.Pipe)}
	}

	conn, err := winio.DialPipeContext(ctx, pa.Name)
	if err != nil {
		return nil, &ConnectError{Addr: pa.Name, Err: err}
	}
	return conn, nil
}
