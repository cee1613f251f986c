package ipc

import (
	"context"

	"go.uber.org/zap"

	"github.com/ipclink/ipclink/pkg/address"
	"github.com/ipclink/ipclink/pkg/auth"
	"github.com/ipclink/ipclink/pkg/metrics"
	"github.com/ipclink/ipclink/pkg/transport"
)

// Dial connects to a listener, runs the responder side of the handshake
// when authentication is enabled and returns the framed connection. The
// returned Conn has the same contract as one produced by Accept.
func Dial(ctx context.Context, addr address.Addr, opts ...Option) (*Conn, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, &address.AddressError{Reason: "dial requires an address"}
	}

	resolved, family, err := address.Resolve(addr, o.family)
	if err != nil {
		return nil, err
	}

	tr, err := transport.ForFamily(family)
	if err != nil {
		return nil, err
	}

	nc, err := tr.Dial(ctx, resolved)
	if err != nil {
		return nil, err
	}

	if o.authenticate {
		if err := auth.Answer(nc, o.authKey); err != nil {
			_ = nc.Close()
			metrics.HandshakeFailures.WithLabelValues("responder").Inc()
			o.logger.Warn("handshake failed",
				zap.String("address", resolved.String()), zap.Error(err))
			return nil, err
		}
	}

	metrics.ConnectionsDialed.Inc()
	o.logger.Debug("connected",
		zap.Stringer("family", family),
		zap.String("address", resolved.String()),
	)
	return newConn(nc, o), nil
}
