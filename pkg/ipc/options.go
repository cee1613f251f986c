package ipc

import (
	"go.uber.org/zap"

	"github.com/ipclink/ipclink/pkg/address"
	"github.com/ipclink/ipclink/pkg/codec"
	"github.com/ipclink/ipclink/pkg/frame"
)

type options struct {
	family       address.Family
	backlog      int
	authenticate bool
	authKey      []byte
	codec        codec.Codec
	maxFrameSize uint32
	logger       *zap.Logger
}

func defaultOptions() *options {
	return &options{
		family:       address.FamilyUnknown,
		backlog:      1,
		codec:        codec.Default(),
		maxFrameSize: frame.DefaultMaxFrameSize,
		logger:       zap.NewNop(),
	}
}

// Option configures Listen, Dial and NewConn.
type Option func(*options)

// WithFamily forces a transport family instead of inferring it from the
// address shape.
func WithFamily(f address.Family) Option {
	return func(o *options) {
		o.family = f
	}
}

// WithBacklog records the requested accept backlog. The Go runtime manages
// the OS listen backlog itself, so this is advisory; it exists so callers
// porting configuration across implementations keep their knob.
func WithBacklog(n int) Option {
	return func(o *options) {
		o.backlog = n
	}
}

// WithAuthKey supplies the shared secret and enables authentication.
func WithAuthKey(key []byte) Option {
	return func(o *options) {
		o.authKey = key
		o.authenticate = true
	}
}

// WithAuthenticate toggles the handshake explicitly. Enabling it without a
// key makes Listen/Dial fail with ErrNoAuthKey; there is no hidden
// process-wide default.
func WithAuthenticate(enabled bool) Option {
	return func(o *options) {
		o.authenticate = enabled
	}
}

// WithCodec selects the serialization used by Send/Recv.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithMaxFrameSize bounds payload sizes on both send and receive. Zero
// means unlimited.
func WithMaxFrameSize(n uint32) Option {
	return func(o *options) {
		o.maxFrameSize = n
	}
}

// WithLogger attaches a structured logger; the default is a nop.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.authenticate && len(o.authKey) == 0 {
		return nil, ErrNoAuthKey
	}
	return o, nil
}
