// Package pool keeps a bounded set of established (and, when configured,
// authenticated) connections to one listener, so callers exchanging many
// short message bursts do not pay the dial and handshake cost each time.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ipclink/ipclink/pkg/address"
	"github.com/ipclink/ipclink/pkg/ipc"
)

var ErrPoolClosed = errors.New("ipclink: pool closed")

type Options struct {
	MaxSize         int
	MaxIdleTime     time.Duration
	CleanupInterval time.Duration
	WaitTimeout     time.Duration
	DialTimeout     time.Duration

	// DialOptions are passed through to ipc.Dial for every pooled
	// connection (auth key, codec, frame limits).
	DialOptions []ipc.Option
}

func DefaultOptions() *Options {
	return &Options{
		MaxSize:         16,
		MaxIdleTime:     90 * time.Second,
		CleanupInterval: 30 * time.Second,
		WaitTimeout:     5 * time.Second,
		DialTimeout:     5 * time.Second,
	}
}

type Option func(*Options)

func WithMaxSize(n int) Option {
	return func(o *Options) {
		o.MaxSize = n
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.MaxIdleTime = d
	}
}

func WithWaitTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WaitTimeout = d
	}
}

func WithDialOptions(opts ...ipc.Option) Option {
	return func(o *Options) {
		o.DialOptions = opts
	}
}

type idleConn struct {
	conn     *ipc.Conn
	lastUsed time.Time
}

// Pool hands out connections to a fixed address. Get dials when under the
// size cap, otherwise waits for a Put.
type Pool struct {
	addr address.Addr
	opts *Options

	mu     sync.Mutex
	idle   []idleConn
	closed bool

	// counts live connections, both idle and handed out
	slots chan struct{}
	done  chan struct{}
}

func New(addr address.Addr, opts ...Option) (*Pool, error) {
	if addr == nil {
		return nil, &address.AddressError{Reason: "pool requires an address"}
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.MaxSize <= 0 {
		return nil, fmt.Errorf("pool: max size must be positive, got %d", o.MaxSize)
	}

	p := &Pool{
		addr:  addr,
		opts:  o,
		slots: make(chan struct{}, o.MaxSize),
		done:  make(chan struct{}),
	}
	if o.MaxIdleTime > 0 && o.CleanupInterval > 0 {
		go p.reap()
	}
	return p, nil
}

// Get returns an idle connection or dials a new one. With the pool
// exhausted it waits up to WaitTimeout for a Put.
func (p *Pool) Get(ctx context.Context) (*ipc.Conn, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	if conn := p.popIdle(); conn != nil {
		return conn, nil
	}

	wait := time.NewTimer(p.opts.WaitTimeout)
	defer wait.Stop()

	for {
		select {
		case p.slots <- struct{}{}:
			conn, err := p.dial(ctx)
			if err != nil {
				<-p.slots
				return nil, err
			}
			return conn, nil
		case <-p.done:
			return nil, ErrPoolClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait.C:
			return nil, fmt.Errorf("pool: no connection available within %v", p.opts.WaitTimeout)
		default:
		}

		// cap reached: prefer an idle conn freed by a Put
		if conn := p.popIdle(); conn != nil {
			return conn, nil
		}
		select {
		case <-p.done:
			return nil, ErrPoolClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait.C:
			return nil, fmt.Errorf("pool: no connection available within %v", p.opts.WaitTimeout)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Put returns a connection for reuse. Pass broken=true after any transport
// error; the connection is closed and its slot freed.
func (p *Pool) Put(conn *ipc.Conn, broken bool) {
	if conn == nil {
		return
	}

	// closed check and idle append must share one critical section: a
	// Close in between would snapshot idle without this conn and leak it
	p.mu.Lock()
	if broken || p.closed {
		p.mu.Unlock()
		_ = conn.Close()
		p.release()
		return
	}
	p.idle = append(p.idle, idleConn{conn: conn, lastUsed: time.Now()})
	p.mu.Unlock()
}

// Close closes every idle connection and fails pending and future Gets.
// Connections currently handed out are closed by their holders via Put.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	close(p.done)
	for _, ic := range idle {
		_ = ic.conn.Close()
		p.release()
	}
	return nil
}

func (p *Pool) popIdle() *ipc.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.idle); n > 0 {
		ic := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return ic.conn
	}
	return nil
}

func (p *Pool) dial(ctx context.Context) (*ipc.Conn, error) {
	if p.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.DialTimeout)
		defer cancel()
	}
	return ipc.Dial(ctx, p.addr, p.opts.DialOptions...)
}

func (p *Pool) release() {
	select {
	case <-p.slots:
	default:
	}
}

// reap closes idle connections that outlived MaxIdleTime.
func (p *Pool) reap() {
	ticker := time.NewTicker(p.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-p.opts.MaxIdleTime)

		p.mu.Lock()
		kept := p.idle[:0]
		var expired []idleConn
		for _, ic := range p.idle {
			if ic.lastUsed.Before(cutoff) {
				expired = append(expired, ic)
			} else {
				kept = append(kept, ic)
			}
		}
		p.idle = kept
		p.mu.Unlock()

		for _, ic := range expired {
			_ = ic.conn.Close()
			p.release()
		}
	}
}
