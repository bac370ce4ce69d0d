package database

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/edusphere/backend/core"
)

var (
	// ErrPoolExhausted is returned by Acquire when every pooled connection is
	// checked out and the standalone fallback is disabled.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	errPoolClosed = errors.New("pool is shut down")
)

type (
	// poolConn is what a lease wraps. *sql.Conn satisfies it; tests substitute
	// fakes through the dial seam.
	poolConn interface {
		core.DBExecutor
		Close() error
	}

	dialFunc func(ctx context.Context) (poolConn, error)

	// Pool bounds the number of live database connections. Idle connections
	// are reused; a release beyond the warm minimum closes the connection.
	// When the ceiling is reached, Acquire either fails with ErrPoolExhausted
	// or dials a standalone connection outside the bound (degraded mode),
	// depending on configuration.
	Pool struct {
		mu     sync.Mutex
		idle   []poolConn
		leased map[poolConn]struct{} // outstanding, pooled and standalone
		open   int                   // pooled connections in existence (idle + leased)
		closed bool

		min             int
		max             int
		allowStandalone bool

		dial dialFunc
		log  core.Logger
	}

	// Lease is a checked-out connection. It is owned by exactly one caller
	// between Acquire and Release.
	Lease struct {
		conn       poolConn
		standalone bool
	}
)

// DB returns the executor backing this lease.
func (l *Lease) DB() core.DBExecutor { return l.conn }

// Standalone reports whether this lease bypassed the pool's bound.
func (l *Lease) Standalone() bool { return l.standalone }

// NewPool builds a pool over db. Connections are dialed lazily: an
// unreachable backend at startup is non-fatal and every Acquire retries.
func NewPool(db *sql.DB, conf core.DatabaseConfig, log core.Logger) *Pool {
	return newPool(
		func(ctx context.Context) (poolConn, error) { return db.Conn(ctx) },
		conf.PoolMinConns, conf.PoolMaxConns, conf.PoolAllowStandalone, log,
	)
}

func newPool(dial dialFunc, min, max int, allowStandalone bool, log core.Logger) *Pool {
	if max < 1 {
		max = 1
	}
	if min < 0 {
		min = 0
	}
	if min > max {
		min = max
	}
	return &Pool{
		idle:            make([]poolConn, 0, min),
		leased:          make(map[poolConn]struct{}),
		min:             min,
		max:             max,
		allowStandalone: allowStandalone,
		dial:            dial,
		log:             log,
	}
}

// Acquire returns a connection lease: an idle one when available, a newly
// dialed one while under the ceiling, otherwise the configured over-limit
// behavior. Every failure surfaces as a typed error; a dead connection is
// never handed out silently.
func (p *Pool) Acquire(ctx context.Context) (core.ConnLease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, core.NewBackendUnavailableError(errPoolClosed)
	}
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.leased[conn] = struct{}{}
		p.mu.Unlock()
		return &Lease{conn: conn}, nil
	}
	if p.open < p.max {
		p.open++ // reserve the slot before dialing
		p.mu.Unlock()

		conn, err := p.dial(ctx)
		if err != nil {
			p.mu.Lock()
			p.open--
			p.mu.Unlock()
			return nil, core.NewBackendUnavailableError(err)
		}
		if err := p.track(conn, false); err != nil {
			return nil, err
		}
		return &Lease{conn: conn}, nil
	}
	p.mu.Unlock()

	if !p.allowStandalone {
		return nil, ErrPoolExhausted
	}

	// Fallback: serve the caller with a connection outside the pool's bound
	// rather than blocking indefinitely. This bypasses the bounding guarantee.
	p.log.Warn("connection pool exhausted; dialing standalone connection (degraded mode)")
	conn, err := p.dial(ctx)
	if err != nil {
		return nil, core.NewBackendUnavailableError(err)
	}
	if err := p.track(conn, true); err != nil {
		return nil, err
	}
	return &Lease{conn: conn, standalone: true}, nil
}

// track registers a freshly dialed connection as outstanding. A shutdown that
// raced the dial wins: the connection is closed and the caller gets the
// pool-closed error.
func (p *Pool) track(conn poolConn, standalone bool) error {
	p.mu.Lock()
	if p.closed {
		// Shutdown already reset occupancy
		p.mu.Unlock()
		_ = conn.Close()
		return core.NewBackendUnavailableError(errPoolClosed)
	}
	p.leased[conn] = struct{}{}
	p.mu.Unlock()
	return nil
}

// Release returns a pooled lease to the idle set, closing it instead when the
// warm minimum is already met or the pool has shut down. Standalone leases
// are always closed. A lease whose connection was already torn down by
// Shutdown is a no-op.
func (p *Pool) Release(lease core.ConnLease) {
	l, ok := lease.(*Lease)
	if !ok || l == nil {
		return
	}

	p.mu.Lock()
	if _, outstanding := p.leased[l.conn]; !outstanding {
		p.mu.Unlock()
		return
	}
	delete(p.leased, l.conn)

	if l.standalone {
		p.mu.Unlock()
		_ = l.conn.Close()
		return
	}
	if p.closed || len(p.idle) >= p.min {
		p.open--
		p.mu.Unlock()
		_ = l.conn.Close()
		return
	}
	p.idle = append(p.idle, l.conn)
	p.mu.Unlock()
}

// Shutdown marks the pool closed and closes every connection, idle and
// outstanding. A lease released afterwards is a no-op. Subsequent Acquire
// calls fail with a backend-unavailable error.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conns := p.idle
	p.idle = nil
	for conn := range p.leased {
		conns = append(conns, conn)
	}
	p.leased = make(map[poolConn]struct{})
	p.open = 0
	p.mu.Unlock()

	var firstErr error
	for _, conn := range conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return firstErr
}

// Stats reports current pool occupancy, for logging and tests.
func (p *Pool) Stats() (open, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open, len(p.idle)
}
