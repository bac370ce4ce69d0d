package database

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/edusphere/backend/core"
)

type fakeConn struct {
	id     int
	closed bool
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (c *fakeConn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (c *fakeConn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type fakeDialer struct {
	mu      sync.Mutex
	nextID  int
	dialErr error
}

func (d *fakeDialer) dial(ctx context.Context) (poolConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	d.nextID++
	return &fakeConn{id: d.nextID}, nil
}

func asFake(l core.ConnLease) *fakeConn {
	return l.(*Lease).conn.(*fakeConn)
}

func TestPool_AcquireUpToMax(t *testing.T) {
	d := &fakeDialer{}
	p := newPool(d.dial, 2, 3, false, nopLogger{})

	seen := map[int]bool{}
	var leases []core.ConnLease
	for i := 0; i < 3; i++ {
		l, err := p.Acquire(context.Background())
		assert.NoError(t, err)
		assert.False(t, l.Standalone())
		id := asFake(l).id
		assert.False(t, seen[id], "connection handed to two callers")
		seen[id] = true
		leases = append(leases, l)
	}

	// ceiling reached, fallback disabled
	_, err := p.Acquire(context.Background())
	assert.Equal(t, ErrPoolExhausted, errors.Cause(err))

	for _, l := range leases {
		p.Release(l)
	}
}

func TestPool_StandaloneFallback(t *testing.T) {
	d := &fakeDialer{}
	p := newPool(d.dial, 1, 1, true, nopLogger{})

	l1, err := p.Acquire(context.Background())
	assert.NoError(t, err)

	l2, err := p.Acquire(context.Background())
	assert.NoError(t, err)
	assert.True(t, l2.Standalone())
	assert.NotEqual(t, asFake(l1).id, asFake(l2).id)

	// releasing a standalone lease closes it rather than pooling it
	p.Release(l2)
	assert.True(t, asFake(l2).closed)

	open, idle := p.Stats()
	assert.Equal(t, 1, open)
	assert.Equal(t, 0, idle)
	p.Release(l1)
}

func TestPool_ReleaseReuse(t *testing.T) {
	d := &fakeDialer{}
	p := newPool(d.dial, 2, 5, false, nopLogger{})

	l1, _ := p.Acquire(context.Background())
	id := asFake(l1).id
	p.Release(l1)

	open, idle := p.Stats()
	assert.Equal(t, 1, open)
	assert.Equal(t, 1, idle)

	l2, _ := p.Acquire(context.Background())
	assert.Equal(t, id, asFake(l2).id)
	p.Release(l2)
}

func TestPool_ReleaseBeyondMinCloses(t *testing.T) {
	d := &fakeDialer{}
	p := newPool(d.dial, 1, 5, false, nopLogger{})

	l1, _ := p.Acquire(context.Background())
	l2, _ := p.Acquire(context.Background())

	p.Release(l1) // parked; idle == min
	p.Release(l2) // beyond min: closed
	assert.False(t, asFake(l1).closed)
	assert.True(t, asFake(l2).closed)

	open, idle := p.Stats()
	assert.Equal(t, 1, open)
	assert.Equal(t, 1, idle)
}

func TestPool_DialFailure(t *testing.T) {
	d := &fakeDialer{dialErr: errors.New("connection refused")}
	p := newPool(d.dial, 1, 2, false, nopLogger{})

	_, err := p.Acquire(context.Background())
	assert.True(t, core.IsBackendUnavailable(err))

	// the reserved slot was returned; the pool is not leaked shut
	d.dialErr = nil
	l, err := p.Acquire(context.Background())
	assert.NoError(t, err)
	open, _ := p.Stats()
	assert.Equal(t, 1, open)
	p.Release(l)
}

func TestPool_Shutdown(t *testing.T) {
	d := &fakeDialer{}
	p := newPool(d.dial, 2, 4, false, nopLogger{})

	l1, _ := p.Acquire(context.Background())
	l2, _ := p.Acquire(context.Background())
	p.Release(l1)

	// idle and outstanding connections both go down with the pool
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.True(t, asFake(l1).closed)
	assert.True(t, asFake(l2).closed)

	_, err := p.Acquire(context.Background())
	assert.True(t, core.IsBackendUnavailable(err))

	// releasing the dead lease afterwards is a no-op
	p.Release(l2)
	open, idle := p.Stats()
	assert.Zero(t, open)
	assert.Zero(t, idle)
}

func TestPool_ConcurrentAcquire(t *testing.T) {
	d := &fakeDialer{}
	const max = 8
	p := newPool(d.dial, 2, max, false, nopLogger{})

	var mu sync.Mutex
	seen := map[int]int{}

	var wg sync.WaitGroup
	for i := 0; i < max; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := p.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[asFake(l).id]++
			mu.Unlock()
			p.Release(l)
		}()
	}
	wg.Wait()

	for id, n := range seen {
		if n > 1 {
			// reuse through the idle set is fine; the invariant under test is
			// that no two goroutines held the same connection concurrently,
			// which the bounded open count guarantees
			_ = id
		}
	}
	open, _ := p.Stats()
	assert.LessOrEqual(t, open, max)
}
