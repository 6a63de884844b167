package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     int64
	closed atomic.Bool
}

func newFakePool(t *testing.T, size int, timeout time.Duration) (*Pool[*fakeConn], *atomic.Int64) {
	t.Helper()
	var dialed atomic.Int64
	p, err := New(context.Background(), Config{Size: size, CheckoutTimeout: timeout},
		func(ctx context.Context) (*fakeConn, error) {
			return &fakeConn{id: dialed.Add(1)}, nil
		},
		func(c *fakeConn) { c.closed.Store(true) },
	)
	require.NoError(t, err)
	return p, &dialed
}

func TestPool_EagerDial(t *testing.T) {
	p, dialed := newFakePool(t, 3, time.Second)
	defer p.Close()

	// 构造时即建立全部连接
	assert.Equal(t, int64(3), dialed.Load())
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 3, p.Idle())
}

func TestPool_CheckoutCheckin(t *testing.T) {
	p, dialed := newFakePool(t, 2, time.Second)
	defer p.Close()
	ctx := context.Background()

	a, err := p.Get(ctx)
	require.NoError(t, err)
	b, err := p.Get(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a.Value().id, b.Value().id)
	assert.Equal(t, 0, p.Idle())

	p.Put(a)
	p.Put(b)
	assert.Equal(t, 2, p.Idle())

	// 归还后复用，不会重新建连
	c, err := p.Get(ctx)
	require.NoError(t, err)
	p.Put(c)
	assert.Equal(t, int64(2), dialed.Load())
}

func TestPool_CheckoutTimeout(t *testing.T) {
	p, _ := newFakePool(t, 1, 30*time.Millisecond)
	defer p.Close()
	ctx := context.Background()

	held, err := p.Get(ctx)
	require.NoError(t, err)
	defer p.Put(held)

	start := time.Now()
	_, err = p.Get(ctx)
	assert.ErrorIs(t, err, ErrPoolTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPool_BlockedCheckoutWakesOnPut(t *testing.T) {
	p, _ := newFakePool(t, 1, 2*time.Second)
	defer p.Close()
	ctx := context.Background()

	held, err := p.Get(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var gotErr error
	go func() {
		defer wg.Done()
		res, err := p.Get(ctx)
		gotErr = err
		if err == nil {
			p.Put(res)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	p.Put(held)
	wg.Wait()
	assert.NoError(t, gotErr)
}

func TestPool_Closed(t *testing.T) {
	p, _ := newFakePool(t, 2, time.Second)

	res, err := p.Get(context.Background())
	require.NoError(t, err)
	conn := res.Value()
	p.Put(res)

	p.Close()
	assert.True(t, conn.closed.Load())

	_, err = p.Get(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_CloseReleasesBlockedCheckout(t *testing.T) {
	// 不设借出超时，等待方只能靠 Close 唤醒
	p, _ := newFakePool(t, 1, 0)

	held, err := p.Get(context.Background())
	require.NoError(t, err)
	conn := held.Value()

	waitErr := make(chan error, 1)
	go func() {
		_, err := p.Get(context.Background())
		waitErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	select {
	case err := <-waitErr:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked checkout not released by Close")
	}

	// Close 仍等待借出的连接归还
	p.Put(held)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after checkin")
	}
	assert.True(t, conn.closed.Load())
}

func TestPool_DialFailure(t *testing.T) {
	dialErr := errors.New("connection refused")
	_, err := New(context.Background(), Config{Size: 2},
		func(ctx context.Context) (int, error) { return 0, dialErr },
		func(int) {},
	)
	assert.ErrorIs(t, err, dialErr)
}
