package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_AcquireRelease(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, err := c.AcquireLock(ctx, "42", 5*time.Second, time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	stored, err := mr.Get("lock:42")
	require.NoError(t, err)
	assert.Equal(t, token, stored)
	assert.Equal(t, 5*time.Second, mr.TTL("lock:42"))

	released, err := c.ReleaseLock(ctx, "42", token)
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, mr.Exists("lock:42"))
}

func TestLock_ReleaseWrongToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, err := c.AcquireLock(ctx, "42", 5*time.Second, time.Second)
	require.NoError(t, err)

	released, err := c.ReleaseLock(ctx, "42", "not-the-owner")
	require.NoError(t, err)
	assert.False(t, released)

	// 锁记录保持不变
	stored, err := mr.Get("lock:42")
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	released, err = c.ReleaseLock(ctx, "42", "")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestLock_ReleaseStaleToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	stale, err := c.AcquireLock(ctx, "42", time.Second, time.Second)
	require.NoError(t, err)

	// 租约过期后被他人获取
	mr.FastForward(2 * time.Second)
	fresh, err := c.AcquireLock(ctx, "42", 5*time.Second, time.Second)
	require.NoError(t, err)
	require.NotEqual(t, stale, fresh)

	released, err := c.ReleaseLock(ctx, "42", stale)
	require.NoError(t, err)
	assert.False(t, released)

	stored, err := mr.Get("lock:42")
	require.NoError(t, err)
	assert.Equal(t, fresh, stored)
}

func TestLock_AcquireTimeout(t *testing.T) {
	c, _ := newTestClient(t)
	c.SetLockRetryInterval(5 * time.Millisecond)
	ctx := context.Background()

	_, err := c.AcquireLock(ctx, "42", 5*time.Second, time.Second)
	require.NoError(t, err)

	start := time.Now()
	token, err := c.AcquireLock(ctx, "42", 5*time.Second, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Empty(t, token)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLock_AcquireAfterRelease(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	first, err := c.AcquireLock(ctx, "7", 5*time.Second, time.Second)
	require.NoError(t, err)

	done := make(chan string, 1)
	go func() {
		token, err := c.AcquireLock(ctx, "7", 5*time.Second, 2*time.Second)
		if err != nil {
			done <- ""
			return
		}
		done <- token
	}()

	time.Sleep(30 * time.Millisecond)
	released, err := c.ReleaseLock(ctx, "7", first)
	require.NoError(t, err)
	require.True(t, released)

	select {
	case second := <-done:
		assert.NotEmpty(t, second)
		assert.NotEqual(t, first, second)
	case <-time.After(3 * time.Second):
		t.Fatal("waiter did not acquire the lock")
	}
}
