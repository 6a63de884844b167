package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"sudooom.im.chat/internal/metrics"
)

// ErrLockTimeout 在等待预算内未抢到锁
var ErrLockTimeout = errors.New("redis: lock acquire timeout")

// releaseScript 仅当持有者 token 一致时删除锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// AcquireLock 获取分布式锁 lock:{name}
// 成功返回持有者 token；超过 wait 仍未获取返回 ErrLockTimeout
func (c *Client) AcquireLock(ctx context.Context, name string, lease, wait time.Duration) (string, error) {
	key := BuildLockKey(name)
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := c.rdb.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			metrics.LockAcquire.WithLabelValues("error").Inc()
			return "", err
		}
		if ok {
			metrics.LockAcquire.WithLabelValues("acquired").Inc()
			return token, nil
		}

		if !time.Now().Before(deadline) {
			metrics.LockAcquire.WithLabelValues("timeout").Inc()
			return "", ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			metrics.LockAcquire.WithLabelValues("error").Inc()
			return "", ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
}

// ReleaseLock 释放锁，token 不匹配（锁已过期或被他人持有）时返回 false
func (c *Client) ReleaseLock(ctx context.Context, name string, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	n, err := releaseScript.Run(ctx, c.rdb, []string{BuildLockKey(name)}, token).Int64()
	if err != nil {
		c.logger.Warn("Failed to release lock", "name", name, "error", err)
		return false, err
	}
	return n == 1, nil
}
