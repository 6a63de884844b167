package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"sudooom.im.chat/internal/config"
)

// Client Redis 客户端封装（缓存读写 + 分布式锁）
type Client struct {
	rdb           *redis.Client
	retryInterval time.Duration
	logger        *slog.Logger
}

// NewClient 根据配置创建 Redis 客户端
func NewClient(cfg config.RedisConfig) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return Wrap(rdb)
}

// Wrap 包装已有的 go-redis 客户端
func Wrap(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		retryInterval: 10 * time.Millisecond,
		logger:        slog.Default(),
	}
}

// SetLockRetryInterval 设置抢锁重试间隔
func (c *Client) SetLockRetryInterval(d time.Duration) {
	if d > 0 {
		c.retryInterval = d
	}
}

// Raw 返回底层 go-redis 客户端（健康检查使用）
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// Ping 检查 Redis 连接
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get 获取字符串值，key 不存在时 ok=false 且 err=nil
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set 设置值（不过期）
func (c *Client) Set(ctx context.Context, key string, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Exists 检查键是否存在
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.rdb.Exists(ctx, key).Result()
	return count > 0, err
}

// LPush 从左侧插入
func (c *Client) LPush(ctx context.Context, key string, value string) error {
	return c.rdb.LPush(ctx, key, value).Err()
}

// RPush 从右侧插入
func (c *Client) RPush(ctx context.Context, key string, value string) error {
	return c.rdb.RPush(ctx, key, value).Err()
}

// LPop 从左侧弹出，列表为空时 ok=false
func (c *Client) LPop(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// RPop 从右侧弹出，列表为空时 ok=false
func (c *Client) RPop(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.RPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// HSet 设置哈希字段
func (c *Client) HSet(ctx context.Context, key, field, value string) error {
	return c.rdb.HSet(ctx, key, field, value).Err()
}

// HGet 获取哈希字段，字段不存在时 ok=false
func (c *Client) HGet(ctx context.Context, key, field string) (string, bool, error) {
	value, err := c.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// delIfEqualScript guard 键的值等于 ARGV[1] 时删除所有 KEYS
var delIfEqualScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", unpack(KEYS))
else
	return 0
end
`)

// DelIfEqual 当 guardKey 的值等于 expected 时，原子删除 guardKey 及 others
func (c *Client) DelIfEqual(ctx context.Context, guardKey, expected string, others ...string) (bool, error) {
	keys := append([]string{guardKey}, others...)
	n, err := delIfEqualScript.Run(ctx, c.rdb, keys, expected).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
