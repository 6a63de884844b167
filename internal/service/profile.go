package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/model"
	chatRedis "sudooom.im.chat/internal/redis"
)

// Cache 缓存读写，由 *chatRedis.Client 实现
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// UserStore 用户资料的持久化来源，由 *repository.UserRepository 实现
type UserStore interface {
	GetUserByUid(ctx context.Context, uid int64) (*model.UserInfo, error)
	GetUserByName(ctx context.Context, name string) (*model.UserInfo, error)
}

// ProfileService 用户资料读穿透缓存
type ProfileService struct {
	cache  Cache
	store  UserStore
	logger *slog.Logger
}

// NewProfileService 创建资料服务
func NewProfileService(cache Cache, store UserStore) *ProfileService {
	return &ProfileService{
		cache:  cache,
		store:  store,
		logger: slog.Default(),
	}
}

// GetBaseInfo 按 uid 读取资料，缓存键 user_base_info:{uid}
func (s *ProfileService) GetBaseInfo(ctx context.Context, uid int64) (*model.UserInfo, error) {
	return readThrough(ctx, s, chatRedis.BuildUserBaseInfoKey(uid), func(ctx context.Context) (*model.UserInfo, error) {
		return s.store.GetUserByUid(ctx, uid)
	})
}

// GetByName 按用户名读取资料，缓存键 name_info:{name}
func (s *ProfileService) GetByName(ctx context.Context, name string) (*model.UserInfo, error) {
	return readThrough(ctx, s, chatRedis.BuildNameInfoKey(name), func(ctx context.Context) (*model.UserInfo, error) {
		return s.store.GetUserByName(ctx, name)
	})
}

// readThrough 先查缓存，未命中或内容损坏时回源并回写（不设过期）
// 回源失败一律视为用户不存在
func readThrough[T any](ctx context.Context, s *ProfileService, key string, load func(ctx context.Context) (*T, error)) (*T, error) {
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}
	if ok {
		// 缓存内容必须是 JSON 对象，null、数组等一律视为损坏
		if strings.HasPrefix(strings.TrimSpace(cached), "{") {
			var value T
			if err := json.Unmarshal([]byte(cached), &value); err == nil {
				return &value, nil
			}
		}
		s.logger.Warn("Corrupt cache entry, reloading from store", "key", key)
	}

	value, err := load(ctx)
	if err != nil {
		return nil, appErrors.ErrUidInvalid.Wrap(err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := s.cache.Set(ctx, key, string(data)); err != nil {
		s.logger.Warn("Cache write-back failed", "key", key, "error", err)
	}
	return value, nil
}
