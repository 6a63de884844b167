package service

import (
	"context"
	"log/slog"

	appErrors "sudooom.im.chat/internal/errors"
	chatRedis "sudooom.im.chat/internal/redis"
)

// PresenceCache 在线位置记录所需的缓存操作
type PresenceCache interface {
	Cache
	DelIfEqual(ctx context.Context, guardKey, expected string, others ...string) (bool, error)
}

// PresenceService 维护 usertoken / user_ip / user_session 三类记录
type PresenceService struct {
	cache    PresenceCache
	selfName string
	logger   *slog.Logger
}

// NewPresenceService 创建在线位置服务，selfName 为本节点名
func NewPresenceService(cache PresenceCache, selfName string) *PresenceService {
	return &PresenceService{
		cache:    cache,
		selfName: selfName,
		logger:   slog.Default(),
	}
}

// SelfName 本节点名
func (s *PresenceService) SelfName() string {
	return s.selfName
}

// CheckToken 校验登录 token，不存在或不一致都返回 ErrTokenInvalid
func (s *PresenceService) CheckToken(ctx context.Context, uid int64, token string) error {
	stored, ok, err := s.cache.Get(ctx, chatRedis.BuildUserTokenKey(uid))
	if err != nil {
		return appErrors.ErrTokenInvalid.Wrap(err)
	}
	if !ok || stored != token {
		return appErrors.ErrTokenInvalid
	}
	return nil
}

// Location 查询 uid 所在节点，ok=false 表示不在线
func (s *PresenceService) Location(ctx context.Context, uid int64) (string, bool, error) {
	return s.cache.Get(ctx, chatRedis.BuildUserIPKey(uid))
}

// Bind 记录 uid 登录在本节点的 sessionID 上
func (s *PresenceService) Bind(ctx context.Context, uid int64, sessionID string) error {
	if err := s.cache.Set(ctx, chatRedis.BuildUserIPKey(uid), s.selfName); err != nil {
		return err
	}
	return s.cache.Set(ctx, chatRedis.BuildUserSessionKey(uid), sessionID)
}

// Unbind 仅当 user_session:{uid} 仍是 sessionID 时清除在线记录
// 其他节点上的新登录不会被覆盖
func (s *PresenceService) Unbind(ctx context.Context, uid int64, sessionID string) (bool, error) {
	removed, err := s.cache.DelIfEqual(ctx,
		chatRedis.BuildUserSessionKey(uid), sessionID,
		chatRedis.BuildUserIPKey(uid))
	if err == nil && removed {
		s.logger.Info("Presence cleared", "uid", uid, "sessionId", sessionID)
	}
	return removed, err
}
