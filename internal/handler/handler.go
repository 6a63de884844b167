package handler

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"sudooom.im.chat/internal/config"
	"sudooom.im.chat/internal/dispatch"
	"sudooom.im.chat/internal/model"
	"sudooom.im.chat/internal/peer"
	"sudooom.im.chat/internal/service"
	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

// PeerNotifier 跨节点通知，由 *peer.Client 实现
type PeerNotifier interface {
	NotifyAddFriend(ctx context.Context, peerName string, req *peer.AddFriendReq) (*peer.AddFriendRsp, error)
	NotifyAuthFriend(ctx context.Context, peerName string, req *peer.AuthFriendReq) (*peer.AuthFriendRsp, error)
	NotifyTextChatMsg(ctx context.Context, peerName string, req *peer.TextChatMsgReq) (*peer.TextChatMsgRsp, error)
	NotifyKickUser(ctx context.Context, peerName string, req *peer.KickUserReq) (*peer.KickUserRsp, error)
}

// FriendStore 好友关系持久化，由 *repository.FriendRepository 实现
type FriendStore interface {
	AddFriendApply(ctx context.Context, fromUid, toUid int64) error
	AuthFriendApply(ctx context.Context, uid, applicantUid int64) error
	AddFriend(ctx context.Context, uid, friendUid int64, back string) error
	GetApplyList(ctx context.Context, toUid int64, offset, limit int) ([]*model.ApplyInfo, error)
	GetFriendList(ctx context.Context, uid int64) ([]*model.UserInfo, error)
}

// Locker 分布式锁，由 *redis.Client 实现
type Locker interface {
	AcquireLock(ctx context.Context, name string, lease, wait time.Duration) (string, error)
	ReleaseLock(ctx context.Context, name string, token string) (bool, error)
}

// applyListLimit 登录时返回的好友申请条数
const applyListLimit = 10

// LogicHandler 业务消息处理器，所有方法都运行在分发引擎的工作协程上
type LogicHandler struct {
	sessions *session.Directory
	profiles *service.ProfileService
	presence *service.PresenceService
	friends  FriendStore
	locker   Locker
	peers    PeerNotifier
	lockCfg  config.LockConfig
	logger   *slog.Logger

	// 后台发出的踢人 RPC
	background sync.WaitGroup
}

// NewLogicHandler 创建业务处理器
func NewLogicHandler(
	sessions *session.Directory,
	profiles *service.ProfileService,
	presence *service.PresenceService,
	friends FriendStore,
	locker Locker,
	peers PeerNotifier,
	lockCfg config.LockConfig,
) *LogicHandler {
	return &LogicHandler{
		sessions: sessions,
		profiles: profiles,
		presence: presence,
		friends:  friends,
		locker:   locker,
		peers:    peers,
		lockCfg:  lockCfg,
		logger:   slog.Default(),
	}
}

// Register 把所有消息处理函数注册到分发引擎
func (h *LogicHandler) Register(e *dispatch.Engine) {
	e.Register(proto.IDChatLogin, h.Login)
	e.Register(proto.IDSearchUserReq, h.SearchInfo)
	e.Register(proto.IDAddFriendReq, h.AddFriendApply)
	e.Register(proto.IDAuthFriendReq, h.AuthFriendApply)
	e.Register(proto.IDTextChatMsgReq, h.DealChatTextMsg)
	e.Register(proto.IDHeartBeatReq, h.HeartBeat)
	e.Register(proto.IDUserOffline, h.UserOffline)
}

// Wait 等待后台 RPC 结束
func (h *LogicHandler) Wait() {
	h.background.Wait()
}

// reply 序列化并发送应答，配合 defer 保证每条请求恰好一个应答
func (h *LogicHandler) reply(sess session.Session, msgID uint16, v any) {
	if err := session.SendJSON(sess, msgID, v); err != nil {
		h.logger.Error("Failed to encode response", "msgId", msgID, "error", err)
	}
}

// routeTo 把通知投递到 uid 所在节点
// 本节点直接推送给会话，其他节点走 RPC；不在线或投递失败只记录日志
func (h *LogicHandler) routeTo(ctx context.Context, uid int64, local func(session.Session), remote func(ctx context.Context, peerName string) error) {
	node, online, err := h.presence.Location(ctx, uid)
	if err != nil {
		h.logger.Warn("Failed to read presence", "uid", uid, "error", err)
		return
	}
	if !online {
		return
	}

	if node == h.presence.SelfName() {
		if sess, ok := h.sessions.Get(uid); ok {
			local(sess)
		}
		return
	}

	if err := remote(ctx, node); err != nil {
		h.logger.Warn("Failed to notify peer", "uid", uid, "peer", node, "error", err)
	}
}

// withUserLock 在 lock:{uid} 内执行 fn
// 超时未抢到锁时仍然执行，可用性优先
func (h *LogicHandler) withUserLock(ctx context.Context, uid int64, fn func()) {
	name := strconv.FormatInt(uid, 10)
	token, err := h.locker.AcquireLock(ctx, name, h.lockCfg.Lease, h.lockCfg.AcquireTimeout)
	if err != nil {
		h.logger.Warn("Proceeding without user lock", "uid", uid, "error", err)
	} else {
		defer func() {
			released, err := h.locker.ReleaseLock(context.WithoutCancel(ctx), name, token)
			if err == nil && !released {
				h.logger.Warn("User lock expired before release", "uid", uid)
			}
		}()
	}
	fn()
}
