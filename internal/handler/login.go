package handler

import (
	"context"
	"encoding/json"
	"time"

	"sudooom.im.chat/internal/dispatch"
	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/peer"
	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

// Login 登录聊天服务器
func (h *LogicHandler) Login(ctx context.Context, msg *dispatch.Message) {
	rsp := &proto.LoginRsp{}
	defer h.reply(msg.Session, proto.IDChatLoginRsp, rsp)

	var req proto.LoginReq
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		rsp.Error = appErrors.CodeErrorJSON
		return
	}
	if req.Uid <= 0 {
		rsp.Error = appErrors.CodeUidInvalid
		return
	}
	if req.Token == "" {
		rsp.Error = appErrors.CodeTokenInvalid
		return
	}

	if err := h.presence.CheckToken(ctx, req.Uid, req.Token); err != nil {
		h.logger.Info("Login rejected", "uid", req.Uid, "error", err)
		rsp.Error = appErrors.GetCode(err)
		return
	}

	info, err := h.profiles.GetBaseInfo(ctx, req.Uid)
	if err != nil {
		rsp.Error = appErrors.CodeUidInvalid
		return
	}
	rsp.Uid = info.Uid
	rsp.Pwd = info.Pwd
	rsp.Name = info.Name
	rsp.Email = info.Email
	rsp.Nick = info.Nick
	rsp.Desc = info.Desc
	rsp.Sex = info.Sex
	rsp.Icon = info.Icon

	applyList, err := h.friends.GetApplyList(ctx, req.Uid, 0, applyListLimit)
	if err != nil {
		h.logger.Warn("Failed to load apply list", "uid", req.Uid, "error", err)
	}
	rsp.ApplyList = applyList

	friendList, err := h.friends.GetFriendList(ctx, req.Uid)
	if err != nil {
		h.logger.Warn("Failed to load friend list", "uid", req.Uid, "error", err)
	}
	rsp.FriendList = friendList

	h.withUserLock(ctx, req.Uid, func() {
		h.takeOver(ctx, req.Uid, msg.Session)
	})

	h.logger.Info("User logged in", "uid", req.Uid, "sessionId", msg.Session.ID())
}

// takeOver 踢掉 uid 之前的会话并绑定到新会话，调用方需持有 lock:{uid}
func (h *LogicHandler) takeOver(ctx context.Context, uid int64, sess session.Session) {
	node, online, err := h.presence.Location(ctx, uid)
	if err != nil {
		h.logger.Warn("Failed to read presence", "uid", uid, "error", err)
	}

	if old, ok := h.sessions.Get(uid); ok && old.ID() != sess.ID() {
		old.NotifyOffline(uid)
		old.Close()
		h.sessions.RemoveIf(uid, old)
		h.logger.Info("Kicked previous local session", "uid", uid, "sessionId", old.ID())
	}

	if online && node != h.presence.SelfName() {
		h.kickRemote(ctx, node, uid)
	}

	sess.SetUserID(uid)
	h.sessions.Set(uid, sess)
	if err := h.presence.Bind(ctx, uid, sess.ID()); err != nil {
		h.logger.Warn("Failed to write presence", "uid", uid, "error", err)
	}
}

// kickRemote 异步通知 uid 原来所在的节点踢人，不等待结果
func (h *LogicHandler) kickRemote(ctx context.Context, node string, uid int64) {
	timeout := h.lockCfg.Lease
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer cancel()

		rsp, err := h.peers.NotifyKickUser(ctx, node, &peer.KickUserReq{Uid: uid})
		if err != nil {
			h.logger.Warn("Failed to kick remote session", "uid", uid, "peer", node, "error", err)
			return
		}
		h.logger.Info("Kicked remote session", "uid", uid, "peer", node, "code", rsp.Error)
	}()
}
