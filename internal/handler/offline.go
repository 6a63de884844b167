package handler

import (
	"context"

	"sudooom.im.chat/internal/dispatch"
)

// UserOffline 网关报告连接断开
// 只清理仍属于这个会话的记录，同一 uid 的新登录不受影响
func (h *LogicHandler) UserOffline(ctx context.Context, msg *dispatch.Message) {
	sess := msg.Session
	uid := sess.UserID()
	if uid == 0 {
		return
	}

	h.withUserLock(ctx, uid, func() {
		h.sessions.RemoveIf(uid, sess)
		removed, err := h.presence.Unbind(ctx, uid, sess.ID())
		if err != nil {
			h.logger.Warn("Failed to clear presence", "uid", uid, "error", err)
			return
		}
		h.logger.Info("User offline", "uid", uid, "sessionId", sess.ID(), "presenceCleared", removed)
	})
}
