package handler

import (
	"context"

	"sudooom.im.chat/internal/dispatch"
	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/pkg/proto"
)

// HeartBeat 心跳，不改变任何状态
func (h *LogicHandler) HeartBeat(_ context.Context, msg *dispatch.Message) {
	h.reply(msg.Session, proto.IDHeartBeatRsp, proto.ErrorRsp{Error: appErrors.CodeSuccess})
}
