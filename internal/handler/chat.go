package handler

import (
	"context"
	"encoding/json"

	"sudooom.im.chat/internal/dispatch"
	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/peer"
	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

// DealChatTextMsg 文本消息：原样回显给发送方，同时转发给接收方
// 接收方投递失败不影响发送方的应答
func (h *LogicHandler) DealChatTextMsg(ctx context.Context, msg *dispatch.Message) {
	rsp := &proto.TextChatRsp{TextArray: []proto.TextMsg{}}
	defer h.reply(msg.Session, proto.IDTextChatMsgRsp, rsp)

	var req proto.TextChatReq
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		rsp.Error = appErrors.CodeErrorJSON
		return
	}

	rsp.FromUid = req.FromUid
	rsp.ToUid = req.ToUid
	rsp.TextArray = req.Texts()

	notify := *rsp
	h.routeTo(ctx, req.ToUid,
		func(sess session.Session) {
			h.reply(sess, proto.IDNotifyTextChatMsg, notify)
		},
		func(ctx context.Context, peerName string) error {
			msgs := make([]peer.TextChatData, 0, len(notify.TextArray))
			for _, t := range notify.TextArray {
				msgs = append(msgs, peer.TextChatData{MsgId: t.MsgId, MsgContent: t.Content})
			}
			_, err := h.peers.NotifyTextChatMsg(ctx, peerName, &peer.TextChatMsgReq{
				FromUid:  req.FromUid,
				ToUid:    req.ToUid,
				TextMsgs: msgs,
			})
			return err
		})
}
