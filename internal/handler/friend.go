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

// AddFriendApply 申请添加好友
// 申请记录无论对方是否在线都会落库，通知尽力而为
func (h *LogicHandler) AddFriendApply(ctx context.Context, msg *dispatch.Message) {
	rsp := &proto.ErrorRsp{}
	defer h.reply(msg.Session, proto.IDAddFriendRsp, rsp)

	var req proto.AddFriendReq
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		rsp.Error = appErrors.CodeErrorJSON
		return
	}
	if req.Uid == 0 || req.ToUid == 0 || req.ApplyName == "" {
		rsp.Error = appErrors.CodeUidInvalid
		return
	}

	if err := h.friends.AddFriendApply(ctx, req.Uid, req.ToUid); err != nil {
		h.logger.Warn("Failed to store friend apply", "uid", req.Uid, "toUid", req.ToUid, "error", err)
	}

	notify := proto.AddFriendNotify{
		Error:    appErrors.CodeSuccess,
		ApplyUid: req.Uid,
		Name:     req.ApplyName,
	}
	if info, err := h.profiles.GetBaseInfo(ctx, req.Uid); err == nil {
		notify.Icon = info.Icon
		notify.Sex = info.Sex
		notify.Nick = info.Nick
	}

	h.routeTo(ctx, req.ToUid,
		func(sess session.Session) {
			h.reply(sess, proto.IDNotifyAddFriendReq, notify)
		},
		func(ctx context.Context, peerName string) error {
			_, err := h.peers.NotifyAddFriend(ctx, peerName, &peer.AddFriendReq{
				ApplyUid: notify.ApplyUid,
				Name:     notify.Name,
				Desc:     notify.Desc,
				Icon:     notify.Icon,
				Nick:     notify.Nick,
				Sex:      notify.Sex,
				ToUid:    req.ToUid,
			})
			return err
		})
}

// AuthFriendApply 同意好友申请
// fromuid 为同意方，touid 为申请人
func (h *LogicHandler) AuthFriendApply(ctx context.Context, msg *dispatch.Message) {
	rsp := &proto.AuthFriendRsp{}
	defer h.reply(msg.Session, proto.IDAuthFriendRsp, rsp)

	var req proto.AuthFriendReq
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		rsp.Error = appErrors.CodeErrorJSON
		return
	}
	if req.FromUid == 0 || req.ToUid == 0 {
		rsp.Error = appErrors.CodeUidInvalid
		return
	}

	// 应答附带申请人资料
	if target, err := h.profiles.GetBaseInfo(ctx, req.ToUid); err == nil {
		rsp.Uid = target.Uid
		rsp.Name = target.Name
		rsp.Nick = target.Nick
		rsp.Icon = target.Icon
		rsp.Sex = target.Sex
	} else {
		rsp.Error = appErrors.CodeUidInvalid
	}

	if err := h.friends.AuthFriendApply(ctx, req.FromUid, req.ToUid); err != nil {
		h.logger.Warn("Failed to accept friend apply", "uid", req.FromUid, "toUid", req.ToUid, "error", err)
	}
	if err := h.friends.AddFriend(ctx, req.FromUid, req.ToUid, req.Back); err != nil {
		h.logger.Warn("Failed to add friend", "uid", req.FromUid, "toUid", req.ToUid, "error", err)
	}

	// 通知附带同意方资料
	notify := proto.AuthFriendNotify{
		Error:   appErrors.CodeSuccess,
		FromUid: req.FromUid,
		ToUid:   req.ToUid,
	}
	if approver, err := h.profiles.GetBaseInfo(ctx, req.FromUid); err == nil {
		notify.Name = approver.Name
		notify.Nick = approver.Nick
		notify.Icon = approver.Icon
		notify.Sex = approver.Sex
	} else {
		notify.Error = appErrors.CodeUidInvalid
	}

	h.routeTo(ctx, req.ToUid,
		func(sess session.Session) {
			h.reply(sess, proto.IDNotifyAuthFriendReq, notify)
		},
		func(ctx context.Context, peerName string) error {
			_, err := h.peers.NotifyAuthFriend(ctx, peerName, &peer.AuthFriendReq{
				FromUid: notify.FromUid,
				ToUid:   notify.ToUid,
				Name:    notify.Name,
				Nick:    notify.Nick,
				Icon:    notify.Icon,
				Sex:     notify.Sex,
			})
			return err
		})
}
