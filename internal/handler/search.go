package handler

import (
	"context"
	"encoding/json"
	"strconv"

	"sudooom.im.chat/internal/dispatch"
	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/model"
	"sudooom.im.chat/pkg/proto"
)

// SearchInfo 搜索用户，纯数字按 uid 查找，否则按用户名查找
func (h *LogicHandler) SearchInfo(ctx context.Context, msg *dispatch.Message) {
	rsp := &proto.SearchRsp{}
	defer h.reply(msg.Session, proto.IDSearchUserRsp, rsp)

	var req proto.SearchReq
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		rsp.Error = appErrors.CodeErrorJSON
		return
	}

	var (
		info *model.UserInfo
		err  error
	)
	if isDigits(req.Uid) {
		uid, perr := strconv.ParseInt(req.Uid, 10, 64)
		if perr != nil {
			rsp.Error = appErrors.CodeUidInvalid
			return
		}
		info, err = h.profiles.GetBaseInfo(ctx, uid)
	} else {
		info, err = h.profiles.GetByName(ctx, req.Uid)
	}
	if err != nil {
		rsp.Error = appErrors.CodeUidInvalid
		return
	}

	rsp.Uid = info.Uid
	rsp.Name = info.Name
	rsp.Email = info.Email
	rsp.Nick = info.Nick
	rsp.Desc = info.Desc
	rsp.Sex = info.Sex
	rsp.Icon = info.Icon
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
