package proto

import (
	"encoding/json"

	"sudooom.im.chat/internal/model"
)

// ============== 消息 ID（与客户端约定） ==============

const (
	IDChatLogin           uint16 = 1005 // 登录聊天服务器
	IDChatLoginRsp        uint16 = 1006
	IDSearchUserReq       uint16 = 1007 // 搜索用户
	IDSearchUserRsp       uint16 = 1008
	IDAddFriendReq        uint16 = 1009 // 申请添加好友
	IDAddFriendRsp        uint16 = 1010
	IDNotifyAddFriendReq  uint16 = 1011 // 通知对方有好友申请
	IDAuthFriendReq       uint16 = 1013 // 同意好友申请
	IDAuthFriendRsp       uint16 = 1014
	IDNotifyAuthFriendReq uint16 = 1015 // 通知对方申请已通过
	IDTextChatMsgReq      uint16 = 1017 // 文本聊天
	IDTextChatMsgRsp      uint16 = 1018
	IDNotifyTextChatMsg   uint16 = 1019 // 转发文本消息给接收方
	IDNotifyOffLineReq    uint16 = 1021 // 通知被踢下线
	IDHeartBeatReq        uint16 = 1023 // 心跳
	IDHeartBeatRsp        uint16 = 1024

	// IDUserOffline 网关通知连接已断开，仅节点内部使用，不会发给客户端
	IDUserOffline uint16 = 0xFF01
)

// ============== 上行请求 ==============

// LoginReq 登录请求
type LoginReq struct {
	Uid   int64  `json:"uid"`
	Token string `json:"token"`
}

// SearchReq 搜索请求，uid 为纯数字按 uid 查，否则按用户名查
type SearchReq struct {
	Uid string `json:"uid"`
}

// AddFriendReq 好友申请
type AddFriendReq struct {
	Uid       int64  `json:"uid"`
	ApplyName string `json:"applyname"`
	BakName   string `json:"bakname"`
	ToUid     int64  `json:"touid"`
}

// AuthFriendReq 同意好友申请
type AuthFriendReq struct {
	FromUid int64  `json:"fromuid"`
	ToUid   int64  `json:"touid"`
	Back    string `json:"back"`
}

// TextChatReq 文本聊天
// text_array 缺失或格式错误时按空数组处理，见 Texts
type TextChatReq struct {
	FromUid   int64           `json:"fromuid"`
	ToUid     int64           `json:"touid"`
	TextArray json.RawMessage `json:"text_array"`
}

// TextMsg 单条文本
type TextMsg struct {
	Content string `json:"content"`
	MsgId   string `json:"msgid"`
}

// Texts 宽松解析 text_array
func (r *TextChatReq) Texts() []TextMsg {
	if len(r.TextArray) == 0 {
		return []TextMsg{}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(r.TextArray, &raw); err != nil {
		return []TextMsg{}
	}

	texts := make([]TextMsg, 0, len(raw))
	for _, item := range raw {
		// 单条缺字段或类型不对时取默认值
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			texts = append(texts, TextMsg{})
			continue
		}
		var msg TextMsg
		_ = json.Unmarshal(fields["content"], &msg.Content)
		_ = json.Unmarshal(fields["msgid"], &msg.MsgId)
		texts = append(texts, msg)
	}
	return texts
}

// HeartBeatReq 心跳
type HeartBeatReq struct {
	FromUid int64 `json:"fromuid"`
}

// ============== 下行应答 ==============

// ErrorRsp 仅含错误码的应答
type ErrorRsp struct {
	Error int `json:"error"`
}

// LoginRsp 登录应答
type LoginRsp struct {
	Error      int                `json:"error"`
	Uid        int64              `json:"uid,omitempty"`
	Pwd        string             `json:"pwd,omitempty"`
	Name       string             `json:"name,omitempty"`
	Email      string             `json:"email,omitempty"`
	Nick       string             `json:"nick,omitempty"`
	Desc       string             `json:"desc,omitempty"`
	Sex        int                `json:"sex,omitempty"`
	Icon       string             `json:"icon,omitempty"`
	ApplyList  []*model.ApplyInfo `json:"apply_list,omitempty"`
	FriendList []*model.UserInfo  `json:"friend_list,omitempty"`
}

// SearchRsp 搜索应答
type SearchRsp struct {
	Error int    `json:"error"`
	Uid   int64  `json:"uid,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Nick  string `json:"nick,omitempty"`
	Desc  string `json:"desc,omitempty"`
	Sex   int    `json:"sex,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// AuthFriendRsp 同意好友应答，附带对方资料
type AuthFriendRsp struct {
	Error int    `json:"error"`
	Uid   int64  `json:"uid,omitempty"`
	Name  string `json:"name,omitempty"`
	Nick  string `json:"nick,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Sex   int    `json:"sex,omitempty"`
}

// TextChatRsp 文本聊天应答，同时也是转发给接收方的通知体
type TextChatRsp struct {
	Error     int       `json:"error"`
	FromUid   int64     `json:"fromuid"`
	ToUid     int64     `json:"touid"`
	TextArray []TextMsg `json:"text_array"`
}

// ============== 通知 ==============

// AddFriendNotify 好友申请通知
type AddFriendNotify struct {
	Error    int    `json:"error"`
	ApplyUid int64  `json:"applyuid"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	Icon     string `json:"icon,omitempty"`
	Sex      int    `json:"sex,omitempty"`
	Nick     string `json:"nick,omitempty"`
}

// AuthFriendNotify 好友申请通过通知，附带同意方资料
type AuthFriendNotify struct {
	Error   int    `json:"error"`
	FromUid int64  `json:"fromuid"`
	ToUid   int64  `json:"touid"`
	Name    string `json:"name,omitempty"`
	Nick    string `json:"nick,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Sex     int    `json:"sex,omitempty"`
}

// OfflineNotify 被踢下线通知
type OfflineNotify struct {
	Error int   `json:"error"`
	Uid   int64 `json:"uid"`
}
