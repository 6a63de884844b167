package peer

// ============== 节点间 RPC 消息 ==============
// 每个应答都带 error 码并回显请求中的标识

// AddFriendReq 好友申请通知，附带申请人资料
type AddFriendReq struct {
	ApplyUid int64  `json:"applyuid"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	Icon     string `json:"icon"`
	Nick     string `json:"nick"`
	Sex      int    `json:"sex"`
	ToUid    int64  `json:"touid"`
}

type AddFriendRsp struct {
	Error    int   `json:"error"`
	ApplyUid int64 `json:"applyuid"`
	ToUid    int64 `json:"touid"`
}

// AuthFriendReq 好友申请通过通知，FromUid 为同意方
// Name 为空时由接收方自行查询同意方资料
type AuthFriendReq struct {
	FromUid int64  `json:"fromuid"`
	ToUid   int64  `json:"touid"`
	Name    string `json:"name,omitempty"`
	Nick    string `json:"nick,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Sex     int    `json:"sex,omitempty"`
}

type AuthFriendRsp struct {
	Error   int   `json:"error"`
	FromUid int64 `json:"fromuid"`
	ToUid   int64 `json:"touid"`
}

// TextChatData 单条文本消息
type TextChatData struct {
	MsgId      string `json:"msgid"`
	MsgContent string `json:"msgcontent"`
}

type TextChatMsgReq struct {
	FromUid  int64          `json:"fromuid"`
	ToUid    int64          `json:"touid"`
	TextMsgs []TextChatData `json:"textmsgs"`
}

type TextChatMsgRsp struct {
	Error    int            `json:"error"`
	FromUid  int64          `json:"fromuid"`
	ToUid    int64          `json:"touid"`
	TextMsgs []TextChatData `json:"textmsgs"`
}

// KickUserReq 要求对端踢掉 uid 的本地会话
type KickUserReq struct {
	Uid int64 `json:"uid"`
}

type KickUserRsp struct {
	Error int   `json:"error"`
	Uid   int64 `json:"uid"`
}
