package model

// 好友申请状态
const (
	ApplyStatusPending  = 0 // 待处理
	ApplyStatusAccepted = 1 // 已同意
)

// ApplyInfo 待处理的好友申请（带申请人资料）
type ApplyInfo struct {
	Uid    int64  `json:"uid"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Nick   string `json:"nick"`
	Sex    int    `json:"sex"`
	Desc   string `json:"desc"`
	Status int    `json:"status"`
}

// FriendEdge 好友关系（单向一条记录，双向靠两条记录约定）
type FriendEdge struct {
	Uid       int64  `json:"uid"`
	FriendUid int64  `json:"friendUid"`
	Back      string `json:"back"`
}
