package model

// UserInfo 用户基础信息，同时也是 user_base_info:{uid} / name_info:{name} 中缓存的 JSON 结构
type UserInfo struct {
	Uid   int64  `json:"uid"`
	Name  string `json:"name"`
	Pwd   string `json:"pwd"`
	Email string `json:"email"`
	Nick  string `json:"nick"`
	Desc  string `json:"desc"`
	Sex   int    `json:"sex"`
	Icon  string `json:"icon"`
	Back  string `json:"back,omitempty"` // 好友备注，仅好友列表中有值
}
