package session

import (
	"encoding/json"
)

// Session 网络层持有的一条客户端连接
// 核心逻辑只持有引用，连接的生命周期由网络层负责
type Session interface {
	// ID 会话唯一标识，写入 user_session:{uid}
	ID() string
	// UserID 已绑定的 uid，未登录为 0
	UserID() int64
	// SetUserID 登录成功后绑定 uid
	SetUserID(uid int64)
	// Send 发送一帧消息，不关心结果
	Send(payload []byte, msgID uint16)
	// NotifyOffline 通知客户端被踢下线
	NotifyOffline(uid int64)
	// Close 请求网络层断开连接
	Close()
}

// SendJSON 序列化后发送
func SendJSON(s Session, msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Send(data, msgID)
	return nil
}
