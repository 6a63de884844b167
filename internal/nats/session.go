package nats

import (
	"strconv"
	"sync/atomic"

	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

// gatewaySession 网关上的一条客户端连接
type gatewaySession struct {
	id        string
	gatewayID string
	connID    int64
	uid       atomic.Int64
	pub       FramePublisher
}

var _ session.Session = (*gatewaySession)(nil)

// sessionKey 会话 ID，网关 ID 全局唯一，连接 ID 在网关内唯一
func sessionKey(gatewayID string, connID int64) string {
	return gatewayID + ":" + strconv.FormatInt(connID, 10)
}

func newGatewaySession(gatewayID string, connID int64, pub FramePublisher) *gatewaySession {
	return &gatewaySession{
		id:        sessionKey(gatewayID, connID),
		gatewayID: gatewayID,
		connID:    connID,
		pub:       pub,
	}
}

func (s *gatewaySession) ID() string { return s.id }

func (s *gatewaySession) UserID() int64 { return s.uid.Load() }

func (s *gatewaySession) SetUserID(uid int64) { s.uid.Store(uid) }

// Send 发布失败由 publisher 记录日志，这里忽略
func (s *gatewaySession) Send(payload []byte, msgID uint16) {
	_ = s.pub.PublishToGateway(s.gatewayID, &DownstreamFrame{
		ConnId: s.connID,
		MsgId:  msgID,
		Data:   string(payload),
	})
}

func (s *gatewaySession) NotifyOffline(uid int64) {
	_ = session.SendJSON(s, proto.IDNotifyOffLineReq, proto.OfflineNotify{
		Error: appErrors.CodeSuccess,
		Uid:   uid,
	})
}

func (s *gatewaySession) Close() {
	_ = s.pub.PublishToGateway(s.gatewayID, &DownstreamFrame{
		ConnId: s.connID,
		Close:  true,
	})
}
