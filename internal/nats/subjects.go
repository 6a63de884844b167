package nats

// NATS Subject 约定
//
//	网关 -> 聊天节点: im.chat.{node}.upstream
//	聊天节点 -> 网关: im.access.{gatewayId}.downstream
const (
	SubjectChatUpstreamPrefix = "im.chat."
	SubjectChatUpstreamSuffix = ".upstream"

	SubjectAccessDownstreamPrefix = "im.access."
	SubjectAccessDownstreamSuffix = ".downstream"
)

// BuildChatUpstreamSubject 构建聊天节点上行 Subject
func BuildChatUpstreamSubject(node string) string {
	return SubjectChatUpstreamPrefix + node + SubjectChatUpstreamSuffix
}

// BuildAccessDownstreamSubject 构建网关下行 Subject
func BuildAccessDownstreamSubject(gatewayID string) string {
	return SubjectAccessDownstreamPrefix + gatewayID + SubjectAccessDownstreamSuffix
}

// 上行帧事件类型
const (
	EventMessage = "message" // 客户端消息
	EventClosed  = "closed"  // 连接已断开
)

// UpstreamFrame 网关转发的上行帧
type UpstreamFrame struct {
	GatewayId string `json:"gatewayId"`
	ConnId    int64  `json:"connId"`
	Event     string `json:"event"`
	MsgId     uint16 `json:"msgId,omitempty"`
	Data      string `json:"data,omitempty"` // 原始消息体
}

// DownstreamFrame 发往网关的下行帧
type DownstreamFrame struct {
	ConnId int64  `json:"connId"`
	MsgId  uint16 `json:"msgId,omitempty"`
	Data   string `json:"data,omitempty"`
	Close  bool   `json:"close,omitempty"` // 要求网关断开连接
}
