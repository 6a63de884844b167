package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// FramePublisher 下行帧发布
type FramePublisher interface {
	PublishToGateway(gatewayID string, frame *DownstreamFrame) error
}

// MessagePublisher 通过 NATS 发布下行帧
type MessagePublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewMessagePublisher 创建消息发布器
func NewMessagePublisher(nc *nats.Conn) *MessagePublisher {
	return &MessagePublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishToGateway 推送帧到指定网关
func (p *MessagePublisher) PublishToGateway(gatewayID string, frame *DownstreamFrame) error {
	subject := BuildAccessDownstreamSubject(gatewayID)
	data, err := json.Marshal(frame)
	if err != nil {
		p.logger.Error("Failed to marshal frame", "error", err)
		return err
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish to gateway", "gatewayId", gatewayID, "error", err)
		return err
	}

	p.logger.Debug("Published frame to gateway", "gatewayId", gatewayID, "connId", frame.ConnId, "msgId", frame.MsgId)
	return nil
}
