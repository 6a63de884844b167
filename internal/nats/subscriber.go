package nats

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

// Poster 上行消息入队，由 *dispatch.Engine 实现
type Poster interface {
	Post(sess session.Session, msgID uint16, data []byte) (uint64, error)
}

// GatewaySubscriber 订阅本节点的上行 Subject，把网关帧转换成分发引擎消息
// NATS 对同一订阅串行回调，入队顺序即网关发送顺序
type GatewaySubscriber struct {
	nc           *nats.Conn
	subject      string
	poster       Poster
	pub          FramePublisher
	subscription *nats.Subscription
	logger       *slog.Logger

	mu    sync.Mutex
	conns map[string]*gatewaySession
}

// NewGatewaySubscriber 创建订阅器，node 为本节点名
func NewGatewaySubscriber(nc *nats.Conn, node string, poster Poster, pub FramePublisher) *GatewaySubscriber {
	return &GatewaySubscriber{
		nc:      nc,
		subject: BuildChatUpstreamSubject(node),
		poster:  poster,
		pub:     pub,
		logger:  slog.Default(),
		conns:   make(map[string]*gatewaySession),
	}
}

// Start 开始订阅
func (s *GatewaySubscriber) Start() error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handleFrame(msg.Data)
	})
	if err != nil {
		return err
	}
	s.subscription = sub
	s.logger.Info("NATS subscriber started", "subject", s.subject)
	return nil
}

// Stop 取消订阅，之后不再有新消息入队
func (s *GatewaySubscriber) Stop() {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}
	s.logger.Info("NATS subscriber stopped")
}

// Connections 当前跟踪的连接数
func (s *GatewaySubscriber) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *GatewaySubscriber) handleFrame(data []byte) {
	var frame UpstreamFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Error("Failed to unmarshal frame", "error", err)
		return
	}
	if frame.GatewayId == "" {
		s.logger.Warn("Frame without gateway id dropped", "connId", frame.ConnId)
		return
	}

	switch frame.Event {
	case EventMessage:
		sess := s.session(frame.GatewayId, frame.ConnId)
		if _, err := s.poster.Post(sess, frame.MsgId, []byte(frame.Data)); err != nil {
			s.logger.Warn("Failed to enqueue message", "sessionId", sess.ID(), "msgId", frame.MsgId, "error", err)
		}

	case EventClosed:
		sess, ok := s.release(frame.GatewayId, frame.ConnId)
		if !ok {
			return
		}
		if _, err := s.poster.Post(sess, proto.IDUserOffline, nil); err != nil {
			s.logger.Warn("Failed to enqueue offline event", "sessionId", sess.ID(), "error", err)
		}

	default:
		s.logger.Warn("Unknown frame event", "event", frame.Event)
	}
}

// session 取出或创建连接对应的会话
func (s *GatewaySubscriber) session(gatewayID string, connID int64) *gatewaySession {
	key := sessionKey(gatewayID, connID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.conns[key]; ok {
		return existing
	}
	sess := newGatewaySession(gatewayID, connID, s.pub)
	s.conns[key] = sess
	return sess
}

func (s *GatewaySubscriber) release(gatewayID string, connID int64) (*gatewaySession, bool) {
	key := sessionKey(gatewayID, connID)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.conns[key]
	if ok {
		delete(s.conns, key)
	}
	return sess, ok
}
