package nats

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

type fakePublisher struct {
	mu     sync.Mutex
	frames map[string][]*DownstreamFrame
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{frames: make(map[string][]*DownstreamFrame)}
}

func (p *fakePublisher) PublishToGateway(gatewayID string, frame *DownstreamFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames[gatewayID] = append(p.frames[gatewayID], frame)
	return nil
}

type posted struct {
	sess  session.Session
	msgID uint16
	data  string
}

type fakePoster struct {
	msgs []posted
}

func (p *fakePoster) Post(sess session.Session, msgID uint16, data []byte) (uint64, error) {
	p.msgs = append(p.msgs, posted{sess: sess, msgID: msgID, data: string(data)})
	return uint64(len(p.msgs)), nil
}

func frame(t *testing.T, f UpstreamFrame) []byte {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	return data
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "im.chat.chatserver1.upstream", BuildChatUpstreamSubject("chatserver1"))
	assert.Equal(t, "im.access.gw-1.downstream", BuildAccessDownstreamSubject("gw-1"))
}

func TestGatewaySubscriber_MessageAndClose(t *testing.T) {
	poster := &fakePoster{}
	pub := newFakePublisher()
	s := NewGatewaySubscriber(nil, "chatserver1", poster, pub)

	s.handleFrame(frame(t, UpstreamFrame{GatewayId: "gw-1", ConnId: 7, Event: EventMessage, MsgId: proto.IDChatLogin, Data: `{"uid":42}`}))
	s.handleFrame(frame(t, UpstreamFrame{GatewayId: "gw-1", ConnId: 7, Event: EventMessage, MsgId: proto.IDHeartBeatReq, Data: `{}`}))
	s.handleFrame(frame(t, UpstreamFrame{GatewayId: "gw-2", ConnId: 7, Event: EventMessage, MsgId: proto.IDHeartBeatReq}))

	require.Len(t, poster.msgs, 3)
	assert.Equal(t, proto.IDChatLogin, poster.msgs[0].msgID)
	assert.Equal(t, `{"uid":42}`, poster.msgs[0].data)
	// 同一连接复用同一会话
	assert.Same(t, poster.msgs[0].sess, poster.msgs[1].sess)
	assert.NotEqual(t, poster.msgs[0].sess.ID(), poster.msgs[2].sess.ID())
	assert.Equal(t, 2, s.Connections())

	s.handleFrame(frame(t, UpstreamFrame{GatewayId: "gw-1", ConnId: 7, Event: EventClosed}))
	require.Len(t, poster.msgs, 4)
	assert.Equal(t, proto.IDUserOffline, poster.msgs[3].msgID)
	assert.Same(t, poster.msgs[0].sess, poster.msgs[3].sess)
	assert.Equal(t, 1, s.Connections())

	// 重复的断开事件忽略
	s.handleFrame(frame(t, UpstreamFrame{GatewayId: "gw-1", ConnId: 7, Event: EventClosed}))
	assert.Len(t, poster.msgs, 4)
}

func TestGatewaySubscriber_BadFrames(t *testing.T) {
	poster := &fakePoster{}
	s := NewGatewaySubscriber(nil, "chatserver1", poster, newFakePublisher())

	s.handleFrame([]byte("not json"))
	s.handleFrame(frame(t, UpstreamFrame{ConnId: 1, Event: EventMessage}))
	s.handleFrame(frame(t, UpstreamFrame{GatewayId: "gw-1", ConnId: 1, Event: "weird"}))

	assert.Empty(t, poster.msgs)
}

func TestGatewaySession_Downstream(t *testing.T) {
	pub := newFakePublisher()
	sess := newGatewaySession("gw-1", 9, pub)

	assert.Equal(t, "gw-1:9", sess.ID())
	sess.SetUserID(42)
	assert.Equal(t, int64(42), sess.UserID())

	sess.Send([]byte(`{"error":0}`), proto.IDHeartBeatRsp)
	sess.NotifyOffline(42)
	sess.Close()

	frames := pub.frames["gw-1"]
	require.Len(t, frames, 3)

	assert.Equal(t, int64(9), frames[0].ConnId)
	assert.Equal(t, proto.IDHeartBeatRsp, frames[0].MsgId)
	assert.Equal(t, `{"error":0}`, frames[0].Data)

	assert.Equal(t, proto.IDNotifyOffLineReq, frames[1].MsgId)
	assert.JSONEq(t, `{"error":0,"uid":42}`, frames[1].Data)

	assert.True(t, frames[2].Close)
}
