package peer

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"sudooom.im.chat/internal/config"
	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/model"
	"sudooom.im.chat/internal/repository"
	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

type fakeProfiles map[int64]*model.UserInfo

func (f fakeProfiles) GetBaseInfo(_ context.Context, uid int64) (*model.UserInfo, error) {
	if u, ok := f[uid]; ok {
		return u, nil
	}
	return nil, appErrors.ErrUidInvalid.Wrap(repository.ErrNotFound)
}

const testPeer = "chatserver2"

// startPeer 启动一个基于 bufconn 的对端节点，返回其会话目录和指向它的客户端
func startPeer(t *testing.T, profiles ProfileLookup) (*session.Directory, *Client) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	dir := session.NewDirectory()
	srv := NewServer("", NewService(dir, profiles))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := NewClient(context.Background(),
		[]config.PeerConfig{{Name: testPeer, Host: "127.0.0.1", Port: 50056}},
		config.PeerPoolConfig{Size: 2, CheckoutTimeout: time.Second, CallTimeout: time.Second},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return dir, client
}

func decodeFrame[T any](t *testing.T, frame session.SentFrame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(frame.Payload, &v))
	return v
}

func TestPeer_NotifyAddFriend(t *testing.T) {
	dir, client := startPeer(t, fakeProfiles{})
	target := session.NewRecorder("sess-2")
	dir.Set(2, target)

	rsp, err := client.NotifyAddFriend(context.Background(), testPeer, &AddFriendReq{
		ApplyUid: 1,
		Name:     "bob",
		Icon:     "icon-1",
		Nick:     "B",
		Sex:      1,
		ToUid:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, appErrors.CodeSuccess, rsp.Error)
	assert.Equal(t, int64(1), rsp.ApplyUid)
	assert.Equal(t, int64(2), rsp.ToUid)

	frame, ok := target.Last()
	require.True(t, ok)
	assert.Equal(t, proto.IDNotifyAddFriendReq, frame.MsgID)
	notify := decodeFrame[proto.AddFriendNotify](t, frame)
	assert.Equal(t, int64(1), notify.ApplyUid)
	assert.Equal(t, "bob", notify.Name)
	assert.Equal(t, "icon-1", notify.Icon)
}

func TestPeer_NotifyAuthFriend_FallbackProfile(t *testing.T) {
	dir, client := startPeer(t, fakeProfiles{
		5: {Uid: 5, Name: "carol", Nick: "C", Icon: "icon-5", Sex: 2},
	})
	target := session.NewRecorder("sess-6")
	dir.Set(6, target)

	rsp, err := client.NotifyAuthFriend(context.Background(), testPeer, &AuthFriendReq{FromUid: 5, ToUid: 6})
	require.NoError(t, err)
	assert.Equal(t, appErrors.CodeSuccess, rsp.Error)

	frame, ok := target.Last()
	require.True(t, ok)
	assert.Equal(t, proto.IDNotifyAuthFriendReq, frame.MsgID)
	notify := decodeFrame[proto.AuthFriendNotify](t, frame)
	assert.Equal(t, "carol", notify.Name)
	assert.Equal(t, 2, notify.Sex)
}

func TestPeer_NotifyTextChatMsg(t *testing.T) {
	dir, client := startPeer(t, fakeProfiles{})
	target := session.NewRecorder("sess-2")
	dir.Set(2, target)

	msgs := []TextChatData{{MsgId: "m1", MsgContent: "hi"}, {MsgId: "m2", MsgContent: "there"}}
	rsp, err := client.NotifyTextChatMsg(context.Background(), testPeer, &TextChatMsgReq{FromUid: 1, ToUid: 2, TextMsgs: msgs})
	require.NoError(t, err)
	assert.Equal(t, msgs, rsp.TextMsgs)

	frame, ok := target.Last()
	require.True(t, ok)
	assert.Equal(t, proto.IDNotifyTextChatMsg, frame.MsgID)
	notify := decodeFrame[proto.TextChatRsp](t, frame)
	assert.Equal(t, []proto.TextMsg{{Content: "hi", MsgId: "m1"}, {Content: "there", MsgId: "m2"}}, notify.TextArray)
}

func TestPeer_NotifyKickUser(t *testing.T) {
	dir, client := startPeer(t, fakeProfiles{})
	old := session.NewRecorder("sess-7")
	dir.Set(7, old)

	rsp, err := client.NotifyKickUser(context.Background(), testPeer, &KickUserReq{Uid: 7})
	require.NoError(t, err)
	assert.Equal(t, appErrors.CodeSuccess, rsp.Error)
	assert.Equal(t, int64(7), rsp.Uid)

	assert.Equal(t, []int64{7}, old.Offlines())
	assert.True(t, old.Closed())
	_, ok := dir.Get(7)
	assert.False(t, ok)
}

func TestPeer_NotifyKickUser_Absent(t *testing.T) {
	dir, client := startPeer(t, fakeProfiles{})

	rsp, err := client.NotifyKickUser(context.Background(), testPeer, &KickUserReq{Uid: 7})
	require.NoError(t, err)
	assert.Equal(t, appErrors.CodeSuccess, rsp.Error)
	assert.Equal(t, 0, dir.Count())
}

func TestPeer_AbsentTargetIsNoop(t *testing.T) {
	_, client := startPeer(t, fakeProfiles{})

	rsp, err := client.NotifyAddFriend(context.Background(), testPeer, &AddFriendReq{ApplyUid: 1, ToUid: 99})
	require.NoError(t, err)
	assert.Equal(t, appErrors.CodeSuccess, rsp.Error)
}

func TestClient_UnknownPeer(t *testing.T) {
	_, client := startPeer(t, fakeProfiles{})

	rsp, err := client.NotifyTextChatMsg(context.Background(), "chatserver9", &TextChatMsgReq{FromUid: 1, ToUid: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPeerNotFound)
	assert.Equal(t, appErrors.CodeRPCFailed, rsp.Error)
	assert.Equal(t, int64(1), rsp.FromUid)
	assert.Equal(t, int64(2), rsp.ToUid)
}

func TestClient_TransportFailure(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	// 监听器关闭后所有拨号都会失败
	require.NoError(t, lis.Close())

	client, err := NewClient(context.Background(),
		[]config.PeerConfig{{Name: testPeer, Host: "127.0.0.1", Port: 50056}},
		config.PeerPoolConfig{Size: 1, CheckoutTimeout: time.Second, CallTimeout: 200 * time.Millisecond},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	defer client.Close()

	rsp, err := client.NotifyKickUser(context.Background(), testPeer, &KickUserReq{Uid: 3})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRPCFailed))
	assert.Equal(t, appErrors.CodeRPCFailed, rsp.Error)
	assert.Equal(t, int64(3), rsp.Uid)
}
