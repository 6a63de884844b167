package peer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"sudooom.im.chat/internal/config"
	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/metrics"
	"sudooom.im.chat/internal/pool"
)

// ErrPeerNotFound 配置中没有该节点
var ErrPeerNotFound = errors.New("peer: unknown peer")

// Client 节点间 RPC 客户端，每个对端节点一个连接池
// 启动时构建，运行期不增删节点
type Client struct {
	pools       map[string]*pool.Pool[*grpc.ClientConn]
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewClient 为每个对端节点建立连接池
func NewClient(ctx context.Context, peers []config.PeerConfig, cfg config.PeerPoolConfig, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)

	c := &Client{
		pools:       make(map[string]*pool.Pool[*grpc.ClientConn], len(peers)),
		callTimeout: cfg.CallTimeout,
		logger:      slog.Default(),
	}

	for _, peer := range peers {
		target := peer.Addr()
		p, err := pool.New(ctx, pool.Config{
			Size:            cfg.Size,
			CheckoutTimeout: cfg.CheckoutTimeout,
		}, func(ctx context.Context) (*grpc.ClientConn, error) {
			return grpc.NewClient(target, dialOpts...)
		}, func(conn *grpc.ClientConn) {
			_ = conn.Close()
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("peer %s: %w", peer.Name, err)
		}
		c.pools[peer.Name] = p
		c.logger.Info("Peer pool ready", "peer", peer.Name, "addr", target, "size", p.Size())
	}

	return c, nil
}

// Close 关闭所有连接池
func (c *Client) Close() {
	for _, p := range c.pools {
		p.Close()
	}
}

// NotifyAddFriend 通知对端节点有新的好友申请
func (c *Client) NotifyAddFriend(ctx context.Context, peerName string, req *AddFriendReq) (*AddFriendRsp, error) {
	rsp := new(AddFriendRsp)
	if err := c.invoke(ctx, peerName, methodNotifyAddFriend, req, rsp); err != nil {
		return &AddFriendRsp{
			Error:    appErrors.CodeRPCFailed,
			ApplyUid: req.ApplyUid,
			ToUid:    req.ToUid,
		}, err
	}
	return rsp, nil
}

// NotifyAuthFriend 通知对端节点好友申请已通过
func (c *Client) NotifyAuthFriend(ctx context.Context, peerName string, req *AuthFriendReq) (*AuthFriendRsp, error) {
	rsp := new(AuthFriendRsp)
	if err := c.invoke(ctx, peerName, methodNotifyAuthFriend, req, rsp); err != nil {
		return &AuthFriendRsp{
			Error:   appErrors.CodeRPCFailed,
			FromUid: req.FromUid,
			ToUid:   req.ToUid,
		}, err
	}
	return rsp, nil
}

// NotifyTextChatMsg 转发文本消息到对端节点
func (c *Client) NotifyTextChatMsg(ctx context.Context, peerName string, req *TextChatMsgReq) (*TextChatMsgRsp, error) {
	rsp := new(TextChatMsgRsp)
	if err := c.invoke(ctx, peerName, methodNotifyTextChatMsg, req, rsp); err != nil {
		return &TextChatMsgRsp{
			Error:    appErrors.CodeRPCFailed,
			FromUid:  req.FromUid,
			ToUid:    req.ToUid,
			TextMsgs: req.TextMsgs,
		}, err
	}
	return rsp, nil
}

// NotifyKickUser 要求对端节点踢掉 uid
func (c *Client) NotifyKickUser(ctx context.Context, peerName string, req *KickUserReq) (*KickUserRsp, error) {
	rsp := new(KickUserRsp)
	if err := c.invoke(ctx, peerName, methodNotifyKickUser, req, rsp); err != nil {
		return &KickUserRsp{
			Error: appErrors.CodeRPCFailed,
			Uid:   req.Uid,
		}, err
	}
	return rsp, nil
}

// invoke 借出连接发起一次调用，无论结果如何都归还连接
// 所有失败统一包装为 ErrRPCFailed
func (c *Client) invoke(ctx context.Context, peerName, method string, req, rsp any) (err error) {
	code := appErrors.CodeSuccess
	defer func() {
		if err != nil {
			code = appErrors.CodeRPCFailed
			c.logger.Warn("Peer RPC failed", "peer", peerName, "method", method, "error", err)
		}
		metrics.PeerRPC.WithLabelValues(peerName, method, strconv.Itoa(code)).Inc()
	}()

	p, ok := c.pools[peerName]
	if !ok {
		return appErrors.ErrRPCFailed.Wrap(fmt.Errorf("%w: %s", ErrPeerNotFound, peerName))
	}

	res, err := p.Get(ctx)
	if err != nil {
		return appErrors.ErrRPCFailed.Wrap(err)
	}
	defer p.Put(res)

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	if err := res.Value().Invoke(ctx, method, req, rsp); err != nil {
		return appErrors.ErrRPCFailed.Wrap(err)
	}
	return nil
}
