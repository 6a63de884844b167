package peer

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	appErrors "sudooom.im.chat/internal/errors"
	"sudooom.im.chat/internal/model"
	"sudooom.im.chat/internal/session"
	"sudooom.im.chat/pkg/proto"
)

// ProfileLookup 查询用户资料
type ProfileLookup interface {
	GetBaseInfo(ctx context.Context, uid int64) (*model.UserInfo, error)
}

// Service 处理其他节点发来的通知
// 目标用户不在本节点时直接返回成功，不做任何事
type Service struct {
	sessions *session.Directory
	profiles ProfileLookup
	logger   *slog.Logger
}

// NewService 创建 RPC 服务
func NewService(sessions *session.Directory, profiles ProfileLookup) *Service {
	return &Service{
		sessions: sessions,
		profiles: profiles,
		logger:   slog.Default(),
	}
}

// NotifyAddFriend 推送好友申请给本地用户
func (s *Service) NotifyAddFriend(ctx context.Context, req *AddFriendReq) (*AddFriendRsp, error) {
	rsp := &AddFriendRsp{
		Error:    appErrors.CodeSuccess,
		ApplyUid: req.ApplyUid,
		ToUid:    req.ToUid,
	}

	sess, ok := s.sessions.Get(req.ToUid)
	if !ok {
		return rsp, nil
	}

	notify := proto.AddFriendNotify{
		Error:    appErrors.CodeSuccess,
		ApplyUid: req.ApplyUid,
		Name:     req.Name,
		Desc:     req.Desc,
		Icon:     req.Icon,
		Sex:      req.Sex,
		Nick:     req.Nick,
	}
	if err := session.SendJSON(sess, proto.IDNotifyAddFriendReq, notify); err != nil {
		s.logger.Error("Failed to encode notify", "uid", req.ToUid, "error", err)
	}
	return rsp, nil
}

// NotifyAuthFriend 推送好友申请通过通知给本地用户
func (s *Service) NotifyAuthFriend(ctx context.Context, req *AuthFriendReq) (*AuthFriendRsp, error) {
	rsp := &AuthFriendRsp{
		Error:   appErrors.CodeSuccess,
		FromUid: req.FromUid,
		ToUid:   req.ToUid,
	}

	sess, ok := s.sessions.Get(req.ToUid)
	if !ok {
		return rsp, nil
	}

	notify := proto.AuthFriendNotify{
		Error:   appErrors.CodeSuccess,
		FromUid: req.FromUid,
		ToUid:   req.ToUid,
		Name:    req.Name,
		Nick:    req.Nick,
		Icon:    req.Icon,
		Sex:     req.Sex,
	}

	// 旧版本节点不携带同意方资料
	if req.Name == "" {
		info, err := s.profiles.GetBaseInfo(ctx, req.FromUid)
		if err != nil {
			notify.Error = appErrors.CodeUidInvalid
		} else {
			notify.Name = info.Name
			notify.Nick = info.Nick
			notify.Icon = info.Icon
			notify.Sex = info.Sex
		}
	}

	if err := session.SendJSON(sess, proto.IDNotifyAuthFriendReq, notify); err != nil {
		s.logger.Error("Failed to encode notify", "uid", req.ToUid, "error", err)
	}
	return rsp, nil
}

// NotifyTextChatMsg 推送文本消息给本地用户
func (s *Service) NotifyTextChatMsg(ctx context.Context, req *TextChatMsgReq) (*TextChatMsgRsp, error) {
	rsp := &TextChatMsgRsp{
		Error:    appErrors.CodeSuccess,
		FromUid:  req.FromUid,
		ToUid:    req.ToUid,
		TextMsgs: req.TextMsgs,
	}

	sess, ok := s.sessions.Get(req.ToUid)
	if !ok {
		return rsp, nil
	}

	texts := make([]proto.TextMsg, 0, len(req.TextMsgs))
	for _, m := range req.TextMsgs {
		texts = append(texts, proto.TextMsg{Content: m.MsgContent, MsgId: m.MsgId})
	}
	notify := proto.TextChatRsp{
		Error:     appErrors.CodeSuccess,
		FromUid:   req.FromUid,
		ToUid:     req.ToUid,
		TextArray: texts,
	}
	if err := session.SendJSON(sess, proto.IDNotifyTextChatMsg, notify); err != nil {
		s.logger.Error("Failed to encode notify", "uid", req.ToUid, "error", err)
	}
	return rsp, nil
}

// NotifyKickUser 踢掉本地会话，uid 不在本节点时同样返回成功
func (s *Service) NotifyKickUser(ctx context.Context, req *KickUserReq) (*KickUserRsp, error) {
	rsp := &KickUserRsp{
		Error: appErrors.CodeSuccess,
		Uid:   req.Uid,
	}

	sess, ok := s.sessions.Get(req.Uid)
	if !ok {
		return rsp, nil
	}

	sess.NotifyOffline(req.Uid)
	sess.Close()
	s.sessions.RemoveIf(req.Uid, sess)
	s.logger.Info("User kicked by peer", "uid", req.Uid, "sessionId", sess.ID())
	return rsp, nil
}

// Server 节点间 RPC 服务端
type Server struct {
	grpcServer *grpc.Server
	addr       string
	logger     *slog.Logger
}

// NewServer 创建 gRPC 服务端并注册 ChatService
func NewServer(addr string, srv ChatServiceServer, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)
	grpcServer := grpc.NewServer(opts...)
	RegisterChatServiceServer(grpcServer, srv)

	return &Server{
		grpcServer: grpcServer,
		addr:       addr,
		logger:     slog.Default(),
	}
}

// ListenAndServe 监听配置地址并阻塞服务
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve 在指定监听器上服务
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Peer RPC server started", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Stop 优雅停止
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
	s.logger.Info("Peer RPC server stopped")
}
