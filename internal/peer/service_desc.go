package peer

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "message.ChatService"

const (
	methodNotifyAddFriend   = "/" + serviceName + "/NotifyAddFriend"
	methodNotifyAuthFriend  = "/" + serviceName + "/NotifyAuthFriend"
	methodNotifyTextChatMsg = "/" + serviceName + "/NotifyTextChatMsg"
	methodNotifyKickUser    = "/" + serviceName + "/NotifyKickUser"
)

// ChatServiceServer 节点间 RPC 服务端接口
type ChatServiceServer interface {
	NotifyAddFriend(ctx context.Context, req *AddFriendReq) (*AddFriendRsp, error)
	NotifyAuthFriend(ctx context.Context, req *AuthFriendReq) (*AuthFriendRsp, error)
	NotifyTextChatMsg(ctx context.Context, req *TextChatMsgReq) (*TextChatMsgRsp, error)
	NotifyKickUser(ctx context.Context, req *KickUserReq) (*KickUserRsp, error)
}

// RegisterChatServiceServer 注册到 gRPC 服务
func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&chatServiceDesc, srv)
}

var chatServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NotifyAddFriend",
			Handler:    unaryHandler(methodNotifyAddFriend, ChatServiceServer.NotifyAddFriend),
		},
		{
			MethodName: "NotifyAuthFriend",
			Handler:    unaryHandler(methodNotifyAuthFriend, ChatServiceServer.NotifyAuthFriend),
		},
		{
			MethodName: "NotifyTextChatMsg",
			Handler:    unaryHandler(methodNotifyTextChatMsg, ChatServiceServer.NotifyTextChatMsg),
		},
		{
			MethodName: "NotifyKickUser",
			Handler:    unaryHandler(methodNotifyKickUser, ChatServiceServer.NotifyKickUser),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "message.proto",
}

// unaryHandler 生成一元方法的 grpc.MethodHandler
func unaryHandler[Req, Rsp any](fullMethod string, call func(ChatServiceServer, context.Context, *Req) (*Rsp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChatServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ChatServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
