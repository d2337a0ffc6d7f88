// Package messenger описывает gRPC сервисы мессенджера без protoc: дескрипторы
// собраны вручную, сообщения - структуры из dto в JSON кодеке.
package messenger

import (
	"context"

	"github.com/grigory222/go-messenger-server/internal/dto"
	"google.golang.org/grpc"
)

const (
	AuthServiceName = "messenger.AuthService"
	ChatServiceName = "messenger.ChatService"
)

// Полные имена методов, которые не требуют токена.
const (
	MethodRegister     = "/" + AuthServiceName + "/Register"
	MethodLogin        = "/" + AuthServiceName + "/Login"
	MethodRefreshToken = "/" + AuthServiceName + "/RefreshToken"
)

type AuthServer interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error)
	UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type ChatServer interface {
	ListChats(ctx context.Context, req *dto.Empty) (*dto.ListChatsResponse, error)
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetMessages(ctx context.Context, req *dto.GetMessagesRequest) (*dto.GetMessagesResponse, error)
	CreateGroup(ctx context.Context, req *dto.CreateGroupRequest) (*dto.CreateGroupResponse, error)
	AddMember(ctx context.Context, req *dto.AddMemberRequest) (*dto.Empty, error)
	MarkRead(ctx context.Context, req *dto.MarkReadRequest) (*dto.Empty, error)
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthServiceName, "Register", AuthServer.Register),
		unary(AuthServiceName, "Login", AuthServer.Login),
		unary(AuthServiceName, "RefreshToken", AuthServer.RefreshToken),
		unary(AuthServiceName, "UpdateProfile", AuthServer.UpdateProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "messenger",
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "ListChats", ChatServer.ListChats),
		unary(ChatServiceName, "SendMessage", ChatServer.SendMessage),
		unary(ChatServiceName, "GetMessages", ChatServer.GetMessages),
		unary(ChatServiceName, "CreateGroup", ChatServer.CreateGroup),
		unary(ChatServiceName, "AddMember", ChatServer.AddMember),
		unary(ChatServiceName, "MarkRead", ChatServer.MarkRead),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "messenger",
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

// unary собирает MethodDesc так же, как это делает сгенерированный protoc-gen-go-grpc код.
func unary[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
