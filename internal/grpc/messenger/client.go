package messenger

import (
	"context"

	"github.com/grigory222/go-messenger-server/internal/dto"
	"google.golang.org/grpc"
)

type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func (c *AuthClient) Register(ctx context.Context, in *dto.RegisterRequest, opts ...grpc.CallOption) (*dto.AuthResponse, error) {
	return invoke[dto.AuthResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *AuthClient) Login(ctx context.Context, in *dto.LoginRequest, opts ...grpc.CallOption) (*dto.AuthResponse, error) {
	return invoke[dto.AuthResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *AuthClient) RefreshToken(ctx context.Context, in *dto.RefreshTokenRequest, opts ...grpc.CallOption) (*dto.RefreshTokenResponse, error) {
	return invoke[dto.RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *AuthClient) UpdateProfile(ctx context.Context, in *dto.UpdateProfileRequest, opts ...grpc.CallOption) (*dto.UserResponse, error) {
	return invoke[dto.UserResponse](ctx, c.cc, "/"+AuthServiceName+"/UpdateProfile", in, opts)
}

type ChatClient struct {
	cc grpc.ClientConnInterface
}

func NewChatClient(cc grpc.ClientConnInterface) *ChatClient {
	return &ChatClient{cc: cc}
}

func (c *ChatClient) ListChats(ctx context.Context, opts ...grpc.CallOption) (*dto.ListChatsResponse, error) {
	return invoke[dto.ListChatsResponse](ctx, c.cc, "/"+ChatServiceName+"/ListChats", &dto.Empty{}, opts)
}

func (c *ChatClient) SendMessage(ctx context.Context, in *dto.SendMessageRequest, opts ...grpc.CallOption) (*dto.SendMessageResponse, error) {
	return invoke[dto.SendMessageResponse](ctx, c.cc, "/"+ChatServiceName+"/SendMessage", in, opts)
}

func (c *ChatClient) GetMessages(ctx context.Context, in *dto.GetMessagesRequest, opts ...grpc.CallOption) (*dto.GetMessagesResponse, error) {
	return invoke[dto.GetMessagesResponse](ctx, c.cc, "/"+ChatServiceName+"/GetMessages", in, opts)
}

func (c *ChatClient) CreateGroup(ctx context.Context, in *dto.CreateGroupRequest, opts ...grpc.CallOption) (*dto.CreateGroupResponse, error) {
	return invoke[dto.CreateGroupResponse](ctx, c.cc, "/"+ChatServiceName+"/CreateGroup", in, opts)
}

func (c *ChatClient) AddMember(ctx context.Context, in *dto.AddMemberRequest, opts ...grpc.CallOption) error {
	_, err := invoke[dto.Empty](ctx, c.cc, "/"+ChatServiceName+"/AddMember", in, opts)
	return err
}

func (c *ChatClient) MarkRead(ctx context.Context, in *dto.MarkReadRequest, opts ...grpc.CallOption) error {
	_, err := invoke[dto.Empty](ctx, c.cc, "/"+ChatServiceName+"/MarkRead", in, opts)
	return err
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
