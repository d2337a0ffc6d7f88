package authgrpc

import (
	"context"
	"log/slog"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/dto"
	"github.com/grigory222/go-messenger-server/internal/grpc/interceptors"
	"github.com/grigory222/go-messenger-server/internal/grpc/messenger"
	"github.com/grigory222/go-messenger-server/internal/lib/errs"
	"github.com/grigory222/go-messenger-server/internal/services/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuthService - то, что хендлеру нужно от сервисного слоя.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (accessToken, refreshToken string, user *models.User, err error)
	Login(ctx context.Context, phone string) (accessToken, refreshToken string, user *models.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	UpdateProfile(ctx context.Context, userID int64, nickname, avatar string) (*models.User, error)
}

type serverAPI struct {
	log  *slog.Logger
	auth AuthService
}

var _ messenger.AuthServer = (*serverAPI)(nil)

func Register(gRPC *grpc.Server, log *slog.Logger, auth AuthService) {
	messenger.RegisterAuthServer(gRPC, &serverAPI{log: log, auth: auth})
}

func (s *serverAPI) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	const op = "grpc.auth.Register"

	if req.Phone == "" {
		return nil, status.Error(codes.InvalidArgument, "phone is required")
	}

	access, refresh, user, err := s.auth.Register(ctx, auth.RegisterInput{
		Phone:      req.Phone,
		Nickname:   req.Nickname,
		Avatar:     req.Avatar,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.AuthResponse{User: dto.FromUser(user), Token: access, RefreshToken: refresh}, nil
}

func (s *serverAPI) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	const op = "grpc.auth.Login"

	if req.Phone == "" {
		return nil, status.Error(codes.InvalidArgument, "phone is required")
	}

	access, refresh, user, err := s.auth.Login(ctx, req.Phone)
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.AuthResponse{User: dto.FromUser(user), Token: access, RefreshToken: refresh}, nil
}

func (s *serverAPI) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	const op = "grpc.auth.RefreshToken"

	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	token, err := s.auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.RefreshTokenResponse{Token: token}, nil
}

func (s *serverAPI) UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	const op = "grpc.auth.UpdateProfile"

	userID, ok := interceptors.UserID(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing user context")
	}

	user, err := s.auth.UpdateProfile(ctx, userID, req.Nickname, req.Avatar)
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.UserResponse{User: dto.FromUser(user)}, nil
}

func toStatus(log *slog.Logger, op string, err error) error {
	code := errs.ToGRPC(err)
	if code == codes.Internal || code == codes.Unavailable {
		log.Error("request failed", slog.String("op", op), slog.Any("err", err))
	}
	return status.Error(code, errs.Message(err))
}
