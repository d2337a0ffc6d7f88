package interceptors

import (
	"context"
	"log/slog"
	"strings"

	"github.com/grigory222/go-messenger-server/internal/grpc/messenger"
	"github.com/grigory222/go-messenger-server/internal/services/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// userCtxKey - это ключ для хранения ID пользователя в контексте.
type userCtxKey string

const UserIDKey = userCtxKey("userID")

const userTokenKey = "x-user-token"

// Методы, которые не требуют аутентификации
var publicMethods = map[string]bool{
	messenger.MethodLogin:                true,
	messenger.MethodRegister:             true,
	messenger.MethodRefreshToken:         true,
	healthpb.Health_Check_FullMethodName: true,
}

// UserID достает ID пользователя, положенный перехватчиком.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// NewAuthInterceptor создает новый gRPC перехватчик для аутентификации.
func NewAuthInterceptor(log *slog.Logger, jwtSecret string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
		}

		token, err := tokenFromMetadata(md)
		if err != nil {
			return nil, err
		}

		userID, err := auth.GetUserID(token, []byte(jwtSecret))
		if err != nil {
			log.Warn("failed to verify token", slog.String("method", info.FullMethod), slog.Any("err", err))
			return nil, status.Error(codes.Unauthenticated, "invalid access token")
		}

		log.Debug("user authenticated", slog.Int64("user_id", userID))

		return handler(WithUserID(ctx, userID), req)
	}
}

// tokenFromMetadata берет токен из "authorization: Bearer <token>",
// а если заголовка нет, из "x-user-token" веб-клиента.
func tokenFromMetadata(md metadata.MD) (string, error) {
	if values := md.Get("authorization"); len(values) > 0 {
		header := values[0]
		if !strings.HasPrefix(header, "Bearer ") {
			return "", status.Error(codes.Unauthenticated, "invalid authorization header format")
		}
		return strings.TrimPrefix(header, "Bearer "), nil
	}

	if values := md.Get(userTokenKey); len(values) > 0 && values[0] != "" {
		return values[0], nil
	}

	return "", status.Error(codes.Unauthenticated, "authorization token is not provided")
}
