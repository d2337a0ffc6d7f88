package chatgrpc

import (
	"context"
	"log/slog"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/dto"
	"github.com/grigory222/go-messenger-server/internal/grpc/interceptors"
	"github.com/grigory222/go-messenger-server/internal/grpc/messenger"
	"github.com/grigory222/go-messenger-server/internal/lib/errs"
	"github.com/grigory222/go-messenger-server/internal/services/chat"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ChatService - интерфейс, который определяет потребитель (хендлер).
// Он полностью описывает, что нам нужно от сервисного слоя.
type ChatService interface {
	ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error)
	SendMessage(ctx context.Context, in chat.SendMessageInput) (*models.Message, error)
	GetMessages(ctx context.Context, userID, chatID int64, limit int) ([]models.Message, error)
	CreateGroup(ctx context.Context, creatorID int64, name, icon string) (int64, error)
	AddGroupMember(ctx context.Context, actorID, chatID, userID int64) error
	MarkRead(ctx context.Context, userID, chatID int64) error
}

type serverAPI struct {
	log  *slog.Logger
	chat ChatService
}

var _ messenger.ChatServer = (*serverAPI)(nil)

func Register(gRPC *grpc.Server, log *slog.Logger, chat ChatService) {
	messenger.RegisterChatServer(gRPC, &serverAPI{
		log:  log,
		chat: chat,
	})
}

// userID из контекста кладет auth interceptor; id из тела запроса не используется.
func userID(ctx context.Context) (int64, error) {
	id, ok := interceptors.UserID(ctx)
	if !ok {
		return 0, status.Error(codes.Unauthenticated, "missing user context")
	}
	return id, nil
}

func (s *serverAPI) ListChats(ctx context.Context, _ *dto.Empty) (*dto.ListChatsResponse, error) {
	const op = "grpc.chat.ListChats"

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	chats, err := s.chat.ListChats(ctx, uid)
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.ListChatsResponse{Chats: dto.FromChatSummaries(chats)}, nil
}

func (s *serverAPI) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	const op = "grpc.chat.SendMessage"

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ChatID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "chatId is required")
	}

	msg, err := s.chat.SendMessage(ctx, chat.SendMessageInput{
		ChatID:    req.ChatID,
		UserID:    uid,
		Content:   req.Content,
		Type:      models.MessageType(req.MessageType),
		MediaURL:  req.MediaURL,
		StickerID: string(req.StickerID),
	})
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.SendMessageResponse{MessageID: msg.ID, CreatedAt: msg.CreatedAt}, nil
}

func (s *serverAPI) GetMessages(ctx context.Context, req *dto.GetMessagesRequest) (*dto.GetMessagesResponse, error) {
	const op = "grpc.chat.GetMessages"

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ChatID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "chatId is required")
	}

	messages, err := s.chat.GetMessages(ctx, uid, req.ChatID, req.Limit)
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.GetMessagesResponse{Messages: dto.FromMessages(messages)}, nil
}

func (s *serverAPI) CreateGroup(ctx context.Context, req *dto.CreateGroupRequest) (*dto.CreateGroupResponse, error) {
	const op = "grpc.chat.CreateGroup"

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	s.log.Info("creating group", slog.String("op", op), slog.String("name", req.Name), slog.Int64("user_id", uid))

	chatID, err := s.chat.CreateGroup(ctx, uid, req.Name, req.Icon)
	if err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.CreateGroupResponse{ChatID: chatID}, nil
}

func (s *serverAPI) AddMember(ctx context.Context, req *dto.AddMemberRequest) (*dto.Empty, error) {
	const op = "grpc.chat.AddMember"

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ChatID <= 0 || req.UserID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "chatId and userId are required")
	}

	if err := s.chat.AddGroupMember(ctx, uid, req.ChatID, req.UserID); err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.Empty{}, nil
}

func (s *serverAPI) MarkRead(ctx context.Context, req *dto.MarkReadRequest) (*dto.Empty, error) {
	const op = "grpc.chat.MarkRead"

	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	if req.ChatID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "chatId is required")
	}

	if err := s.chat.MarkRead(ctx, uid, req.ChatID); err != nil {
		return nil, toStatus(s.log, op, err)
	}

	return &dto.Empty{}, nil
}

func toStatus(log *slog.Logger, op string, err error) error {
	code := errs.ToGRPC(err)
	if code == codes.Internal || code == codes.Unavailable {
		log.Error("request failed", slog.String("op", op), slog.Any("err", err))
	}
	return status.Error(code, errs.Message(err))
}
