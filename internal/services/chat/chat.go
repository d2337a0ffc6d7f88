package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/storage"
)

type SendMessageInput struct {
	ChatID    int64
	UserID    int64
	Content   string
	Type      models.MessageType
	MediaURL  string
	StickerID string
}

type Service struct {
	log             *slog.Logger
	storage         storage.Storage
	defaultPageSize int
	maxPageSize     int
}

func New(log *slog.Logger, storage storage.Storage, defaultPageSize, maxPageSize int) *Service {
	return &Service{
		log:             log,
		storage:         storage,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ListChats возвращает чаты пользователя, самые свежие первыми. У личного чата
// имя и иконка берутся у собеседника.
func (s *Service) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	const op = "services.chat.ListChats"

	chats, err := s.storage.ListChats(ctx, userID)
	if err != nil {
		s.log.Error("failed to list chats", slog.String("op", op), slog.Int64("user_id", userID), slog.Any("err", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range chats {
		if chats[i].Type == models.ChatDirect && chats[i].Peer != nil {
			chats[i].Name = chats[i].Peer.Nickname
			chats[i].Icon = chats[i].Peer.Avatar
		}
	}

	return chats, nil
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	const op = "services.chat.SendMessage"
	log := s.log.With(slog.String("op", op), slog.Int64("chat_id", in.ChatID), slog.Int64("user_id", in.UserID))

	msg, err := newMessage(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.requireMember(ctx, in.ChatID, in.UserID); err != nil {
		if errors.Is(err, models.ErrNotAMember) {
			log.Warn("access denied: user is not member of chat")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.AppendMessage(ctx, msg); err != nil {
		if !models.IsDomainError(err) {
			log.Error("failed to save message", slog.Any("err", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("message saved", slog.Int64("message_id", msg.ID))

	return msg, nil
}

// newMessage проверяет поля сообщения в зависимости от его типа.
func newMessage(in SendMessageInput) (*models.Message, error) {
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	if !msgType.Valid() {
		return nil, models.NewValidationError("messageType", fmt.Sprintf("unknown type %q", msgType))
	}

	msg := &models.Message{
		ChatID:    in.ChatID,
		UserID:    in.UserID,
		Type:      msgType,
		Content:   optional(in.Content),
		MediaURL:  optional(in.MediaURL),
		StickerID: optional(in.StickerID),
	}

	switch {
	case msgType == models.MessageText && msg.Content == nil:
		return nil, models.NewValidationError("content", "is required for text messages")
	case msgType == models.MessageMedia && msg.MediaURL == nil:
		return nil, models.NewValidationError("mediaUrl", "is required for media messages")
	case msgType == models.MessageSticker && msg.StickerID == nil:
		return nil, models.NewValidationError("stickerId", "is required for sticker messages")
	}

	return msg, nil
}

// GetMessages отдает последние limit сообщений чата от старых к новым.
func (s *Service) GetMessages(ctx context.Context, userID, chatID int64, limit int) ([]models.Message, error) {
	const op = "services.chat.GetMessages"
	log := s.log.With(slog.String("op", op), slog.Int64("chat_id", chatID), slog.Int64("user_id", userID))

	if err := s.requireMember(ctx, chatID, userID); err != nil {
		if errors.Is(err, models.ErrNotAMember) {
			log.Warn("access denied: user is not member of chat")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case limit <= 0:
		limit = s.defaultPageSize
	case limit > s.maxPageSize:
		limit = s.maxPageSize
	}

	messages, err := s.storage.LatestMessages(ctx, chatID, limit)
	if err != nil {
		log.Error("failed to get messages", slog.Any("err", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return messages, nil
}

// CreateGroup создает групповой чат, создатель становится владельцем.
func (s *Service) CreateGroup(ctx context.Context, creatorID int64, name, icon string) (int64, error) {
	const op = "services.chat.CreateGroup"

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%s: %w", op, models.NewValidationError("name", "is required"))
	}

	chatID, err := s.storage.CreateGroupChat(ctx, name, optional(icon), creatorID)
	if err != nil {
		if !models.IsDomainError(err) {
			s.log.Error("failed to create group", slog.String("op", op), slog.Any("err", err))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("group created", slog.String("op", op), slog.Int64("chat_id", chatID), slog.Int64("owner_id", creatorID))

	return chatID, nil
}

// AddGroupMember добавляет userID в группу. Добавлять может только владелец.
func (s *Service) AddGroupMember(ctx context.Context, actorID, chatID, userID int64) error {
	const op = "services.chat.AddGroupMember"
	log := s.log.With(slog.String("op", op), slog.Int64("chat_id", chatID), slog.Int64("actor_id", actorID))

	chat, err := s.storage.ChatByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if chat.Type != models.ChatGroup {
		return fmt.Errorf("%s: %w", op, models.NewValidationError("chatId", "members can be added to group chats only"))
	}

	role, err := s.storage.MemberRole(ctx, chatID, actorID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if role != models.RoleOwner {
		log.Warn("access denied: only the owner can add members")
		return fmt.Errorf("%s: %w", op, models.ErrAccessDenied)
	}

	if err := s.storage.AddMember(ctx, chatID, userID, models.RoleMember); err != nil {
		if !models.IsDomainError(err) {
			log.Error("failed to add member", slog.Any("err", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("member added", slog.Int64("user_id", userID))

	return nil
}

// MarkRead сдвигает отметку прочтения пользователя в чате на текущий момент.
func (s *Service) MarkRead(ctx context.Context, userID, chatID int64) error {
	const op = "services.chat.MarkRead"

	if _, err := s.storage.ChatByID(ctx, chatID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.MarkRead(ctx, chatID, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) requireMember(ctx context.Context, chatID, userID int64) error {
	if _, err := s.storage.ChatByID(ctx, chatID); err != nil {
		return err
	}

	ok, err := s.storage.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotAMember
	}

	return nil
}

// optional возвращает nil для пустой строки и строки из пробелов. Значение не обрезается.
func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
