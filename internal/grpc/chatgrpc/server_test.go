package chatgrpc

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/dto"
	"github.com/grigory222/go-messenger-server/internal/grpc/interceptors"
	"github.com/grigory222/go-messenger-server/internal/services/chat"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeChatService struct {
	chats    []models.ChatSummary
	listErr  error
	sent     chat.SendMessageInput
	sendErr  error
	msgs     []models.Message
	getLimit int
	getErr   error
	groupID  int64
	groupErr error
	addErr   error
	readErr  error
}

func (f *fakeChatService) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	return f.chats, f.listErr
}
func (f *fakeChatService) SendMessage(ctx context.Context, in chat.SendMessageInput) (*models.Message, error) {
	f.sent = in
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.Message{ID: 10, CreatedAt: time.Unix(1000, 0)}, nil
}
func (f *fakeChatService) GetMessages(ctx context.Context, userID, chatID int64, limit int) ([]models.Message, error) {
	f.getLimit = limit
	return f.msgs, f.getErr
}
func (f *fakeChatService) CreateGroup(ctx context.Context, creatorID int64, name, icon string) (int64, error) {
	return f.groupID, f.groupErr
}
func (f *fakeChatService) AddGroupMember(ctx context.Context, actorID, chatID, userID int64) error {
	return f.addErr
}
func (f *fakeChatService) MarkRead(ctx context.Context, userID, chatID int64) error { return f.readErr }

func logger() *slog.Logger { return slog.New(slog.NewTextHandler(os.Stdout, nil)) }

func authed() context.Context { return interceptors.WithUserID(context.Background(), 5) }

func TestCreateGroupHandler(t *testing.T) {
	f := &fakeChatService{groupID: 1}
	api := &serverAPI{chat: f, log: logger()}
	// Missing user context
	if _, err := api.CreateGroup(context.Background(), &dto.CreateGroupRequest{Name: "Gen"}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	// Invalid argument
	if _, err := api.CreateGroup(authed(), &dto.CreateGroupRequest{Name: ""}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument")
	}
	// Internal error
	f.groupErr = errors.New("db")
	if _, err := api.CreateGroup(authed(), &dto.CreateGroupRequest{Name: "Gen"}); status.Code(err) != codes.Internal {
		t.Fatalf("expected internal")
	}
	// Success
	f.groupErr = nil
	if resp, err := api.CreateGroup(authed(), &dto.CreateGroupRequest{Name: "Gen"}); err != nil || resp.ChatID != 1 {
		t.Fatalf("unexpected: %v %v", err, resp)
	}
}

func TestSendMessageHandler(t *testing.T) {
	f := &fakeChatService{}
	api := &serverAPI{chat: f, log: logger()}

	if _, err := api.SendMessage(authed(), &dto.SendMessageRequest{Content: "hi"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument for missing chat id")
	}

	f.sendErr = models.ErrNotAMember
	if _, err := api.SendMessage(authed(), &dto.SendMessageRequest{ChatID: 3, Content: "hi"}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected permission denied")
	}

	f.sendErr = nil
	resp, err := api.SendMessage(authed(), &dto.SendMessageRequest{ChatID: 3, MessageType: "sticker", StickerID: "17"})
	if err != nil || resp.MessageID != 10 {
		t.Fatalf("unexpected: %v %v", err, resp)
	}
	if f.sent.UserID != 5 || f.sent.Type != models.MessageSticker || f.sent.StickerID != "17" {
		t.Fatalf("sender must come from context: %+v", f.sent)
	}
}

func TestGetMessagesHandler(t *testing.T) {
	f := &fakeChatService{msgs: []models.Message{{ID: 1, Type: models.MessageText}}}
	api := &serverAPI{chat: f, log: logger()}

	if _, err := api.GetMessages(authed(), &dto.GetMessagesRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument")
	}

	f.getErr = models.ErrChatNotFound
	if _, err := api.GetMessages(authed(), &dto.GetMessagesRequest{ChatID: 1}); status.Code(err) != codes.NotFound {
		t.Fatalf("expected not found")
	}

	f.getErr = nil
	resp, err := api.GetMessages(authed(), &dto.GetMessagesRequest{ChatID: 1, Limit: 20})
	if err != nil || len(resp.Messages) != 1 || f.getLimit != 20 {
		t.Fatalf("unexpected: %v %v limit=%d", err, resp, f.getLimit)
	}
}

func TestListChatsHandler(t *testing.T) {
	f := &fakeChatService{chats: []models.ChatSummary{{ID: 1, Type: models.ChatGroup, Name: "Raid"}}}
	api := &serverAPI{chat: f, log: logger()}

	resp, err := api.ListChats(authed(), &dto.Empty{})
	if err != nil || len(resp.Chats) != 1 || resp.Chats[0].Name != "Raid" {
		t.Fatalf("unexpected: %v %v", err, resp)
	}

	f.listErr = context.DeadlineExceeded
	if _, err := api.ListChats(authed(), &dto.Empty{}); status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded")
	}
}

func TestAddMemberAndMarkReadHandlers(t *testing.T) {
	f := &fakeChatService{}
	api := &serverAPI{chat: f, log: logger()}

	if _, err := api.AddMember(authed(), &dto.AddMemberRequest{ChatID: 1}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument")
	}
	f.addErr = models.ErrAccessDenied
	if _, err := api.AddMember(authed(), &dto.AddMemberRequest{ChatID: 1, UserID: 2}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected permission denied")
	}
	f.addErr = models.ErrAlreadyMember
	if _, err := api.AddMember(authed(), &dto.AddMemberRequest{ChatID: 1, UserID: 2}); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("expected already exists")
	}

	if _, err := api.MarkRead(authed(), &dto.MarkReadRequest{ChatID: 1}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	f.readErr = models.ErrNotAMember
	if _, err := api.MarkRead(authed(), &dto.MarkReadRequest{ChatID: 1}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected permission denied")
	}
}
