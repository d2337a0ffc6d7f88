package storage

import (
	"context"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
)

type UserStore interface {
	// CreateUser сохраняет пользователя и заполняет ID, Status, LastSeen и CreatedAt.
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	UserByInviteCode(ctx context.Context, code string) (*models.User, error)
	TouchLogin(ctx context.Context, userID int64) (time.Time, error)
	UpdateProfile(ctx context.Context, userID int64, nickname, avatar string) (*models.User, error)
}

type ChatStore interface {
	// CreateDirectChat идемпотентен для неупорядоченной пары пользователей.
	CreateDirectChat(ctx context.Context, userA, userB int64) (chatID int64, created bool, err error)
	CreateGroupChat(ctx context.Context, name string, icon *string, creatorID int64) (int64, error)
	AddMember(ctx context.Context, chatID, userID int64, role models.Role) error
	ChatByID(ctx context.Context, chatID int64) (*models.Chat, error)
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
	MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error)
	ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error)
	MarkRead(ctx context.Context, chatID, userID int64) error
}

type MessageStore interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	// LatestMessages возвращает последние limit сообщений от старых к новым.
	LatestMessages(ctx context.Context, chatID int64, limit int) ([]models.Message, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type Storage interface {
	UserStore
	ChatStore
	MessageStore
	NotificationStore

	// InTx выполняет fn в одной транзакции. При ошибке все изменения откатываются.
	InTx(ctx context.Context, fn func(tx Storage) error) error
	Close()
}
