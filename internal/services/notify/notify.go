package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/storage"
)

const newContactTitle = "Новый контакт"

// Emitter создает уведомления. Хранилище передается в каждый вызов, чтобы запись
// попадала в транзакцию вызывающего.
type Emitter struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Emitter {
	return &Emitter{log: log}
}

// NewContact сообщает пригласившему, что по его ссылке зарегистрировался nickname.
func (e *Emitter) NewContact(ctx context.Context, store storage.NotificationStore, inviterID int64, nickname string) error {
	const op = "services.notify.NewContact"

	n := &models.Notification{
		UserID:  inviterID,
		Type:    models.NotificationNewContact,
		Title:   newContactTitle,
		Message: fmt.Sprintf("%s присоединился по вашей ссылке", nickname),
	}

	if err := store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.log.Debug("notification created",
		slog.String("op", op),
		slog.Int64("user_id", inviterID),
		slog.Int64("notification_id", n.ID),
	)

	return nil
}
