package postgres

import (
	"context"
	"fmt"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	const op = "storage.postgres.CreateNotification"

	query := `
		INSERT INTO notifications (user_id, type, title, message)
		VALUES (@userID, @type, @title, @message)
		RETURNING id, created_at`
	args := pgx.NamedArgs{
		"userID":  n.UserID,
		"type":    string(n.Type),
		"title":   n.Title,
		"message": n.Message,
	}

	if err := s.q.QueryRow(ctx, query, args).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return nil
}
