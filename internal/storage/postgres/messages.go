package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

func (s *Storage) AppendMessage(ctx context.Context, msg *models.Message) error {
	const op = "storage.postgres.AppendMessage"

	// вставка проходит только если отправитель состоит в чате
	query := `
		WITH inserted AS (
			INSERT INTO messages (chat_id, user_id, content, message_type, media_url, sticker_id)
			SELECT @chatID::bigint, @userID::bigint, @content::text, @type::text, @mediaURL::text, @stickerID::text
			WHERE EXISTS (
				SELECT 1 FROM chat_members WHERE chat_id = @chatID::bigint AND user_id = @userID::bigint
			)
			RETURNING id, user_id, created_at
		)
		SELECT i.id, i.created_at, u.nickname, u.avatar
		FROM inserted i
		JOIN users u ON u.id = i.user_id`
	args := pgx.NamedArgs{
		"chatID":    msg.ChatID,
		"userID":    msg.UserID,
		"content":   msg.Content,
		"type":      string(msg.Type),
		"mediaURL":  msg.MediaURL,
		"stickerID": msg.StickerID,
	}

	err := s.q.QueryRow(ctx, query, args).Scan(&msg.ID, &msg.CreatedAt, &msg.SenderNickname, &msg.SenderAvatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, models.ErrNotAMember)
		}
		return fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return nil
}

func (s *Storage) LatestMessages(ctx context.Context, chatID int64, limit int) ([]models.Message, error) {
	const op = "storage.postgres.LatestMessages"

	query := `
		SELECT m.id, m.chat_id, m.user_id, m.content, m.message_type, m.media_url, m.sticker_id, m.created_at,
		       u.nickname, u.avatar
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.chat_id = @chatID
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT @limit`

	rows, err := s.q.Query(ctx, query, pgx.NamedArgs{"chatID": chatID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		err := rows.Scan(
			&m.ID, &m.ChatID, &m.UserID, &m.Content, &m.Type, &m.MediaURL, &m.StickerID, &m.CreatedAt,
			&m.SenderNickname, &m.SenderAvatar,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	// выбирали от новых к старым, отдаем в хронологическом порядке
	slices.Reverse(messages)

	return messages, nil
}
