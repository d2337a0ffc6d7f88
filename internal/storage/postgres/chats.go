package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

// directKey - ключ уникальности личного чата по неупорядоченной паре.
func directKey(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

func (s *Storage) CreateDirectChat(ctx context.Context, userA, userB int64) (int64, bool, error) {
	const op = "storage.postgres.CreateDirectChat"

	if userA == userB {
		return 0, false, fmt.Errorf("%s: %w", op, models.NewValidationError("user_id", "direct chat needs two different users"))
	}

	chatQuery := `
		INSERT INTO chats (type, direct_key) VALUES ('direct', @key)
		ON CONFLICT (direct_key) DO UPDATE SET direct_key = EXCLUDED.direct_key
		RETURNING id, (xmax = 0)`
	membersQuery := `
		INSERT INTO chat_members (chat_id, user_id, role)
		VALUES (@chatID, @userA, 'member'), (@chatID, @userB, 'member')
		ON CONFLICT (chat_id, user_id) DO NOTHING`

	var (
		chatID  int64
		created bool
	)
	err := s.atomic(ctx, func(q querier) error {
		if err := q.QueryRow(ctx, chatQuery, pgx.NamedArgs{"key": directKey(userA, userB)}).Scan(&chatID, &created); err != nil {
			return err
		}
		_, err := q.Exec(ctx, membersQuery, pgx.NamedArgs{"chatID": chatID, "userA": userA, "userB": userB})
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return chatID, created, nil
}

func (s *Storage) CreateGroupChat(ctx context.Context, name string, icon *string, creatorID int64) (int64, error) {
	const op = "storage.postgres.CreateGroupChat"

	var chatID int64
	err := s.atomic(ctx, func(q querier) error {
		err := q.QueryRow(ctx,
			`INSERT INTO chats (type, name, icon) VALUES ('group', @name, @icon) RETURNING id`,
			pgx.NamedArgs{"name": name, "icon": icon},
		).Scan(&chatID)
		if err != nil {
			return err
		}
		_, err = q.Exec(ctx,
			`INSERT INTO chat_members (chat_id, user_id, role) VALUES (@chatID, @userID, 'owner')`,
			pgx.NamedArgs{"chatID": chatID, "userID": creatorID},
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return chatID, nil
}

func (s *Storage) AddMember(ctx context.Context, chatID, userID int64, role models.Role) error {
	const op = "storage.postgres.AddMember"

	query := `INSERT INTO chat_members (chat_id, user_id, role) VALUES (@chatID, @userID, @role)`
	args := pgx.NamedArgs{"chatID": chatID, "userID": userID, "role": string(role)}

	err := s.atomic(ctx, func(q querier) error {
		_, err := q.Exec(ctx, query, args)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return nil
}

func (s *Storage) ChatByID(ctx context.Context, chatID int64) (*models.Chat, error) {
	const op = "storage.postgres.ChatByID"

	query := `SELECT id, type, name, icon, created_at FROM chats WHERE id = @id`

	var chat models.Chat
	err := s.q.QueryRow(ctx, query, pgx.NamedArgs{"id": chatID}).Scan(&chat.ID, &chat.Type, &chat.Name, &chat.Icon, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrChatNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return &chat, nil
}

func (s *Storage) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	const op = "storage.postgres.IsMember"

	query := `SELECT EXISTS (SELECT 1 FROM chat_members WHERE chat_id = @chatID AND user_id = @userID)`

	var ok bool
	if err := s.q.QueryRow(ctx, query, pgx.NamedArgs{"chatID": chatID, "userID": userID}).Scan(&ok); err != nil {
		return false, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return ok, nil
}

func (s *Storage) MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error) {
	const op = "storage.postgres.MemberRole"

	query := `SELECT role FROM chat_members WHERE chat_id = @chatID AND user_id = @userID`

	var role models.Role
	err := s.q.QueryRow(ctx, query, pgx.NamedArgs{"chatID": chatID, "userID": userID}).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, models.ErrNotAMember)
		}
		return "", fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return role, nil
}

func (s *Storage) MarkRead(ctx context.Context, chatID, userID int64) error {
	const op = "storage.postgres.MarkRead"

	query := `UPDATE chat_members SET last_read_at = clock_timestamp() WHERE chat_id = @chatID AND user_id = @userID`

	tag, err := s.q.Exec(ctx, query, pgx.NamedArgs{"chatID": chatID, "userID": userID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotAMember)
	}

	return nil
}

// listChatsQuery собирает список чатов одним запросом: собеседник (только для личных чатов),
// последнее сообщение и счетчики берутся через LATERAL, без N+1.
const listChatsQuery = `
	SELECT
		c.id, c.type, c.name, c.icon,
		p.id, p.nickname, p.avatar, p.status,
		lm.content, lm.created_at, lm.message_type,
		cnt.unread, cnt.from_others
	FROM chat_members cm
	JOIN chats c ON c.id = cm.chat_id
	LEFT JOIN LATERAL (
		SELECT u.id, u.nickname, u.avatar, u.status
		FROM chat_members om
		JOIN users u ON u.id = om.user_id
		WHERE om.chat_id = c.id AND om.user_id <> cm.user_id
		ORDER BY om.user_id
		LIMIT 1
	) p ON c.type = 'direct'
	LEFT JOIN LATERAL (
		SELECT m.id, m.content, m.created_at, m.message_type
		FROM messages m
		WHERE m.chat_id = c.id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT 1
	) lm ON true
	CROSS JOIN LATERAL (
		SELECT
			count(*) FILTER (WHERE cm.last_read_at IS NULL OR m.created_at > cm.last_read_at) AS unread,
			count(*) AS from_others
		FROM messages m
		WHERE m.chat_id = c.id AND m.user_id <> cm.user_id
	) cnt
	WHERE cm.user_id = @userID
	ORDER BY lm.created_at DESC NULLS LAST, lm.id DESC NULLS LAST, c.id DESC`

func (s *Storage) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	const op = "storage.postgres.ListChats"

	rows, err := s.q.Query(ctx, listChatsQuery, pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}
	defer rows.Close()

	var chats []models.ChatSummary
	for rows.Next() {
		var (
			summary            models.ChatSummary
			name, icon         *string
			peerID             *int64
			peerNick, peerAva  *string
			peerStatus         *string
			lastType           *string
			lastAt             *time.Time
			unread, fromOthers int64
		)
		err := rows.Scan(
			&summary.ID, &summary.Type, &name, &icon,
			&peerID, &peerNick, &peerAva, &peerStatus,
			&summary.LastMessage, &lastAt, &lastType,
			&unread, &fromOthers,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if name != nil {
			summary.Name = *name
		}
		if icon != nil {
			summary.Icon = *icon
		}
		if peerID != nil {
			summary.Peer = &models.Peer{
				UserID:   *peerID,
				Nickname: deref(peerNick),
				Avatar:   deref(peerAva),
				Status:   models.UserStatus(deref(peerStatus)),
			}
		}
		if lastAt != nil {
			t := models.MessageType(deref(lastType))
			summary.LastMessageAt = lastAt
			summary.LastMessageType = &t
		}
		summary.Unread = int(unread)
		summary.MessagesFromOthers = int(fromOthers)

		chats = append(chats, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return chats, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
