package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, phone, nickname, avatar, status, invite_code, invited_by, last_seen, created_at`

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.CreateUser"

	query := `
		INSERT INTO users (phone, nickname, avatar, status, invite_code, invited_by)
		VALUES (@phone, @nickname, @avatar, 'online', @inviteCode, @invitedBy)
		RETURNING id, status, last_seen, created_at`
	args := pgx.NamedArgs{
		"phone":      user.Phone,
		"nickname":   user.Nickname,
		"avatar":     user.Avatar,
		"inviteCode": user.InviteCode,
		"invitedBy":  user.InvitedBy,
	}

	// отдельный savepoint: коллизия кода не должна ломать внешнюю транзакцию
	err := s.atomic(ctx, func(q querier) error {
		return q.QueryRow(ctx, query, args).Scan(&user.ID, &user.Status, &user.LastSeen, &user.CreatedAt)
	})
	if err != nil {
		err = mapPgError(err)
		if !models.IsDomainError(err) {
			s.log.Error("failed to save user", slog.Any("err", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	user, err := s.getUser(ctx, query, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	const op = "storage.postgres.UserByPhone"

	query := `SELECT ` + userColumns + ` FROM users WHERE phone = @phone`

	user, err := s.getUser(ctx, query, pgx.NamedArgs{"phone": phone})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByInviteCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.postgres.UserByInviteCode"

	query := `SELECT ` + userColumns + ` FROM users WHERE invite_code = @code`

	user, err := s.getUser(ctx, query, pgx.NamedArgs{"code": code})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) TouchLogin(ctx context.Context, userID int64) (time.Time, error) {
	const op = "storage.postgres.TouchLogin"

	query := `UPDATE users SET status = 'online', last_seen = now() WHERE id = @id RETURNING last_seen`

	var lastSeen time.Time
	err := s.q.QueryRow(ctx, query, pgx.NamedArgs{"id": userID}).Scan(&lastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return time.Time{}, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	return lastSeen, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, userID int64, nickname, avatar string) (*models.User, error) {
	const op = "storage.postgres.UpdateProfile"

	query := `UPDATE users SET nickname = @nickname, avatar = @avatar WHERE id = @id RETURNING ` + userColumns
	args := pgx.NamedArgs{
		"id":       userID,
		"nickname": nickname,
		"avatar":   avatar,
	}

	user, err := s.getUser(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) getUser(ctx context.Context, query string, args pgx.NamedArgs) (*models.User, error) {
	var user models.User
	err := s.q.QueryRow(ctx, query, args).Scan(
		&user.ID,
		&user.Phone,
		&user.Nickname,
		&user.Avatar,
		&user.Status,
		&user.InviteCode,
		&user.InvitedBy,
		&user.LastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, mapPgError(err)
	}

	return &user, nil
}
