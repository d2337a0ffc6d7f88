package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintUsersPhone      = "users_phone_key"
	constraintUsersInviteCode = "users_invite_code_key"
	constraintMembersPK       = "chat_members_pkey"
	constraintMembersChatFK   = "chat_members_chat_id_fkey"
	constraintMembersUserFK   = "chat_members_user_id_fkey"
	constraintMessagesChatFK  = "messages_chat_id_fkey"
)

// mapPgError переводит ошибки PostgreSQL в доменные.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintUsersPhone:
				return models.ErrPhoneExists
			case constraintUsersInviteCode:
				return models.ErrInviteCodeExists
			case constraintMembersPK:
				return models.ErrAlreadyMember
			}
		case codeForeignKeyViolation:
			switch pgErr.ConstraintName {
			case constraintMembersChatFK, constraintMessagesChatFK:
				return models.ErrChatNotFound
			case constraintMembersUserFK:
				return models.ErrUserNotFound
			}
		}
		return err
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", models.ErrTransactionFailed, err)
	}

	return err
}

func retryable(err error) error {
	if errors.Is(err, models.ErrTransactionFailed) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrTransactionFailed, err)
}
