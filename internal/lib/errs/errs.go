// Package errs переводит доменные ошибки в коды транспорта.
package errs

import (
	"context"
	"errors"
	"net/http"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"google.golang.org/grpc/codes"
)

func ToGRPC(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, models.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, models.ErrPhoneExists),
		errors.Is(err, models.ErrInviteCodeExists),
		errors.Is(err, models.ErrAlreadyMember):
		return codes.AlreadyExists
	case errors.Is(err, models.ErrUserNotFound), errors.Is(err, models.ErrChatNotFound):
		return codes.NotFound
	case errors.Is(err, models.ErrNotAMember), errors.Is(err, models.ErrAccessDenied):
		return codes.PermissionDenied
	case errors.Is(err, models.ErrInvalidCredentials):
		return codes.Unauthenticated
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, models.ErrTransactionFailed):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func ToHTTP(err error) int {
	switch ToGRPC(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		// nginx: client closed request
		return 499
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message - текст ошибки для клиента. Детали внутренних сбоев наружу не отдаются.
func Message(err error) string {
	var vErr *models.ValidationError
	switch code := ToGRPC(err); {
	case errors.As(err, &vErr):
		return vErr.Error()
	case code == codes.Internal:
		return "internal error"
	case code == codes.Unavailable:
		return "service temporarily unavailable, retry later"
	case code == codes.DeadlineExceeded:
		return "request timed out"
	case code == codes.Canceled:
		return "request canceled"
	default:
		return rootMessage(err)
	}
}

// rootMessage возвращает текст доменной ошибки без префиксов op.
func rootMessage(err error) string {
	for _, target := range []error{
		models.ErrValidation,
		models.ErrPhoneExists,
		models.ErrInviteCodeExists,
		models.ErrUserNotFound,
		models.ErrChatNotFound,
		models.ErrNotAMember,
		models.ErrAlreadyMember,
		models.ErrAccessDenied,
		models.ErrInvalidCredentials,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
