package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrPhoneExists        = errors.New("phone already registered")
	ErrInviteCodeExists   = errors.New("invite code already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrChatNotFound       = errors.New("chat not found")
	ErrNotAMember         = errors.New("user is not a member of the chat")
	ErrAlreadyMember      = errors.New("user is already a member of the chat")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTransactionFailed - сбой хранилища, операцию можно повторить.
	ErrTransactionFailed = errors.New("transaction failed")
)

// ValidationError описывает некорректное поле запроса.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var domainErrors = []error{
	ErrValidation,
	ErrPhoneExists,
	ErrInviteCodeExists,
	ErrUserNotFound,
	ErrChatNotFound,
	ErrNotAMember,
	ErrAlreadyMember,
	ErrAccessDenied,
	ErrInvalidCredentials,
}

// IsDomainError сообщает, что err - ожидаемый результат операции, а не сбой инфраструктуры.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
