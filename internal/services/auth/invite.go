package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	InviteCodeLen  = 8
)

// CodeGenerator выдает новый код приглашения.
type CodeGenerator func() (string, error)

// NewInviteCode генерирует случайный код из заглавных латинских букв и цифр.
func NewInviteCode() (string, error) {
	base := big.NewInt(int64(len(inviteAlphabet)))
	code := make([]byte, InviteCodeLen)
	for i := range code {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}
