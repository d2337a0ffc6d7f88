package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/grigory222/go-messenger-server/internal/domain/models"
)

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var ErrWrongTokenKind = errors.New("wrong token kind")

// Claims - структура для кастомных полей в JWT
type Claims struct {
	jwt.RegisteredClaims
	UserID int64     `json:"uid"`
	Name   string    `json:"name,omitempty"`
	Kind   TokenKind `json:"kind"`
}

// NewTokens создает новую пару access и refresh токенов для пользователя.
func NewTokens(user *models.User, accessTokenTTL, refreshTokenTTL time.Duration, signingKey []byte) (string, string, error) {
	accessToken, err := newAccessToken(user, accessTokenTTL, signingKey)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := newRefreshToken(user.ID, refreshTokenTTL, signingKey)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func newAccessToken(user *models.User, ttl time.Duration, signingKey []byte) (string, error) {
	return sign(Claims{UserID: user.ID, Name: user.Nickname, Kind: KindAccess}, ttl, signingKey)
}

// Refresh токен не несет имени, только id пользователя.
func newRefreshToken(userID int64, ttl time.Duration, signingKey []byte) (string, error) {
	return sign(Claims{UserID: userID, Kind: KindRefresh}, ttl, signingKey)
}

func sign(claims Claims, ttl time.Duration, signingKey []byte) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(signingKey)
}

// ParseToken проверяет подпись и срок действия и возвращает claims.
func ParseToken(tokenString string, signingKey []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Строго проверяем, что используется именно HS256
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// GetUserID извлекает ID пользователя из access токена.
func GetUserID(tokenString string, signingKey []byte) (int64, error) {
	return userIDOfKind(tokenString, KindAccess, signingKey)
}

func userIDOfKind(tokenString string, kind TokenKind, signingKey []byte) (int64, error) {
	claims, err := ParseToken(tokenString, signingKey)
	if err != nil {
		return 0, err
	}
	if claims.Kind != kind {
		return 0, fmt.Errorf("%w: expected %s, got %q", ErrWrongTokenKind, kind, claims.Kind)
	}
	return claims.UserID, nil
}
