package models

import "time"

type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
)

const (
	DefaultNickname = "User"
	DefaultAvatar   = "🎮"
)

type User struct {
	ID         int64
	Phone      string
	Nickname   string
	Avatar     string
	Status     UserStatus
	InviteCode string
	// InvitedBy хранит код приглашения, введенный при регистрации. Это не ссылка на пользователя.
	InvitedBy *string
	LastSeen  time.Time
	CreatedAt time.Time
}
