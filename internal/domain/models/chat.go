package models

import "time"

type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

type Chat struct {
	ID   int64
	Type ChatType
	// Name и Icon пустые у личных чатов, отображаемое имя берется у собеседника.
	Name      *string
	Icon      *string
	CreatedAt time.Time
}

type ChatMember struct {
	ChatID     int64
	UserID     int64
	Role       Role
	JoinedAt   time.Time
	LastReadAt *time.Time
}

// Peer - второй участник личного чата.
type Peer struct {
	UserID   int64
	Nickname string
	Avatar   string
	Status   UserStatus
}

// ChatSummary - строка списка чатов пользователя.
type ChatSummary struct {
	ID   int64
	Type ChatType
	Name string
	Icon string

	// Peer заполняется только для личных чатов.
	Peer *Peer

	LastMessage     *string
	LastMessageAt   *time.Time
	LastMessageType *MessageType

	// Unread считает чужие сообщения новее отметки прочтения участника.
	// Пока отметки нет, значение совпадает с MessagesFromOthers.
	Unread             int
	MessagesFromOthers int
}
