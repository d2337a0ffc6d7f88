// Package dto описывает JSON-представление запросов и ответов. Одни и те же типы
// ходят по gRPC (json кодек) и по HTTP.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
)

type Empty struct{}

type ErrorResponse struct {
	Error string `json:"error"`
}

type User struct {
	ID         int64     `json:"id"`
	Phone      string    `json:"phone"`
	Nickname   string    `json:"nickname"`
	Avatar     string    `json:"avatar"`
	InviteCode string    `json:"inviteCode"`
	InvitedBy  *string   `json:"invitedBy,omitempty"`
	Status     string    `json:"status"`
	LastSeen   time.Time `json:"lastSeen"`
}

type RegisterRequest struct {
	Phone      string `json:"phone"`
	Nickname   string `json:"nickname"`
	Avatar     string `json:"avatar"`
	InviteCode string `json:"inviteCode"`
}

type LoginRequest struct {
	Phone string `json:"phone"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}

type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type UserResponse struct {
	User User `json:"user"`
}

// ChatSummary - строка списка чатов. Поля собеседника пустые у групп.
type ChatSummary struct {
	ID                 int64      `json:"id"`
	Type               string     `json:"type"`
	Name               string     `json:"name"`
	Icon               string     `json:"icon"`
	UserID             *int64     `json:"userId"`
	Nickname           *string    `json:"nickname"`
	Avatar             *string    `json:"avatar"`
	Status             *string    `json:"status"`
	LastMessage        *string    `json:"lastMessage"`
	LastMessageTime    *time.Time `json:"lastMessageTime"`
	MessageType        *string    `json:"messageType"`
	Unread             int        `json:"unread"`
	MessagesFromOthers int        `json:"messagesFromOthers"`
}

type ListChatsResponse struct {
	Chats []ChatSummary `json:"chats"`
}

// StickerID принимает и строку, и число: клиенты присылают id стикера в обоих видах.
type StickerID string

func (s *StickerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StickerID(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("stickerId must be a string or a number: %w", err)
		}
		*s = StickerID(n.String())
	}
	return nil
}

type SendMessageRequest struct {
	ChatID      int64     `json:"chatId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	MediaURL    string    `json:"mediaUrl"`
	StickerID   StickerID `json:"stickerId"`
}

type SendMessageResponse struct {
	MessageID int64     `json:"messageId"`
	CreatedAt time.Time `json:"createdAt"`
}

type GetMessagesRequest struct {
	ChatID int64 `json:"chatId"`
	Limit  int   `json:"limit"`
}

type Message struct {
	ID        int64     `json:"id"`
	Content   *string   `json:"content"`
	Type      string    `json:"type"`
	MediaURL  *string   `json:"mediaUrl"`
	StickerID *string   `json:"stickerId,omitempty"`
	Time      time.Time `json:"time"`
	UserID    int64     `json:"userId"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
}

type GetMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type CreateGroupResponse struct {
	ChatID int64 `json:"chatId"`
}

type AddMemberRequest struct {
	ChatID int64 `json:"chatId"`
	UserID int64 `json:"userId"`
}

type MarkReadRequest struct {
	ChatID int64 `json:"chatId"`
}

func FromUser(u *models.User) User {
	return User{
		ID:         u.ID,
		Phone:      u.Phone,
		Nickname:   u.Nickname,
		Avatar:     u.Avatar,
		InviteCode: u.InviteCode,
		InvitedBy:  u.InvitedBy,
		Status:     string(u.Status),
		LastSeen:   u.LastSeen,
	}
}

func FromChatSummaries(chats []models.ChatSummary) []ChatSummary {
	res := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		res = append(res, FromChatSummary(c))
	}
	return res
}

func FromChatSummary(c models.ChatSummary) ChatSummary {
	out := ChatSummary{
		ID:                 c.ID,
		Type:               string(c.Type),
		Name:               c.Name,
		Icon:               c.Icon,
		LastMessage:        c.LastMessage,
		LastMessageTime:    c.LastMessageAt,
		Unread:             c.Unread,
		MessagesFromOthers: c.MessagesFromOthers,
	}
	if c.LastMessageType != nil {
		t := string(*c.LastMessageType)
		out.MessageType = &t
	}
	if p := c.Peer; p != nil {
		status := string(p.Status)
		out.UserID = &p.UserID
		out.Nickname = &p.Nickname
		out.Avatar = &p.Avatar
		out.Status = &status
	}
	return out
}

func FromMessages(msgs []models.Message) []Message {
	res := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, FromMessage(m))
	}
	return res
}

func FromMessage(m models.Message) Message {
	return Message{
		ID:        m.ID,
		Content:   m.Content,
		Type:      string(m.Type),
		MediaURL:  m.MediaURL,
		StickerID: m.StickerID,
		Time:      m.CreatedAt,
		UserID:    m.UserID,
		Nickname:  m.SenderNickname,
		Avatar:    m.SenderAvatar,
	}
}

// ParseID разбирает идентификатор из пути или query.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("id", fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}
