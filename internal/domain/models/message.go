package models

import "time"

type MessageType string

const (
	MessageText    MessageType = "text"
	MessageMedia   MessageType = "media"
	MessageSticker MessageType = "sticker"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageMedia, MessageSticker:
		return true
	}
	return false
}

type Message struct {
	ID        int64
	ChatID    int64
	UserID    int64
	Content   *string
	Type      MessageType
	MediaURL  *string
	StickerID *string
	CreatedAt time.Time

	SenderNickname string
	SenderAvatar   string
}
