package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStickerIDAcceptsNumbersAndStrings(t *testing.T) {
	var req SendMessageRequest

	require.NoError(t, json.Unmarshal([]byte(`{"chatId":1,"messageType":"sticker","stickerId":17}`), &req))
	assert.Equal(t, StickerID("17"), req.StickerID)

	require.NoError(t, json.Unmarshal([]byte(`{"chatId":1,"stickerId":"cat_01"}`), &req))
	assert.Equal(t, StickerID("cat_01"), req.StickerID)

	require.NoError(t, json.Unmarshal([]byte(`{"chatId":1,"stickerId":null}`), &req))
	assert.Equal(t, StickerID(""), req.StickerID)

	assert.Error(t, json.Unmarshal([]byte(`{"stickerId":{}}`), &req))
}

func TestFromChatSummaryDirectAndGroup(t *testing.T) {
	now := time.Now()
	text := "hi"
	msgType := models.MessageText

	direct := FromChatSummary(models.ChatSummary{
		ID:              1,
		Type:            models.ChatDirect,
		Name:            "Bob",
		Peer:            &models.Peer{UserID: 2, Nickname: "Bob", Avatar: "🐻", Status: models.StatusOnline},
		LastMessage:     &text,
		LastMessageAt:   &now,
		LastMessageType: &msgType,
		Unread:          1,
	})
	require.NotNil(t, direct.UserID)
	assert.Equal(t, int64(2), *direct.UserID)
	assert.Equal(t, "online", *direct.Status)
	assert.Equal(t, "text", *direct.MessageType)

	raw, err := json.Marshal(FromChatSummary(models.ChatSummary{ID: 3, Type: models.ChatGroup, Name: "Raid"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"type":"group","name":"Raid","icon":"","userId":null,"nickname":null,"avatar":null,
		"status":null,"lastMessage":null,"lastMessageTime":null,"messageType":null,"unread":0,"messagesFromOthers":0}`, string(raw))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-1"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, models.ErrValidation, bad)
	}
}
