package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/dto"
	"github.com/grigory222/go-messenger-server/internal/services/chat"
)

type chatHandlers struct {
	log  *slog.Logger
	chat ChatService
}

// caller возвращает пользователя из токена и chatID из пути.
func caller(w http.ResponseWriter, r *http.Request) (uid, chatID int64, ok bool) {
	uid, found := userID(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return 0, 0, false
	}

	chatID, err := dto.ParseID(chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return 0, 0, false
	}

	return uid, chatID, true
}

// GET /api/v1/chats
func (h *chatHandlers) listChats(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.listChats"

	uid, found := userID(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	chats, err := h.chat.ListChats(r.Context(), uid)
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.ListChatsResponse{Chats: dto.FromChatSummaries(chats)})
}

// POST /api/v1/chats/groups
func (h *chatHandlers) createGroup(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.createGroup"

	uid, found := userID(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var in dto.CreateGroupRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	chatID, err := h.chat.CreateGroup(r.Context(), uid, in.Name, in.Icon)
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.CreateGroupResponse{ChatID: chatID})
}

// GET /api/v1/chats/{chatID}/messages?limit=
func (h *chatHandlers) getMessages(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.getMessages"

	uid, chatID, ok := caller(w, r)
	if !ok {
		return
	}

	var limit int
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	messages, err := h.chat.GetMessages(r.Context(), uid, chatID, limit)
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.GetMessagesResponse{Messages: dto.FromMessages(messages)})
}

// POST /api/v1/chats/{chatID}/messages
func (h *chatHandlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.sendMessage"

	uid, chatID, ok := caller(w, r)
	if !ok {
		return
	}

	var in dto.SendMessageRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	// отправитель всегда берется из токена, chatId из тела игнорируется
	msg, err := h.chat.SendMessage(r.Context(), chat.SendMessageInput{
		ChatID:    chatID,
		UserID:    uid,
		Content:   in.Content,
		Type:      models.MessageType(in.MessageType),
		MediaURL:  in.MediaURL,
		StickerID: string(in.StickerID),
	})
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.SendMessageResponse{MessageID: msg.ID, CreatedAt: msg.CreatedAt})
}

// POST /api/v1/chats/{chatID}/members
func (h *chatHandlers) addMember(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.addMember"

	uid, chatID, ok := caller(w, r)
	if !ok {
		return
	}

	var in dto.AddMemberRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}
	if in.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.chat.AddGroupMember(r.Context(), uid, chatID, in.UserID); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.Empty{})
}

// POST /api/v1/chats/{chatID}/read
func (h *chatHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.markRead"

	uid, chatID, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.chat.MarkRead(r.Context(), uid, chatID); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.Empty{})
}
