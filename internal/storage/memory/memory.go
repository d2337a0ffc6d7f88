// Package memory - хранилище в памяти процесса с теми же гарантиями, что и postgres:
// уникальность телефона и кода, идемпотентный личный чат, атомарные транзакции.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/storage"
)

type state struct {
	users map[int64]models.User
	// индексы уникальности
	phones     map[string]int64
	codes      map[string]int64
	directKeys map[string]int64

	chats map[int64]models.Chat
	// chatID -> userID -> участник
	members map[int64]map[int64]models.ChatMember
	// chatID -> сообщения в порядке добавления (created_at, id)
	messages      map[int64][]models.Message
	notifications []models.Notification

	lastUserID, lastChatID, lastMessageID, lastNotificationID int64
	lastTS                                                    time.Time
}

func newState() *state {
	return &state{
		users:      make(map[int64]models.User),
		phones:     make(map[string]int64),
		codes:      make(map[string]int64),
		directKeys: make(map[string]int64),
		chats:      make(map[int64]models.Chat),
		members:    make(map[int64]map[int64]models.ChatMember),
		messages:   make(map[int64][]models.Message),
	}
}

func (st *state) clone() *state {
	c := *st
	c.users = maps.Clone(st.users)
	c.phones = maps.Clone(st.phones)
	c.codes = maps.Clone(st.codes)
	c.directKeys = maps.Clone(st.directKeys)
	c.chats = maps.Clone(st.chats)
	c.members = make(map[int64]map[int64]models.ChatMember, len(st.members))
	for chatID, m := range st.members {
		c.members[chatID] = maps.Clone(m)
	}
	c.messages = make(map[int64][]models.Message, len(st.messages))
	for chatID, msgs := range st.messages {
		c.messages[chatID] = slices.Clone(msgs)
	}
	c.notifications = slices.Clone(st.notifications)
	return &c
}

// now выдает строго возрастающие отметки времени, как clock_timestamp() с точностью до микросекунды.
func (st *state) now() time.Time {
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(st.lastTS) {
		t = st.lastTS.Add(time.Microsecond)
	}
	st.lastTS = t
	return t
}

type Storage struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

var _ storage.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{mu: &sync.Mutex{}, st: newState()}
}

// lock берет мьютекс, если вызов не внутри транзакции (там он уже захвачен).
func (s *Storage) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Storage) Close() {}

func (s *Storage) InTx(ctx context.Context, fn func(tx storage.Storage) error) error {
	const op = "storage.memory.InTx"

	defer s.lock()()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	snapshot := s.st.clone()

	if err := fn(&Storage{mu: s.mu, st: s.st, inTx: true}); err != nil {
		*s.st = *snapshot
		if models.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("%s: %w: %w", op, models.ErrTransactionFailed, err)
	}

	// отмена контекста до фиксации откатывает транзакцию
	if err := ctx.Err(); err != nil {
		*s.st = *snapshot
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.memory.CreateUser"

	defer s.lock()()

	if _, ok := s.st.phones[user.Phone]; ok {
		return fmt.Errorf("%s: %w", op, models.ErrPhoneExists)
	}
	if _, ok := s.st.codes[user.InviteCode]; ok {
		return fmt.Errorf("%s: %w", op, models.ErrInviteCodeExists)
	}

	s.st.lastUserID++
	now := s.st.now()

	user.ID = s.st.lastUserID
	user.Status = models.StatusOnline
	user.LastSeen = now
	user.CreatedAt = now

	s.st.users[user.ID] = *user
	s.st.phones[user.Phone] = user.ID
	s.st.codes[user.InviteCode] = user.ID

	return nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.memory.UserByID"

	defer s.lock()()

	u, ok := s.st.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return &u, nil
}

func (s *Storage) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	const op = "storage.memory.UserByPhone"

	defer s.lock()()

	id, ok := s.st.phones[phone]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	u := s.st.users[id]
	return &u, nil
}

func (s *Storage) UserByInviteCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.memory.UserByInviteCode"

	defer s.lock()()

	id, ok := s.st.codes[code]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	u := s.st.users[id]
	return &u, nil
}

func (s *Storage) TouchLogin(ctx context.Context, userID int64) (time.Time, error) {
	const op = "storage.memory.TouchLogin"

	defer s.lock()()

	u, ok := s.st.users[userID]
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	u.Status = models.StatusOnline
	u.LastSeen = s.st.now()
	s.st.users[userID] = u

	return u.LastSeen, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, userID int64, nickname, avatar string) (*models.User, error) {
	const op = "storage.memory.UpdateProfile"

	defer s.lock()()

	u, ok := s.st.users[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	u.Nickname = nickname
	u.Avatar = avatar
	s.st.users[userID] = u

	return &u, nil
}

func (s *Storage) CreateDirectChat(ctx context.Context, userA, userB int64) (int64, bool, error) {
	const op = "storage.memory.CreateDirectChat"

	if userA == userB {
		return 0, false, fmt.Errorf("%s: %w", op, models.NewValidationError("user_id", "direct chat needs two different users"))
	}

	defer s.lock()()

	for _, id := range []int64{userA, userB} {
		if _, ok := s.st.users[id]; !ok {
			return 0, false, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
	}

	lo, hi := min(userA, userB), max(userA, userB)
	key := fmt.Sprintf("%d:%d", lo, hi)

	if chatID, ok := s.st.directKeys[key]; ok {
		return chatID, false, nil
	}

	chatID := s.st.insertChat(models.Chat{Type: models.ChatDirect})
	s.st.directKeys[key] = chatID
	s.st.insertMember(chatID, userA, models.RoleMember)
	s.st.insertMember(chatID, userB, models.RoleMember)

	return chatID, true, nil
}

func (s *Storage) CreateGroupChat(ctx context.Context, name string, icon *string, creatorID int64) (int64, error) {
	const op = "storage.memory.CreateGroupChat"

	defer s.lock()()

	if _, ok := s.st.users[creatorID]; !ok {
		return 0, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	chatID := s.st.insertChat(models.Chat{Type: models.ChatGroup, Name: &name, Icon: icon})
	s.st.insertMember(chatID, creatorID, models.RoleOwner)

	return chatID, nil
}

func (s *Storage) AddMember(ctx context.Context, chatID, userID int64, role models.Role) error {
	const op = "storage.memory.AddMember"

	defer s.lock()()

	if _, ok := s.st.chats[chatID]; !ok {
		return fmt.Errorf("%s: %w", op, models.ErrChatNotFound)
	}
	if _, ok := s.st.users[userID]; !ok {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if _, ok := s.st.members[chatID][userID]; ok {
		return fmt.Errorf("%s: %w", op, models.ErrAlreadyMember)
	}

	s.st.insertMember(chatID, userID, role)

	return nil
}

func (s *Storage) ChatByID(ctx context.Context, chatID int64) (*models.Chat, error) {
	const op = "storage.memory.ChatByID"

	defer s.lock()()

	c, ok := s.st.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrChatNotFound)
	}
	return &c, nil
}

func (s *Storage) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	defer s.lock()()

	_, ok := s.st.members[chatID][userID]
	return ok, nil
}

func (s *Storage) MemberRole(ctx context.Context, chatID, userID int64) (models.Role, error) {
	const op = "storage.memory.MemberRole"

	defer s.lock()()

	m, ok := s.st.members[chatID][userID]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, models.ErrNotAMember)
	}
	return m.Role, nil
}

func (s *Storage) MarkRead(ctx context.Context, chatID, userID int64) error {
	const op = "storage.memory.MarkRead"

	defer s.lock()()

	m, ok := s.st.members[chatID][userID]
	if !ok {
		return fmt.Errorf("%s: %w", op, models.ErrNotAMember)
	}
	now := s.st.now()
	m.LastReadAt = &now
	s.st.members[chatID][userID] = m

	return nil
}

func (s *Storage) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	defer s.lock()()

	var (
		chats  []models.ChatSummary
		lastID = make(map[int64]int64)
	)
	for chatID, members := range s.st.members {
		me, ok := members[userID]
		if !ok {
			continue
		}
		chat := s.st.chats[chatID]

		summary := models.ChatSummary{ID: chat.ID, Type: chat.Type}
		if chat.Name != nil {
			summary.Name = *chat.Name
		}
		if chat.Icon != nil {
			summary.Icon = *chat.Icon
		}
		if chat.Type == models.ChatDirect {
			summary.Peer = s.st.peer(chatID, userID)
		}

		msgs := s.st.messages[chatID]
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			summary.LastMessage = last.Content
			summary.LastMessageAt = &last.CreatedAt
			summary.LastMessageType = &last.Type
			lastID[chatID] = last.ID
		}
		for _, m := range msgs {
			if m.UserID == userID {
				continue
			}
			summary.MessagesFromOthers++
			if me.LastReadAt == nil || m.CreatedAt.After(*me.LastReadAt) {
				summary.Unread++
			}
		}

		chats = append(chats, summary)
	}

	slices.SortFunc(chats, func(a, b models.ChatSummary) int {
		switch {
		case a.LastMessageAt == nil && b.LastMessageAt == nil:
			return cmp.Compare(b.ID, a.ID)
		case a.LastMessageAt == nil:
			return 1
		case b.LastMessageAt == nil:
			return -1
		}
		if c := b.LastMessageAt.Compare(*a.LastMessageAt); c != 0 {
			return c
		}
		if c := cmp.Compare(lastID[b.ID], lastID[a.ID]); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return chats, nil
}

func (s *Storage) AppendMessage(ctx context.Context, msg *models.Message) error {
	const op = "storage.memory.AppendMessage"

	defer s.lock()()

	if _, ok := s.st.chats[msg.ChatID]; !ok {
		return fmt.Errorf("%s: %w", op, models.ErrChatNotFound)
	}
	if _, ok := s.st.members[msg.ChatID][msg.UserID]; !ok {
		return fmt.Errorf("%s: %w", op, models.ErrNotAMember)
	}

	s.st.lastMessageID++
	msg.ID = s.st.lastMessageID
	msg.CreatedAt = s.st.now()

	sender := s.st.users[msg.UserID]
	msg.SenderNickname = sender.Nickname
	msg.SenderAvatar = sender.Avatar

	s.st.messages[msg.ChatID] = append(s.st.messages[msg.ChatID], *msg)

	return nil
}

func (s *Storage) LatestMessages(ctx context.Context, chatID int64, limit int) ([]models.Message, error) {
	defer s.lock()()

	msgs := s.st.messages[chatID]
	if limit <= 0 {
		return []models.Message{}, nil
	}
	if limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}

	res := slices.Clone(msgs)
	for i := range res {
		sender := s.st.users[res[i].UserID]
		res[i].SenderNickname = sender.Nickname
		res[i].SenderAvatar = sender.Avatar
	}
	if res == nil {
		res = []models.Message{}
	}

	return res, nil
}

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	const op = "storage.memory.CreateNotification"

	defer s.lock()()

	if _, ok := s.st.users[n.UserID]; !ok {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	s.st.lastNotificationID++
	n.ID = s.st.lastNotificationID
	n.CreatedAt = s.st.now()
	s.st.notifications = append(s.st.notifications, *n)

	return nil
}

// Notifications возвращает уведомления пользователя. Чтение уведомлений наружу не выставлено,
// метод нужен для проверок и отладки.
func (s *Storage) Notifications(userID int64) []models.Notification {
	defer s.lock()()

	var res []models.Notification
	for _, n := range s.st.notifications {
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	return res
}

func (st *state) insertChat(chat models.Chat) int64 {
	st.lastChatID++
	chat.ID = st.lastChatID
	chat.CreatedAt = st.now()
	st.chats[chat.ID] = chat
	return chat.ID
}

func (st *state) insertMember(chatID, userID int64, role models.Role) {
	if st.members[chatID] == nil {
		st.members[chatID] = make(map[int64]models.ChatMember)
	}
	st.members[chatID][userID] = models.ChatMember{
		ChatID:   chatID,
		UserID:   userID,
		Role:     role,
		JoinedAt: st.now(),
	}
}

// peer - другой участник личного чата; при нескольких берется с меньшим id.
func (st *state) peer(chatID, userID int64) *models.Peer {
	ids := slices.Sorted(maps.Keys(st.members[chatID]))
	for _, id := range ids {
		if id == userID {
			continue
		}
		u := st.users[id]
		return &models.Peer{UserID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar, Status: u.Status}
	}
	return nil
}
