//go:build integration

package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

type PostgresSuite struct {
	suite.Suite
	ctx     context.Context
	ctr     *tcpostgres.PostgresContainer
	storage *Storage
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()

	ctr, err := tcpostgres.Run(s.ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("messenger"),
		tcpostgres.WithUsername("messenger"),
		tcpostgres.WithPassword("messenger"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.ctr = ctr

	dsn, err := ctr.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	pool, err := pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.storage = NewWithPool(pool, log)
	s.Require().NoError(s.storage.Migrate(s.ctx))
	// повторный прогон схемы не должен падать
	s.Require().NoError(s.storage.Migrate(s.ctx))
}

func (s *PostgresSuite) TearDownSuite() {
	s.storage.Close()
	s.Require().NoError(testcontainers.TerminateContainer(s.ctr))
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.storage.pool.Exec(s.ctx, `TRUNCATE notifications, messages, chat_members, chats, users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresSuite) newUser(phone, code string) *models.User {
	u := &models.User{Phone: phone, Nickname: "nick" + phone, Avatar: "🎮", InviteCode: code}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	return u
}

func (s *PostgresSuite) count(query string, args ...any) int {
	var n int
	s.Require().NoError(s.storage.pool.QueryRow(s.ctx, query, args...).Scan(&n))
	return n
}

func (s *PostgresSuite) text(v string) *string { return &v }

func (s *PostgresSuite) TestCreateUser() {
	u := s.newUser("+1000", "AAAAAAAA")
	s.NotZero(u.ID)
	s.Equal(models.StatusOnline, u.Status)
	s.False(u.LastSeen.IsZero())

	err := s.storage.CreateUser(s.ctx, &models.User{Phone: "+1000", Nickname: "x", Avatar: "x", InviteCode: "BBBBBBBB"})
	s.ErrorIs(err, models.ErrPhoneExists)

	err = s.storage.CreateUser(s.ctx, &models.User{Phone: "+2000", Nickname: "x", Avatar: "x", InviteCode: "AAAAAAAA"})
	s.ErrorIs(err, models.ErrInviteCodeExists)

	s.Equal(1, s.count(`SELECT count(*) FROM users`))

	byCode, err := s.storage.UserByInviteCode(s.ctx, "AAAAAAAA")
	s.Require().NoError(err)
	s.Equal(u.ID, byCode.ID)

	_, err = s.storage.UserByPhone(s.ctx, "+9999")
	s.ErrorIs(err, models.ErrUserNotFound)
}

func (s *PostgresSuite) TestInviteCodeCollisionKeepsTransactionUsable() {
	s.newUser("+1000", "AAAAAAAA")

	err := s.storage.InTx(s.ctx, func(tx storage.Storage) error {
		u := &models.User{Phone: "+2000", Nickname: "B", Avatar: "🎮", InviteCode: "AAAAAAAA"}
		if err := tx.CreateUser(s.ctx, u); !errors.Is(err, models.ErrInviteCodeExists) {
			return errors.New("expected invite code collision")
		}
		u.InviteCode = "CCCCCCCC"
		return tx.CreateUser(s.ctx, u)
	})
	s.Require().NoError(err)
	s.Equal(2, s.count(`SELECT count(*) FROM users`))
}

func (s *PostgresSuite) TestInTxRollsBack() {
	boom := errors.New("boom")

	err := s.storage.InTx(s.ctx, func(tx storage.Storage) error {
		a := &models.User{Phone: "+1000", Nickname: "A", Avatar: "🎮", InviteCode: "AAAAAAAA"}
		if err := tx.CreateUser(s.ctx, a); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, models.ErrTransactionFailed)
	s.ErrorIs(err, boom)
	s.Equal(0, s.count(`SELECT count(*) FROM users`))
}

func (s *PostgresSuite) TestCreateDirectChatIsIdempotent() {
	a := s.newUser("+1000", "AAAAAAAA")
	b := s.newUser("+2000", "BBBBBBBB")

	id1, created, err := s.storage.CreateDirectChat(s.ctx, a.ID, b.ID)
	s.Require().NoError(err)
	s.True(created)

	id2, created, err := s.storage.CreateDirectChat(s.ctx, b.ID, a.ID)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(id1, id2)

	s.Equal(1, s.count(`SELECT count(*) FROM chats`))
	s.Equal(2, s.count(`SELECT count(*) FROM chat_members WHERE chat_id = $1 AND role = 'member'`, id1))

	_, _, err = s.storage.CreateDirectChat(s.ctx, a.ID, a.ID)
	s.ErrorIs(err, models.ErrValidation)

	_, _, err = s.storage.CreateDirectChat(s.ctx, a.ID, 999)
	s.ErrorIs(err, models.ErrUserNotFound)
	s.Equal(1, s.count(`SELECT count(*) FROM chats`))
}

func (s *PostgresSuite) TestCreateGroupChat() {
	a := s.newUser("+1000", "AAAAAAAA")

	chatID, err := s.storage.CreateGroupChat(s.ctx, "Raid", s.text("🐉"), a.ID)
	s.Require().NoError(err)

	role, err := s.storage.MemberRole(s.ctx, chatID, a.ID)
	s.Require().NoError(err)
	s.Equal(models.RoleOwner, role)
	s.Equal(1, s.count(`SELECT count(*) FROM chat_members WHERE chat_id = $1`, chatID))

	b := s.newUser("+2000", "BBBBBBBB")
	s.Require().NoError(s.storage.AddMember(s.ctx, chatID, b.ID, models.RoleMember))
	s.ErrorIs(s.storage.AddMember(s.ctx, chatID, b.ID, models.RoleMember), models.ErrAlreadyMember)
}

func (s *PostgresSuite) TestAppendMessageRequiresMembership() {
	a := s.newUser("+1000", "AAAAAAAA")
	b := s.newUser("+2000", "BBBBBBBB")
	chatID, err := s.storage.CreateGroupChat(s.ctx, "Raid", nil, a.ID)
	s.Require().NoError(err)

	err = s.storage.AppendMessage(s.ctx, &models.Message{ChatID: chatID, UserID: b.ID, Content: s.text("hi"), Type: models.MessageText})
	s.ErrorIs(err, models.ErrNotAMember)
	s.Equal(0, s.count(`SELECT count(*) FROM messages`))

	msg := &models.Message{ChatID: chatID, UserID: a.ID, Content: s.text("hi"), Type: models.MessageText}
	s.Require().NoError(s.storage.AppendMessage(s.ctx, msg))
	s.NotZero(msg.ID)
	s.False(msg.CreatedAt.IsZero())
	s.Equal(a.Nickname, msg.SenderNickname)
}

func (s *PostgresSuite) TestLatestMessagesWindow() {
	a := s.newUser("+1000", "AAAAAAAA")
	chatID, err := s.storage.CreateGroupChat(s.ctx, "Raid", nil, a.ID)
	s.Require().NoError(err)

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		s.Require().NoError(s.storage.AppendMessage(s.ctx, &models.Message{ChatID: chatID, UserID: a.ID, Content: s.text(text), Type: models.MessageText}))
	}

	msgs, err := s.storage.LatestMessages(s.ctx, chatID, 3)
	s.Require().NoError(err)
	s.Require().Len(msgs, 3)
	s.Equal("3", *msgs[0].Content)
	s.Equal("5", *msgs[2].Content)
	s.True(msgs[0].CreatedAt.Before(msgs[2].CreatedAt))

	all, err := s.storage.LatestMessages(s.ctx, chatID, 50)
	s.Require().NoError(err)
	s.Len(all, 5)
}

func (s *PostgresSuite) TestListChats() {
	a := s.newUser("+1000", "AAAAAAAA")
	b := s.newUser("+2000", "BBBBBBBB")
	c := s.newUser("+3000", "CCCCCCCC")

	direct, _, err := s.storage.CreateDirectChat(s.ctx, a.ID, b.ID)
	s.Require().NoError(err)
	empty, err := s.storage.CreateGroupChat(s.ctx, "Empty", nil, a.ID)
	s.Require().NoError(err)
	group, err := s.storage.CreateGroupChat(s.ctx, "Raid", s.text("🐉"), a.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.storage.AddMember(s.ctx, group, b.ID, models.RoleMember))
	s.Require().NoError(s.storage.AddMember(s.ctx, group, c.ID, models.RoleMember))
	// чат, где a не участник
	_, _, err = s.storage.CreateDirectChat(s.ctx, b.ID, c.ID)
	s.Require().NoError(err)

	send := func(chatID, userID int64, text string) {
		s.Require().NoError(s.storage.AppendMessage(s.ctx, &models.Message{ChatID: chatID, UserID: userID, Content: s.text(text), Type: models.MessageText}))
	}
	send(group, c.ID, "group first")
	send(direct, b.ID, "hi")
	send(direct, a.ID, "hello")

	chats, err := s.storage.ListChats(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(chats, 3)

	s.Equal(direct, chats[0].ID)
	s.Equal(group, chats[1].ID)
	s.Equal(empty, chats[2].ID)

	s.Require().NotNil(chats[0].Peer)
	s.Equal(b.ID, chats[0].Peer.UserID)
	s.Equal("hello", *chats[0].LastMessage)
	s.Equal(1, chats[0].Unread)
	s.Equal(1, chats[0].MessagesFromOthers)

	s.Nil(chats[1].Peer)
	s.Equal("Raid", chats[1].Name)
	s.Equal("🐉", chats[1].Icon)

	s.Nil(chats[2].LastMessageAt)
	s.Equal(0, chats[2].Unread)

	s.Require().NoError(s.storage.MarkRead(s.ctx, direct, a.ID))
	send(direct, b.ID, "again")

	chats, err = s.storage.ListChats(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(direct, chats[0].ID)
	s.Equal(1, chats[0].Unread)
	s.Equal(2, chats[0].MessagesFromOthers)

	s.ErrorIs(s.storage.MarkRead(s.ctx, direct, c.ID), models.ErrNotAMember)
}

func (s *PostgresSuite) TestTouchLoginAndProfile() {
	a := s.newUser("+1000", "AAAAAAAA")
	_, err := s.storage.pool.Exec(s.ctx, `UPDATE users SET status = 'offline' WHERE id = $1`, a.ID)
	s.Require().NoError(err)

	seen, err := s.storage.TouchLogin(s.ctx, a.ID)
	s.Require().NoError(err)
	s.False(seen.Before(a.LastSeen))

	got, err := s.storage.UserByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusOnline, got.Status)

	upd, err := s.storage.UpdateProfile(s.ctx, a.ID, "Shadow", "🦁")
	s.Require().NoError(err)
	s.Equal("Shadow", upd.Nickname)
	s.Equal("🦁", upd.Avatar)

	_, err = s.storage.TouchLogin(s.ctx, 999)
	s.ErrorIs(err, models.ErrUserNotFound)
}

func (s *PostgresSuite) TestCreateNotification() {
	a := s.newUser("+1000", "AAAAAAAA")

	n := &models.Notification{UserID: a.ID, Type: models.NotificationNewContact, Title: "t", Message: "m"}
	s.Require().NoError(s.storage.CreateNotification(s.ctx, n))
	s.NotZero(n.ID)
	s.Equal(1, s.count(`SELECT count(*) FROM notifications WHERE user_id = $1`, a.ID))
}
