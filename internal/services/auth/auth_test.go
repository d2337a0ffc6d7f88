package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/services/notify"
	"github.com/grigory222/go-messenger-server/internal/storage"
	"github.com/grigory222/go-messenger-server/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(os.Stdout, nil)) }

type failingNotifier struct{ err error }

func (f failingNotifier) NewContact(ctx context.Context, store storage.NotificationStore, inviterID int64, nickname string) error {
	return f.err
}

// codes выдает заданные коды по очереди.
func codes(list ...string) CodeGenerator {
	i := 0
	return func() (string, error) {
		code := list[i%len(list)]
		i++
		return code, nil
	}
}

func newService(st storage.Storage) *Service {
	return New(testLogger(), st, notify.New(testLogger()), time.Minute, time.Hour, "secret", 3)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	access, refresh, user, err := svc.Register(ctx, RegisterInput{Phone: " +1000 ", Nickname: "Alice", Avatar: "🦊"})
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "+1000", user.Phone)
	assert.Len(t, user.InviteCode, InviteCodeLen)
	assert.Nil(t, user.InvitedBy)

	uid, err := GetUserID(access, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	_, _, _, err = svc.Register(ctx, RegisterInput{Phone: "+1000"})
	assert.ErrorIs(t, err, models.ErrPhoneExists)

	access, _, logged, err := svc.Login(ctx, "+1000")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.Equal(t, user.ID, logged.ID)
	assert.Equal(t, models.StatusOnline, logged.Status)
	assert.False(t, logged.LastSeen.Before(user.LastSeen))

	_, _, _, err = svc.Login(ctx, "+9999")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestRegister_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	_, _, _, err := svc.Register(ctx, RegisterInput{Phone: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, _, _, err = svc.Login(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, _, user, err := svc.Register(ctx, RegisterInput{Phone: "+1000"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNickname, user.Nickname)
	assert.Equal(t, models.DefaultAvatar, user.Avatar)
}

func TestRegister_ByInviteCreatesContact(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newService(st)
	svc.newCode = codes("XYZ1ABCD", "QWERTY12")

	_, _, a, err := svc.Register(ctx, RegisterInput{Phone: "+1000", Nickname: "A"})
	require.NoError(t, err)
	require.Equal(t, "XYZ1ABCD", a.InviteCode)

	_, _, b, err := svc.Register(ctx, RegisterInput{Phone: "+2000", Nickname: "B", InviteCode: " XYZ1ABCD "})
	require.NoError(t, err)
	require.NotNil(t, b.InvitedBy)
	assert.Equal(t, "XYZ1ABCD", *b.InvitedBy)

	chats, err := st.ListChats(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, models.ChatDirect, chats[0].Type)
	require.NotNil(t, chats[0].Peer)
	assert.Equal(t, b.ID, chats[0].Peer.UserID)

	ok, err := st.IsMember(ctx, chats[0].ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	notes := st.Notifications(a.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Новый контакт", notes[0].Title)
	assert.Empty(t, st.Notifications(b.ID))
}

func TestRegister_UnknownInviteCodeStillRegisters(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newService(st)

	_, _, user, err := svc.Register(ctx, RegisterInput{Phone: "+1000", InviteCode: "NOPE0000"})
	require.NoError(t, err)
	require.NotNil(t, user.InvitedBy)

	chats, err := st.ListChats(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestRegister_RegeneratesCollidingInviteCode(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())
	svc.newCode = codes("AAAAAAAA", "AAAAAAAA", "BBBBBBBB")

	_, _, first, err := svc.Register(ctx, RegisterInput{Phone: "+1000"})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAA", first.InviteCode)

	_, _, second, err := svc.Register(ctx, RegisterInput{Phone: "+2000"})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB", second.InviteCode)
}

func TestRegister_InviteCodeAttemptsExhausted(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newService(st)
	svc.newCode = codes("AAAAAAAA")

	_, _, _, err := svc.Register(ctx, RegisterInput{Phone: "+1000"})
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, RegisterInput{Phone: "+2000"})
	assert.ErrorIs(t, err, models.ErrInviteCodeExists)

	_, err = st.UserByPhone(ctx, "+2000")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestRegister_NotificationFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newService(st)
	svc.newCode = codes("XYZ1ABCD", "QWERTY12")

	_, _, a, err := svc.Register(ctx, RegisterInput{Phone: "+1000", Nickname: "A"})
	require.NoError(t, err)

	svc.notifier = failingNotifier{err: errors.New("disk full")}
	_, _, _, err = svc.Register(ctx, RegisterInput{Phone: "+2000", InviteCode: a.InviteCode})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransactionFailed)

	_, err = st.UserByPhone(ctx, "+2000")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	chats, err := st.ListChats(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	access, refresh, user, err := svc.Register(ctx, RegisterInput{Phone: "+1000", Nickname: "Bob"})
	require.NoError(t, err)

	newAccess, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	uid, err := GetUserID(newAccess, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	_, err = svc.RefreshToken(ctx, refresh+"tamper")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// access токен нельзя обменять
	_, err = svc.RefreshToken(ctx, access)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, ghost, err := NewTokens(&models.User{ID: 999}, time.Minute, time.Hour, []byte("secret"))
	require.NoError(t, err)
	_, err = svc.RefreshToken(ctx, ghost)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	_, _, user, err := svc.Register(ctx, RegisterInput{Phone: "+1000", Avatar: "🦊"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, " Neo ", "")
	require.NoError(t, err)
	assert.Equal(t, "Neo", updated.Nickname)
	assert.Equal(t, models.DefaultAvatar, updated.Avatar)

	_, err = svc.UpdateProfile(ctx, user.ID, " ", "x")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.UpdateProfile(ctx, 999, "Ghost", "x")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
