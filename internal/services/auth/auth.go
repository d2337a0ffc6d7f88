package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/storage"
)

// Notifier сообщает пригласившему о новом контакте. Уведомление пишется через
// переданное хранилище, то есть в той же транзакции, что и регистрация.
type Notifier interface {
	NewContact(ctx context.Context, store storage.NotificationStore, inviterID int64, nickname string) error
}

type RegisterInput struct {
	Phone      string
	Nickname   string
	Avatar     string
	InviteCode string
}

type Service struct {
	log             *slog.Logger
	storage         storage.Storage
	notifier        Notifier
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	jwtSecret       []byte
	codeAttempts    int
	newCode         CodeGenerator
}

func New(
	log *slog.Logger,
	storage storage.Storage,
	notifier Notifier,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	jwtSecret string,
	codeAttempts int,
) *Service {
	if codeAttempts <= 0 {
		codeAttempts = 1
	}
	return &Service{
		log:             log,
		storage:         storage,
		notifier:        notifier,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		jwtSecret:       []byte(jwtSecret),
		codeAttempts:    codeAttempts,
		newCode:         NewInviteCode,
	}
}

// Register создает пользователя. Если указан чужой код приглашения, в той же транзакции
// создается личный чат с пригласившим и ему отправляется уведомление.
// Неизвестный код не мешает регистрации.
func (s *Service) Register(ctx context.Context, in RegisterInput) (accessToken, refreshToken string, user *models.User, err error) {
	const op = "services.auth.Register"

	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return "", "", nil, fmt.Errorf("%s: %w", op, models.NewValidationError("phone", "is required"))
	}

	log := s.log.With(slog.String("op", op), slog.String("phone", phone))

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = models.DefaultNickname
	}
	avatar := strings.TrimSpace(in.Avatar)
	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	code := strings.TrimSpace(in.InviteCode)

	err = s.storage.InTx(ctx, func(tx storage.Storage) error {
		user = &models.User{Phone: phone, Nickname: nickname, Avatar: avatar}
		if code != "" {
			user.InvitedBy = &code
		}

		if err := s.createUser(ctx, log, tx, user); err != nil {
			return err
		}

		if code == "" {
			return nil
		}

		inviter, err := tx.UserByInviteCode(ctx, code)
		if errors.Is(err, models.ErrUserNotFound) {
			log.Info("unknown invite code, registering without contact", slog.String("invite_code", code))
			return nil
		}
		if err != nil {
			return err
		}
		if inviter.ID == user.ID {
			return nil
		}

		chatID, created, err := tx.CreateDirectChat(ctx, inviter.ID, user.ID)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}

		log.Info("direct chat created by invite",
			slog.Int64("chat_id", chatID),
			slog.Int64("inviter_id", inviter.ID),
		)

		return s.notifier.NewContact(ctx, tx, inviter.ID, user.Nickname)
	})
	if err != nil {
		if errors.Is(err, models.ErrPhoneExists) {
			log.Warn("phone already registered")
		} else if !models.IsDomainError(err) {
			log.Error("failed to register user", slog.Any("err", err))
		}
		return "", "", nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, refreshToken, err = NewTokens(user, s.accessTokenTTL, s.refreshTokenTTL, s.jwtSecret)
	if err != nil {
		log.Error("failed to create tokens", slog.Any("err", err))
		return "", "", nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", user.ID))

	return accessToken, refreshToken, user, nil
}

// createUser вставляет пользователя, перегенерируя код приглашения при коллизии.
func (s *Service) createUser(ctx context.Context, log *slog.Logger, tx storage.UserStore, user *models.User) error {
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		user.InviteCode = code

		err = tx.CreateUser(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrInviteCodeExists) {
			return err
		}

		log.Warn("invite code collision, regenerating", slog.Int("attempt", attempt))
	}

	return fmt.Errorf("%d attempts: %w", s.codeAttempts, models.ErrInviteCodeExists)
}

func (s *Service) Login(ctx context.Context, phone string) (accessToken, refreshToken string, user *models.User, err error) {
	const op = "services.auth.Login"

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", "", nil, fmt.Errorf("%s: %w", op, models.NewValidationError("phone", "is required"))
	}

	log := s.log.With(slog.String("op", op), slog.String("phone", phone))

	user, err = s.storage.UserByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			log.Error("failed to get user", slog.Any("err", err))
		}
		return "", "", nil, fmt.Errorf("%s: %w", op, err)
	}

	lastSeen, err := s.storage.TouchLogin(ctx, user.ID)
	if err != nil {
		log.Error("failed to update last seen", slog.Any("err", err))
		return "", "", nil, fmt.Errorf("%s: %w", op, err)
	}
	user.Status = models.StatusOnline
	user.LastSeen = lastSeen

	accessToken, refreshToken, err = NewTokens(user, s.accessTokenTTL, s.refreshTokenTTL, s.jwtSecret)
	if err != nil {
		log.Error("failed to create tokens", slog.Any("err", err))
		return "", "", nil, fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, refreshToken, user, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	const op = "services.auth.RefreshToken"
	log := s.log.With(slog.String("op", op))

	userID, err := userIDOfKind(refreshToken, KindRefresh, s.jwtSecret)
	if err != nil {
		log.Warn("invalid refresh token", slog.Any("err", err))
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	// пользователь мог исчезнуть после выдачи токена
	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("user from token not found", slog.Int64("user_id", userID))
			return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		log.Error("failed to get user by id", slog.Any("err", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := newAccessToken(user, s.accessTokenTTL, s.jwtSecret)
	if err != nil {
		log.Error("failed to create new access token", slog.Any("err", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, nil
}

// UpdateProfile меняет ник и аватар. Пустой аватар сбрасывается на значение по умолчанию.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, nickname, avatar string) (*models.User, error) {
	const op = "services.auth.UpdateProfile"

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%s: %w", op, models.NewValidationError("nickname", "is required"))
	}
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		avatar = models.DefaultAvatar
	}

	user, err := s.storage.UpdateProfile(ctx, userID, nickname, avatar)
	if err != nil {
		if !models.IsDomainError(err) {
			s.log.Error("failed to update profile", slog.String("op", op), slog.Any("err", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
