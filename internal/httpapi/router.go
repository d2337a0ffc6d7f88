package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/services/auth"
	"github.com/grigory222/go-messenger-server/internal/services/chat"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (accessToken, refreshToken string, user *models.User, err error)
	Login(ctx context.Context, phone string) (accessToken, refreshToken string, user *models.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	UpdateProfile(ctx context.Context, userID int64, nickname, avatar string) (*models.User, error)
}

type ChatService interface {
	ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error)
	SendMessage(ctx context.Context, in chat.SendMessageInput) (*models.Message, error)
	GetMessages(ctx context.Context, userID, chatID int64, limit int) ([]models.Message, error)
	CreateGroup(ctx context.Context, creatorID int64, name, icon string) (int64, error)
	AddGroupMember(ctx context.Context, actorID, chatID, userID int64) error
	MarkRead(ctx context.Context, userID, chatID int64) error
}

type Deps struct {
	Log            *slog.Logger
	Auth           AuthService
	Chat           ChatService
	JWTSecret      string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logging(d.Log))
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", HeaderRequestID, HeaderUserToken},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]string{"status": "ok"})
	})

	ah := &authHandlers{log: d.Log, auth: d.Auth}
	ch := &chatHandlers{log: d.Log, chat: d.Chat}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", ah.register)
			r.Post("/login", ah.login)
			r.Post("/refresh", ah.refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate(d.JWTSecret))

			r.Patch("/me", ah.updateProfile)

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", ch.listChats)
				r.Post("/groups", ch.createGroup)

				r.Route("/{chatID}", func(r chi.Router) {
					r.Get("/messages", ch.getMessages)
					r.Post("/messages", ch.sendMessage)
					r.Post("/members", ch.addMember)
					r.Post("/read", ch.markRead)
				})
			})
		})
	})

	return r
}
