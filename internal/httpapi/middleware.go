package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/grigory222/go-messenger-server/internal/services/auth"
)

type ctxKey string

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderUserToken - заголовок, которым токен передает веб-клиент.
	HeaderUserToken = "X-User-Token"

	ctxKeyReqID  ctxKey = "req_id"
	ctxKeyUserID ctxKey = "user_id"
)

// requestID пробрасывает X-Request-ID или генерирует новый.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)

		ctx := context.WithValue(r.Context(), ctxKeyReqID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyReqID).(string)
	return v
}

// logging пишет метод, путь, статус и длительность запроса. Тела не логируются: в них токены.
func logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			lvl := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				lvl = slog.LevelWarn
			}

			log.Log(r.Context(), lvl, "http request",
				slog.String("req_id", RequestIDFrom(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// authenticate проверяет access-токен из Authorization: Bearer или X-User-Token
// и кладет id пользователя в контекст.
func authenticate(jwtSecret string) func(http.Handler) http.Handler {
	key := []byte(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := bearer(r)
			if !found {
				writeError(w, http.StatusUnauthorized, "missing or invalid authorization token")
				return
			}

			uid, err := auth.GetUserID(token, key)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	if authz := r.Header.Get("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}

	if token := strings.TrimSpace(r.Header.Get(HeaderUserToken)); token != "" {
		return token, true
	}

	return "", false
}

// userID достает id, положенный authenticate. Вне защищенных маршрутов вернет false.
func userID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(int64)
	return id, ok
}
