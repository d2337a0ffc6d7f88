package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/dto"
	"github.com/grigory222/go-messenger-server/internal/lib/errs"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func reply(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

// writeError отдает {"error": msg}, как и исходный клиент ожидает.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// fail переводит ошибку сервиса в HTTP-статус. Внутренние сбои логируются.
func fail(ctx context.Context, log *slog.Logger, op string, w http.ResponseWriter, err error) {
	code := errs.ToHTTP(err)
	if code >= http.StatusInternalServerError {
		log.ErrorContext(ctx, "request failed",
			slog.String("op", op),
			slog.String("req_id", RequestIDFrom(ctx)),
			slog.Any("err", err),
		)
	}
	writeError(w, code, errs.Message(err))
}

// decode читает JSON-тело запроса. Пустое тело равносильно {}.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return models.NewValidationError("body", "invalid JSON")
	}
	return nil
}
