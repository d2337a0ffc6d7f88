package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/grigory222/go-messenger-server/internal/dto"
	"github.com/grigory222/go-messenger-server/internal/services/auth"
)

type authHandlers struct {
	log  *slog.Logger
	auth AuthService
}

// POST /api/v1/auth/register
func (h *authHandlers) register(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.register"

	var in dto.RegisterRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}
	if strings.TrimSpace(in.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	access, refresh, user, err := h.auth.Register(r.Context(), auth.RegisterInput{
		Phone:      in.Phone,
		Nickname:   in.Nickname,
		Avatar:     in.Avatar,
		InviteCode: in.InviteCode,
	})
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.AuthResponse{User: dto.FromUser(user), Token: access, RefreshToken: refresh})
}

// POST /api/v1/auth/login
func (h *authHandlers) login(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.login"

	var in dto.LoginRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}
	if strings.TrimSpace(in.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	access, refresh, user, err := h.auth.Login(r.Context(), in.Phone)
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.AuthResponse{User: dto.FromUser(user), Token: access, RefreshToken: refresh})
}

// POST /api/v1/auth/refresh
func (h *authHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.refresh"

	var in dto.RefreshTokenRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}
	if in.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	token, err := h.auth.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.RefreshTokenResponse{Token: token})
}

// PATCH /api/v1/me
func (h *authHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.updateProfile"

	uid, found := userID(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var in dto.UpdateProfileRequest
	if err := decode(w, r, &in); err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), uid, in.Nickname, in.Avatar)
	if err != nil {
		fail(r.Context(), h.log, op, w, err)
		return
	}

	reply(w, dto.UserResponse{User: dto.FromUser(user)})
}
