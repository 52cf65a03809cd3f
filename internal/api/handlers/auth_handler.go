package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	middleware "github.com/markdave123-py/orthoscan/internal/api/middlewares"
	"github.com/markdave123-py/orthoscan/internal/services"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

type AuthHandler struct {
	users  *services.UserService
	secret []byte
	log    *zap.Logger
}

func NewAuthHandler(users *services.UserService, secret []byte, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{users: users, secret: secret, log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrEmailTaken):
		writeError(w, http.StatusConflict, "user exists")
		return
	case err != nil:
		h.log.Error("signup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondToken(w, http.StatusCreated, user.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.respondToken(w, http.StatusOK, user.ID)
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, status int, userID string) {
	token, err := middleware.IssueToken(h.secret, userID, TokenTTL)
	if err != nil {
		h.log.Error("sign token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, tokenResponse{Token: token, UserID: userID})
}
