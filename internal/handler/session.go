package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/affeed/affeed/internal/ctxkeys"
	"github.com/affeed/affeed/internal/repository"
	"github.com/affeed/affeed/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// Users lists the roster to pick an identity from.
func (h *SessionHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.sessionService.Users()
	if err != nil {
		slog.Error("failed to load roster", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load users")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Login establishes the active identity for this session.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, sess, err := h.sessionService.Login(req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusUnprocessableEntity, "unknown user")
			return
		}
		slog.Error("login failed", "error", err, "user_id", req.UserID)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.sessionService.GenerateJWT(user, sess.ID)
	if err != nil {
		slog.Error("failed to generate session token", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.sessionService.SetJWTCookie(w, token)
	slog.Info("session started", "user_id", user.ID, "session_id", sess.ID)

	respondJSON(w, http.StatusCreated, map[string]any{
		"user":   user,
		"screen": sess.Screen,
	})
}

// Logout discards the session and its draft.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())
	if sessionID != "" {
		h.sessionService.Logout(sessionID)
	}

	h.sessionService.ClearJWTCookie(w)
	respondJSON(w, http.StatusNoContent, nil)
}

// Session returns the current identity and screen.
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	sessionID := ctxkeys.SessionID(r.Context())

	sess, err := h.sessionService.Session(sessionID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"screen": sess.Screen,
	})
}

// Navigate switches between the feed and composer screens.
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())

	var req struct {
		Screen string `json:"screen"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.sessionService.Navigate(sessionID, req.Screen)
	if err != nil {
		if errors.Is(err, service.ErrUnknownScreen) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("navigation failed", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "navigation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"screen": sess.Screen})
}
