package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/auth"
	"github.com/jivhala-motors/backoffice/internal/domain"
	"github.com/jivhala-motors/backoffice/internal/service"
)

// AuthHandler serves login and account self-management endpoints.
type AuthHandler struct {
	userService *service.UserService
	tokens      *auth.TokenIssuer
	logger      zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userService *service.UserService, tokens *auth.TokenIssuer, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers routes that require a bearer token.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Put("/auth/profile", h.handleUpdateProfile)
	r.Put("/auth/password", h.handleUpdatePassword)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates by username or email and issues a session token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Debug().Err(err).Str("username", req.Username).Msg("Login failed")
		writeError(w, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User logged in")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), service.UpdateProfileInput{
		UserID: user.ID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.userService.UpdatePassword(r.Context(), service.UpdatePasswordInput{
		UserID:      user.ID,
		OldPassword: req.CurrentPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		// Failing the old-password check is a bad request here, not a
		// session problem.
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeMessage(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password updated successfully")
}
