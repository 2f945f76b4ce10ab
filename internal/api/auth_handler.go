package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/auth"
	"github.com/observer/parley/internal/database"
	"github.com/observer/parley/internal/domain"
)

// AuthHandler mints access tokens and serves profile lookups. Token
// minting is a development convenience; in production tokens come from
// the identity provider fronting this service.
type AuthHandler struct {
	tokens      *auth.TokenService
	profileRepo *database.ProfileRepository
	devMode     bool
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokens *auth.TokenService, profileRepo *database.ProfileRepository, devMode bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		tokens:      tokens,
		profileRepo: profileRepo,
		devMode:     devMode,
		logger:      logger,
	}
}

// DevTokenRequest is the request body for minting a development token.
type DevTokenRequest struct {
	UserID    string `json:"user_id,omitempty"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DevToken mints an access token and upserts the matching profile.
// Disabled outside development.
func (h *AuthHandler) DevToken(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	var req DevTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "full_name is required")
		return
	}

	userID := uuid.New()
	if req.UserID != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		userID = parsed
	}

	if err := h.profileRepo.Upsert(r.Context(), &domain.Profile{
		ID:        userID,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	}); err != nil {
		h.logger.Error("failed to upsert profile", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	token, expiresAt, err := h.tokens.GenerateAccessToken(userID, req.FullName)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"expires_at":   expiresAt,
		"user_id":      userID,
	})
}

// Me returns the authenticated participant's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	profile, err := h.profileRepo.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.logger.Error("failed to get profile", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
