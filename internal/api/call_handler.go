package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/auth"
	"github.com/observer/parley/internal/database"
	"github.com/observer/parley/internal/domain"
)

// CallHandler serves call history endpoints.
type CallHandler struct {
	callRepo *database.CallRecordRepository
	logger   *slog.Logger
}

// NewCallHandler creates a new CallHandler
func NewCallHandler(callRepo *database.CallRecordRepository, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		callRepo: callRepo,
		logger:   logger,
	}
}

// GetCallHistory returns the authenticated participant's call history,
// newest first.
func (h *CallHandler) GetCallHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	limit := 50
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	calls, err := h.callRepo.ListForParticipant(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("failed to get call history", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to get call history")
		return
	}

	if calls == nil {
		calls = []domain.CallRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calls":  calls,
		"limit":  limit,
		"offset": offset,
	})
}

// GetCall returns one call record. Only its two participants may read it.
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid call ID")
		return
	}

	record, err := h.callRepo.Get(r.Context(), callID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Call not found")
			return
		}
		h.logger.Error("failed to get call", "error", err, "call_id", callID)
		writeError(w, http.StatusInternalServerError, "Failed to get call")
		return
	}

	if record.CallerID != userID && record.ReceiverID != userID {
		writeError(w, http.StatusForbidden, "Not a participant of this call")
		return
	}

	writeJSON(w, http.StatusOK, record)
}
