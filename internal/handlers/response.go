package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/novel-engine/internal/services/sessions"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, storage.ErrScriptNotFound):
		return http.StatusNotFound, "Script not found"
	case errors.Is(err, sessions.ErrInvalidScriptName):
		return http.StatusBadRequest, "Invalid script file name"
	case errors.Is(err, sessions.ErrUnknownOp):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, playback.ErrInvalidSnapshot):
		return http.StatusConflict, "Session no longer matches its script"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
