package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/novel-engine/internal/logger"
	"github.com/jwebster45206/novel-engine/internal/services/events"
	"github.com/jwebster45206/novel-engine/internal/services/sessions"
)

const (
	playReadLimit    = 4096
	playWriteTimeout = 10 * time.Second
)

// PlayMessage is one input sent by a websocket client.
type PlayMessage struct {
	Op    events.Op `json:"op"`
	Index int       `json:"index,omitempty"`
}

// PlayHandler serves GET /v1/sessions/{id}/play. Every message is applied in
// arrival order and answered with the same body the POST endpoints return.
type PlayHandler struct {
	sessions *sessions.Service
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewPlayHandler creates the websocket handler. With no allowed origins only
// same-host browser pages may connect; "*" in the list allows any origin.
func NewPlayHandler(svc *sessions.Service, allowedOrigins []string, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{
		sessions: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// originChecker returns nil for an empty list so the upgrader falls back to
// its same-host check.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// not a browser
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (h *PlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "v1" || parts[1] != "sessions" || parts[3] != "play" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/sessions/{id}/play")
		return
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		status, msg := statusFor(err)
		writeError(w, h.logger, status, msg)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("Websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(playReadLimit)

	log := logger.WithSessionID(h.logger, id.String())
	log.Info("Play channel opened", "remote_addr", r.RemoteAddr)

	for {
		var msg PlayMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Play channel read failed", "error", err)
			} else {
				log.Info("Play channel closed")
			}
			return
		}

		var reply any
		out, applyErr := h.sessions.Apply(r.Context(), id, msg.Op, msg.Index)
		if applyErr != nil {
			status, text := statusFor(applyErr)
			if status >= http.StatusInternalServerError {
				log.Error("Play input failed", "op", msg.Op, "error", applyErr)
			}
			reply = ErrorResponse{Error: text}
		} else {
			reply = out
		}

		if err := conn.SetWriteDeadline(time.Now().Add(playWriteTimeout)); err != nil {
			log.Error("Failed to set write deadline", "error", err)
			return
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Error("Play channel write failed", "error", err)
			return
		}
		// the session was deleted under us
		if errors.Is(applyErr, sessions.ErrSessionNotFound) {
			return
		}
	}
}
