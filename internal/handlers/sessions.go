package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/internal/services/events"
	"github.com/jwebster45206/novel-engine/internal/services/sessions"
)

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	Script string `json:"script"` // script file name
}

// JumpRequest is the body of POST /v1/sessions/{id}/jump.
type JumpRequest struct {
	Index *int `json:"index"`
}

type SessionHandler struct {
	sessions *sessions.Service
	play     http.Handler
	logger   *slog.Logger
}

// NewSessionHandler creates the session handler. play serves the websocket
// route and may be nil.
func NewSessionHandler(svc *sessions.Service, play http.Handler, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: svc,
		play:     play,
		logger:   logger,
	}
}

// ServeHTTP routes
// POST   /v1/sessions                - start a session, reveals the first step
// GET    /v1/sessions/{id}           - session summary and current view
// DELETE /v1/sessions/{id}           - end a session
// POST   /v1/sessions/{id}/advance   - next chunk or step
// POST   /v1/sessions/{id}/rewind    - previous step
// POST   /v1/sessions/{id}/jump      - jump to a chapter {"index": n}
// GET    /v1/sessions/{id}/chapters  - chapter menu
// GET    /v1/sessions/{id}/history   - reading log
// GET    /v1/sessions/{id}/play      - websocket play channel
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case action == "advance" && r.Method == http.MethodPost:
		h.handleOp(w, r, id, events.OpAdvance, 0)
	case action == "rewind" && r.Method == http.MethodPost:
		h.handleOp(w, r, id, events.OpRewind, 0)
	case action == "jump" && r.Method == http.MethodPost:
		h.handleJump(w, r, id)
	case action == "chapters" && r.Method == http.MethodGet:
		h.handleChapters(w, r, id)
	case action == "history" && r.Method == http.MethodGet:
		h.handleHistory(w, r, id)
	case action == "play" && r.Method == http.MethodGet && h.play != nil:
		h.play.ServeHTTP(w, r)
	case action == "" || action == "advance" || action == "rewind" || action == "jump" ||
		action == "chapters" || action == "history" || action == "play":
		h.logger.Warn("Method not allowed for session endpoint", "method", r.Method, "action", action)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session route")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Script) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "script is required")
		return
	}

	sum, err := h.sessions.Create(r.Context(), req.Script)
	if err != nil {
		h.fail(w, err, "create")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, sum)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sum, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err, "read")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sum)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleJump(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req JumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Index == nil {
		writeError(w, h.logger, http.StatusBadRequest, "index is required")
		return
	}
	h.handleOp(w, r, id, events.OpJump, *req.Index)
}

// handleOp answers 200 for no-ops too; the body carries transitioned=false and
// the reason.
func (h *SessionHandler) handleOp(w http.ResponseWriter, r *http.Request, id uuid.UUID, op events.Op, index int) {
	out, err := h.sessions.Apply(r.Context(), id, op, index)
	if err != nil {
		h.fail(w, err, string(op))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *SessionHandler) handleChapters(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	chapters, err := h.sessions.Chapters(r.Context(), id)
	if err != nil {
		h.fail(w, err, "chapters")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, chapters)
}

func (h *SessionHandler) handleHistory(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	history, err := h.sessions.History(r.Context(), id)
	if err != nil {
		h.fail(w, err, "history")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, history)
}

func (h *SessionHandler) fail(w http.ResponseWriter, err error, op string) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Session operation failed", "op", op, "error", err)
	} else {
		h.logger.Debug("Session operation rejected", "op", op, "error", err)
	}
	writeError(w, h.logger, status, msg)
}
