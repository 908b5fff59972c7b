package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/novel-engine/pkg/storage"
)

type ScriptHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewScriptHandler(log *slog.Logger, storage storage.Storage) *ScriptHandler {
	return &ScriptHandler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP handles
// GET /v1/scripts        - map of script names to file names
// GET /v1/scripts/{file} - one script document
func (h *ScriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scripts"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, filename)
}

func (h *ScriptHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.storage.ListScripts(r.Context())
	if err != nil {
		h.log.Error("Failed to list scripts", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list scripts")
		return
	}
	writeJSON(w, h.log, http.StatusOK, scripts)
}

func (h *ScriptHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	if !storage.ValidScriptName(filename) {
		writeError(w, h.log, http.StatusBadRequest, "Invalid script file name")
		return
	}

	s, err := h.storage.GetScript(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrScriptNotFound) {
			writeError(w, h.log, http.StatusNotFound, "Script not found")
			return
		}
		h.log.Error("Failed to get script", "error", err, "filename", filename)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve script")
		return
	}
	writeJSON(w, h.log, http.StatusOK, s)
}
