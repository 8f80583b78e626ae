package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

// ContextHandler handles session context block operations.
// Routes:
// POST /v1/context/append - Merge a block per its policy
// POST /v1/context/clear  - Reset all blocks
// POST /v1/context/lock   - Lock or unlock a block
// GET /v1/context         - Read the full context (?session_id=)
// GET /v1/context/health  - Context existence and version summary
type ContextHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewContextHandler(storage storage.Storage, logger *slog.Logger) *ContextHandler {
	return &ContextHandler{storage: storage, logger: logger}
}

type appendBlockRequest struct {
	SessionID string `json:"session_id"`
	BlockType string `json:"block_type"`
	Data      any    `json:"data"`
}

type clearContextRequest struct {
	SessionID string `json:"session_id"`
}

type lockBlockRequest struct {
	SessionID string `json:"session_id"`
	BlockType string `json:"block_type"`
	Locked    bool   `json:"locked"`
}

func (h *ContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/context"), "/")

	switch {
	case r.Method == http.MethodPost && op == "append":
		h.handleAppend(w, r)
	case r.Method == http.MethodPost && op == "clear":
		h.handleClear(w, r)
	case r.Method == http.MethodPost && op == "lock":
		h.handleLock(w, r)
	case r.Method == http.MethodGet && op == "health":
		h.handleHealth(w, r)
	case r.Method == http.MethodGet && op == "":
		h.handleRead(w, r)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ContextHandler) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req appendBlockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	bt := session.BlockType(req.BlockType)
	if err := sc.AppendBlock(bt, req.Data); err != nil {
		if errors.Is(err, session.ErrInvalidBlockType) {
			writeError(w, h.logger, http.StatusBadRequest, "Unknown block_type: "+req.BlockType)
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to append block")
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"session_id": sc.SessionID,
		"block_type": bt,
		"version":    sc.Version,
		"meta":       sc.Meta,
	})
}

func (h *ContextHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearContextRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	sc.Clear()
	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"session_id": sc.SessionID,
		"version":    sc.Version,
	})
}

func (h *ContextHandler) handleLock(w http.ResponseWriter, r *http.Request) {
	var req lockBlockRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	bt := session.BlockType(req.BlockType)
	if err := sc.SetBlockLock(bt, req.Locked); err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidBlockType):
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrAlreadyLocked), errors.Is(err, session.ErrNotLocked):
			writeError(w, h.logger, http.StatusConflict, err.Error())
		default:
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to update lock")
		}
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"session_id": sc.SessionID,
		"block_type": bt,
		"locked":     req.Locked,
		"version":    sc.Version,
		"meta":       sc.Meta,
	})
}

func (h *ContextHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := h.storage.LoadSessionContext(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sc == nil || len(sc.Blocks) == 0 {
		writeData(w, h.logger, http.StatusOK, nil)
		return
	}
	writeData(w, h.logger, http.StatusOK, sc)
}

func (h *ContextHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := h.storage.LoadSessionContext(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sc == nil {
		writeData(w, h.logger, http.StatusOK, map[string]any{"exists": false})
		return
	}

	writeData(w, h.logger, http.StatusOK, map[string]any{
		"exists":       true,
		"version":      sc.Version,
		"block_count":  len(sc.Blocks),
		"scene_count":  len(sc.SceneDetails),
		"chain_count":  len(sc.MacroChains),
		"locks":        sc.Locks,
		"meta":         sc.Meta,
		"last_updated": sc.UpdatedAt,
	})
}
