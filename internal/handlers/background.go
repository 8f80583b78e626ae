package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

// BackgroundHandler handles story background operations.
// Routes:
// POST /v1/background/generate - Generate the background from session context
// POST /v1/background/lock     - Lock or unlock the background block
type BackgroundHandler struct {
	storage   storage.Storage
	generator *services.Generator
	logger    *slog.Logger
}

func NewBackgroundHandler(storage storage.Storage, generator *services.Generator, logger *slog.Logger) *BackgroundHandler {
	return &BackgroundHandler{storage: storage, generator: generator, logger: logger}
}

type generateBackgroundRequest struct {
	SessionID string         `json:"session_id"`
	Answers   map[string]any `json:"answers,omitempty"`
}

type backgroundLockRequest struct {
	SessionID string `json:"session_id"`
	Locked    bool   `json:"locked"`
}

func (h *BackgroundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/background"), "/") {
	case "generate":
		h.handleGenerate(w, r)
	case "lock":
		h.handleLock(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown background operation")
	}
}

func (h *BackgroundHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateBackgroundRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if sc.IsBlockLocked(session.BlockBackground) {
		writeError(w, h.logger, http.StatusConflict, "Background is locked")
		return
	}

	// Intake answers feed the prompt through the blueprint block.
	if len(req.Answers) > 0 {
		if err := sc.AppendBlock(session.BlockBlueprint, req.Answers); err != nil {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to store answers")
			return
		}
	}

	background, err := h.generator.GenerateBackground(r.Context(), sc)
	if err != nil {
		h.logger.Error("Background generation failed", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Background generation failed")
		return
	}

	if err := sc.AppendBlock(session.BlockBackground, background); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to store background")
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"background": background,
		"version":    sc.Version,
		"meta":       sc.Meta,
	})
}

func (h *BackgroundHandler) handleLock(w http.ResponseWriter, r *http.Request) {
	var req backgroundLockRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	if err := sc.SetBlockLock(session.BlockBackground, req.Locked); err != nil {
		if errors.Is(err, session.ErrAlreadyLocked) || errors.Is(err, session.ErrNotLocked) {
			writeError(w, h.logger, http.StatusConflict, err.Error())
		} else {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to update lock")
		}
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"locked":  req.Locked,
		"version": sc.Version,
		"meta":    sc.Meta,
	})
}
