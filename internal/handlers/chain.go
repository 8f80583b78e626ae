package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

const (
	minChainScenes = 5
	maxChainScenes = 8
)

// ChainHandler handles macro chain operations.
// Routes:
// POST /v1/chain/generate - Generate a fresh macro chain from a concept
// POST /v1/chain/update   - Apply manual scene edits
// POST /v1/chain/lock     - Lock the chain
// POST /v1/chain/unlock   - Unlock the chain, invalidating scene details
type ChainHandler struct {
	storage   storage.Storage
	generator *services.Generator
	logger    *slog.Logger
}

func NewChainHandler(storage storage.Storage, generator *services.Generator, logger *slog.Logger) *ChainHandler {
	return &ChainHandler{storage: storage, generator: generator, logger: logger}
}

type generateChainRequest struct {
	SessionID string         `json:"session_id"`
	Concept   string         `json:"concept"`
	Meta      map[string]any `json:"meta,omitempty"`
	NumScenes int            `json:"num_scenes,omitempty"`
}

type updateChainRequest struct {
	SessionID string              `json:"session_id"`
	ChainID   string              `json:"chain_id"`
	Edits     []session.ChainEdit `json:"edits"`
}

type chainLockRequest struct {
	SessionID string `json:"session_id"`
	ChainID   string `json:"chain_id"`
}

func (h *ChainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/chain"), "/") {
	case "generate":
		h.handleGenerate(w, r)
	case "update":
		h.handleUpdate(w, r)
	case "lock":
		h.handleLock(w, r, true)
	case "unlock":
		h.handleLock(w, r, false)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown chain operation")
	}
}

func (h *ChainHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateChainRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}
	if strings.TrimSpace(req.Concept) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "concept is required")
		return
	}

	numScenes := req.NumScenes
	if numScenes == 0 {
		numScenes = minChainScenes
	}
	if numScenes < minChainScenes || numScenes > maxChainScenes {
		writeError(w, h.logger, http.StatusBadRequest, "num_scenes must be between 5 and 8")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	// The concept drives generation and replaces any earlier concept.
	if err := sc.AppendBlock(session.BlockStoryConcept, map[string]any{
		"concept":   req.Concept,
		"meta":      req.Meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to store concept")
		return
	}

	chain, err := h.generator.GenerateMacroChain(r.Context(), sc, numScenes)
	if err != nil {
		h.logger.Error("Chain generation failed", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Chain generation failed")
		return
	}

	sc.PutChain(chain)
	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, chain)
}

func (h *ChainHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateChainRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.ChainID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and chain_id are required")
		return
	}
	if len(req.Edits) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "edits are required")
		return
	}

	sc, _, err := loadSessionWithChain(r.Context(), h.storage, h.logger, req.SessionID, req.ChainID)
	if err != nil {
		h.respondChainError(w, err)
		return
	}

	chain, err := sc.ApplyChainEdits(req.ChainID, req.Edits)
	if err != nil {
		h.respondChainError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, chain)
}

func (h *ChainHandler) handleLock(w http.ResponseWriter, r *http.Request, locked bool) {
	var req chainLockRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.ChainID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and chain_id are required")
		return
	}

	sc, _, err := loadSessionWithChain(r.Context(), h.storage, h.logger, req.SessionID, req.ChainID)
	if err != nil {
		h.respondChainError(w, err)
		return
	}

	chain, invalidated, err := sc.LockChain(req.ChainID, locked)
	if err != nil {
		h.respondChainError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"chain":              chain,
		"invalidated_scenes": invalidated,
		"locked":             locked,
	})
}

func (h *ChainHandler) respondChainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrChainNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Chain not found")
	case errors.Is(err, session.ErrAlreadyLocked), errors.Is(err, session.ErrNotLocked):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Chain operation failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Chain operation failed")
	}
}
