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

// SceneHandler handles scene detail operations.
// Routes:
// POST /v1/scene/generate  - Expand a macro scene into a playable detail
// POST /v1/scene/next      - Generate the next macro scene in a chain
// POST /v1/scene/update    - Apply manual edits to a scene detail
// POST /v1/scene/delete    - Remove a scene detail
// POST /v1/scene/lock      - Lock a scene detail
// POST /v1/scene/unlock    - Unlock, invalidating downstream locked scenes
// POST /v1/scene/propagate - Recompute downstream effective context
type SceneHandler struct {
	storage   storage.Storage
	generator *services.Generator
	logger    *slog.Logger
}

func NewSceneHandler(storage storage.Storage, generator *services.Generator, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{storage: storage, generator: generator, logger: logger}
}

type generateSceneRequest struct {
	SessionID        string             `json:"session_id"`
	ChainID          string             `json:"chain_id"`
	SceneID          string             `json:"scene_id"`
	EffectiveContext session.ContextOut `json:"effective_context,omitempty"`
}

type nextSceneRequest struct {
	SessionID string `json:"session_id"`
	ChainID   string `json:"chain_id"`
}

type updateSceneRequest struct {
	SessionID string            `json:"session_id"`
	SceneID   string            `json:"scene_id"`
	Edits     session.SceneEdit `json:"edits"`
}

type sceneIDRequest struct {
	SessionID string `json:"session_id"`
	SceneID   string `json:"scene_id"`
}

func (h *SceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scene"), "/") {
	case "generate":
		h.handleGenerate(w, r)
	case "next":
		h.handleNext(w, r)
	case "update":
		h.handleUpdate(w, r)
	case "delete":
		h.handleDelete(w, r)
	case "lock":
		h.handleLock(w, r, true)
	case "unlock":
		h.handleLock(w, r, false)
	case "propagate":
		h.handlePropagate(w, r)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown scene operation")
	}
}

func (h *SceneHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateSceneRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.ChainID == "" || req.SceneID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id, chain_id and scene_id are required")
		return
	}

	sc, chain, err := loadSessionWithChain(r.Context(), h.storage, h.logger, req.SessionID, req.ChainID)
	if err != nil {
		h.respondSceneError(w, err)
		return
	}
	if chain.Status != session.StatusLocked {
		writeError(w, h.logger, http.StatusConflict, "Chain must be locked before generating scene details")
		return
	}

	var scene *session.MacroScene
	for i := range chain.Scenes {
		if chain.Scenes[i].ID == req.SceneID {
			scene = &chain.Scenes[i]
			break
		}
	}
	if scene == nil {
		writeError(w, h.logger, http.StatusNotFound, "Scene not found in chain")
		return
	}

	detail, err := h.generator.GenerateSceneDetail(r.Context(), sc, *scene, req.EffectiveContext)
	if err != nil {
		h.logger.Error("Scene detail generation failed", "session_id", req.SessionID, "scene_id", req.SceneID, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Scene detail generation failed")
		return
	}

	sc.PutSceneDetail(detail)
	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, detail)
}

func (h *SceneHandler) handleNext(w http.ResponseWriter, r *http.Request) {
	var req nextSceneRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.ChainID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and chain_id are required")
		return
	}

	sc, chain, err := loadSessionWithChain(r.Context(), h.storage, h.logger, req.SessionID, req.ChainID)
	if err != nil {
		h.respondSceneError(w, err)
		return
	}

	scene, err := h.generator.GenerateNextScene(r.Context(), sc, chain)
	if err != nil {
		h.logger.Error("Next scene generation failed", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Next scene generation failed")
		return
	}

	updated, err := sc.AppendScene(req.ChainID, scene)
	if err != nil {
		h.respondSceneError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"chain": updated,
		"scene": scene,
	})
}

func (h *SceneHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateSceneRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.SceneID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and scene_id are required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	detail, err := sc.ApplySceneEdits(req.SceneID, req.Edits)
	if err != nil {
		h.respondSceneError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, detail)
}

func (h *SceneHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req sceneIDRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.SceneID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and scene_id are required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	if err := sc.DeleteSceneDetail(req.SceneID); err != nil {
		h.respondSceneError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]string{"deleted": req.SceneID})
}

func (h *SceneHandler) handleLock(w http.ResponseWriter, r *http.Request, locked bool) {
	var req sceneIDRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.SceneID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and scene_id are required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	detail, invalidated, err := sc.LockScene(req.SceneID, locked)
	if err != nil {
		h.respondSceneError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"scene":              detail,
		"invalidated_scenes": invalidated,
		"locked":             locked,
	})
}

func (h *SceneHandler) handlePropagate(w http.ResponseWriter, r *http.Request) {
	var req sceneIDRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.SceneID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and scene_id are required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	affected, effective, err := sc.Propagate(req.SceneID)
	if err != nil {
		h.respondSceneError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"affected_scenes":   affected,
		"effective_context": effective,
	})
}

func (h *SceneHandler) respondSceneError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSceneNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Scene not found")
	case errors.Is(err, session.ErrChainNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Chain not found")
	case errors.Is(err, session.ErrAlreadyLocked), errors.Is(err, session.ErrNotLocked):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Scene operation failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Scene operation failed")
	}
}
