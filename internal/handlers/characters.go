package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

// CharactersHandler handles the generated character roster.
// Routes:
// POST /v1/characters/generate   - Generate the roster (background must be locked)
// GET /v1/characters             - Read the roster (?session_id=)
// POST /v1/characters/lock       - Lock or unlock the roster
// POST /v1/characters/upsert     - Replace one character
// POST /v1/characters/delete     - Remove one character
// POST /v1/characters/regenerate - Regenerate a single character field
type CharactersHandler struct {
	storage   storage.Storage
	generator *services.Generator
	logger    *slog.Logger
}

func NewCharactersHandler(storage storage.Storage, generator *services.Generator, logger *slog.Logger) *CharactersHandler {
	return &CharactersHandler{storage: storage, generator: generator, logger: logger}
}

type generateCharactersRequest struct {
	SessionID       string `json:"session_id"`
	NumberOfPlayers int    `json:"number_of_players,omitempty"`
}

type charactersLockRequest struct {
	SessionID string `json:"session_id"`
	Locked    bool   `json:"locked"`
}

type upsertCharacterRequest struct {
	SessionID string            `json:"session_id"`
	Character session.Character `json:"character"`
}

type deleteCharacterRequest struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
}

type regenerateFieldRequest struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id"`
	Field       string `json:"field"`
}

// regenerableFields are the character fields the LLM may rewrite.
var regenerableFields = map[string]bool{
	"name": true, "personality": true, "motivation": true,
	"connection_to_story": true, "gm_secret": true, "potential_conflict": true,
	"voice_tone": true, "inventory_hint": true, "background_history": true,
	"key_relationships": true, "flaw_or_weakness": true,
	"physical_description": true, "equipment_preferences": true,
}

func (h *CharactersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/characters"), "/")

	switch {
	case r.Method == http.MethodGet && op == "":
		h.handleList(w, r)
	case r.Method == http.MethodPost && op == "generate":
		h.handleGenerate(w, r)
	case r.Method == http.MethodPost && op == "lock":
		h.handleLock(w, r)
	case r.Method == http.MethodPost && op == "upsert":
		h.handleUpsert(w, r)
	case r.Method == http.MethodPost && op == "delete":
		h.handleDelete(w, r)
	case r.Method == http.MethodPost && op == "regenerate":
		h.handleRegenerate(w, r)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *CharactersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, sessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	cb, err := sc.CharactersBlock()
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to decode characters")
		return
	}
	if cb == nil {
		writeData(w, h.logger, http.StatusOK, nil)
		return
	}
	writeData(w, h.logger, http.StatusOK, cb)
}

func (h *CharactersHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateCharactersRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	// Characters are woven into the background; generating against an
	// unlocked background would bind them to text that can still change.
	if !sc.IsBlockLocked(session.BlockBackground) {
		writeError(w, h.logger, http.StatusConflict, "Background must be locked before generating characters")
		return
	}
	if sc.IsBlockLocked(session.BlockCharacters) {
		writeError(w, h.logger, http.StatusConflict, "Characters are locked")
		return
	}

	characters, err := h.generator.GenerateCharacters(r.Context(), sc, req.NumberOfPlayers)
	if err != nil {
		h.logger.Error("Character generation failed", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Character generation failed")
		return
	}

	cb := sc.SetCharacters(characters)
	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, cb)
}

func (h *CharactersHandler) handleLock(w http.ResponseWriter, r *http.Request) {
	var req charactersLockRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	if err := sc.SetBlockLock(session.BlockCharacters, req.Locked); err != nil {
		if errors.Is(err, session.ErrAlreadyLocked) || errors.Is(err, session.ErrNotLocked) {
			writeError(w, h.logger, http.StatusConflict, err.Error())
		} else {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to update lock")
		}
		return
	}

	// The locked flag lives in the block too so clients reading the
	// roster alone see it.
	if cb, err := sc.CharactersBlock(); err == nil && cb != nil {
		cb.Locked = req.Locked
		sc.SetBlock(session.BlockCharacters, cb)
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

func (h *CharactersHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertCharacterRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.Character.ID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "character.id is required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	cb, err := sc.UpsertCharacter(req.Character)
	if err != nil {
		h.respondCharacterError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, cb)
}

func (h *CharactersHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteCharacterRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.CharacterID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and character_id are required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	deleted, err := sc.DeleteCharacter(req.CharacterID)
	if err != nil {
		h.respondCharacterError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, deleted)
}

func (h *CharactersHandler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateFieldRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.CharacterID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and character_id are required")
		return
	}
	if !regenerableFields[req.Field] {
		writeError(w, h.logger, http.StatusBadRequest, "field cannot be regenerated: "+req.Field)
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	cb, err := sc.CharactersBlock()
	if err != nil || cb == nil || len(cb.List) == 0 {
		writeError(w, h.logger, http.StatusConflict, "No characters to regenerate")
		return
	}
	if cb.Locked || sc.IsBlockLocked(session.BlockCharacters) {
		writeError(w, h.logger, http.StatusConflict, "Characters are locked")
		return
	}

	var target *session.Character
	for i := range cb.List {
		if cb.List[i].ID == req.CharacterID {
			target = &cb.List[i]
			break
		}
	}
	if target == nil {
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
		return
	}

	value, err := h.generator.RegenerateCharacterField(r.Context(), sc, *target, req.Field)
	if err != nil {
		h.logger.Error("Field regeneration failed", "session_id", req.SessionID, "field", req.Field, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Field regeneration failed")
		return
	}

	updated, err := applyCharacterField(*target, req.Field, value)
	if err != nil {
		writeError(w, h.logger, http.StatusBadGateway, err.Error())
		return
	}

	cb, err = sc.UpsertCharacter(updated)
	if err != nil {
		h.respondCharacterError(w, err)
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{
		"character": updated,
		"field":     req.Field,
		"value":     value,
		"version":   cb.Version,
	})
}

// applyCharacterField sets one snake_case field on a character through a
// JSON round trip, so the regenerated value lands with the same typing
// rules as a full decode.
func applyCharacterField(ch session.Character, field string, value any) (session.Character, error) {
	data, err := json.Marshal(ch)
	if err != nil {
		return ch, fmt.Errorf("failed to marshal character: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return ch, fmt.Errorf("failed to decode character: %w", err)
	}
	m[field] = value

	data, err = json.Marshal(m)
	if err != nil {
		return ch, fmt.Errorf("failed to marshal character: %w", err)
	}
	var updated session.Character
	if err := json.Unmarshal(data, &updated); err != nil {
		return ch, fmt.Errorf("regenerated value does not fit field %s", field)
	}
	return updated, nil
}

func (h *CharactersHandler) respondCharacterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrCharacterNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Character not found")
	case errors.Is(err, session.ErrNoCharacters), errors.Is(err, session.ErrAlreadyLocked):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Character operation failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Character operation failed")
	}
}
