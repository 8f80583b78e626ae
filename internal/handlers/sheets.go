package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

// SheetsHandler handles SRD 2014 character sheets.
// Routes:
// POST /v1/sheets/save   - Insert or update a sheet
// POST /v1/sheets/delete - Remove a sheet
// GET /v1/sheets         - List sheets (?session_id=)
type SheetsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSheetsHandler(storage storage.Storage, logger *slog.Logger) *SheetsHandler {
	return &SheetsHandler{storage: storage, logger: logger}
}

type saveSheetRequest struct {
	SessionID string        `json:"session_id"`
	Sheet     session.Sheet `json:"sheet"`
}

type deleteSheetRequest struct {
	SessionID string `json:"session_id"`
	SheetID   string `json:"sheet_id"`
}

func (h *SheetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sheets"), "/")

	switch {
	case r.Method == http.MethodGet && op == "":
		h.handleList(w, r)
	case r.Method == http.MethodPost && op == "save":
		h.handleSave(w, r)
	case r.Method == http.MethodPost && op == "delete":
		h.handleDelete(w, r)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SheetsHandler) handleList(w http.ResponseWriter, r *http.Request) {
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

	sb, err := sc.SheetsBlock()
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to decode sheets")
		return
	}
	writeData(w, h.logger, http.StatusOK, sb)
}

func (h *SheetsHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveSheetRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.Sheet.Name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "sheet.name is required")
		return
	}

	sheet := req.Sheet
	if sheet.ID == "" {
		sheet.ID = uuid.New().String()
		sheet.CreatedAt = time.Now().UTC()
	}
	if sheet.Ruleset == "" {
		sheet.Ruleset = "SRD2014"
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	sb, err := sc.SaveSheet(sheet)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save sheet")
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, sb)
}

func (h *SheetsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteSheetRequest
	if err := decodeBody(r, &req); err != nil || req.SessionID == "" || req.SheetID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "session_id and sheet_id are required")
		return
	}

	sc, err := loadSession(r.Context(), h.storage, req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	deleted, err := sc.DeleteSheet(req.SheetID)
	if err != nil {
		if errors.Is(err, session.ErrCharacterNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Sheet not found")
		} else {
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete sheet")
		}
		return
	}

	if err := saveSession(w, r, h.storage, h.logger, sc); err != nil {
		return
	}
	writeData(w, h.logger, http.StatusOK, deleted)
}
