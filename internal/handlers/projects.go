package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

// ProjectsHandler handles project CRUD.
// Routes:
// POST /v1/projects          - Create project
// GET /v1/projects           - List projects
// GET /v1/projects/{id}      - Read project
// DELETE /v1/projects/{id}   - Delete project
type ProjectsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewProjectsHandler(storage storage.Storage, logger *slog.Logger) *ProjectsHandler {
	return &ProjectsHandler{storage: storage, logger: logger}
}

type createProjectRequest struct {
	Title string `json:"title"`
}

func (h *ProjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/projects"), "/")

	switch {
	case r.Method == http.MethodPost && id == "":
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && id == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case r.Method == http.MethodDelete && id != "":
		h.handleDelete(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *ProjectsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "title is required")
		return
	}

	now := time.Now().UTC()
	p := &session.Project{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.storage.SaveProject(r.Context(), p); err != nil {
		h.logger.Error("Failed to save project", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save project")
		return
	}
	writeData(w, h.logger, http.StatusCreated, p)
}

func (h *ProjectsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.storage.ListProjects(r.Context())
	if err != nil {
		h.logger.Error("Failed to list projects", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeData(w, h.logger, http.StatusOK, projects)
}

func (h *ProjectsHandler) handleRead(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.storage.GetProject(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load project", "id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Project not found")
		return
	}
	writeData(w, h.logger, http.StatusOK, p)
}

func (h *ProjectsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.storage.DeleteProject(r.Context(), id); err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Project not found")
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]string{"deleted": id})
}
