package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/store"
)

// ProjectHandler serves the project list and its admin CRUD.
type ProjectHandler struct {
	repo store.ProjectStore
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(repo store.ProjectStore) *ProjectHandler {
	return &ProjectHandler{repo: repo}
}

// RegisterRoutes registers the public project routes.
func (h *ProjectHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/projects", h.List)
}

// RegisterAdminRoutes registers project CRUD on an authenticated router.
func (h *ProjectHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/projects", h.List)
	r.Post("/projects", h.Create)
	r.Get("/projects/{id}", h.Get)
	r.Patch("/projects/{id}", h.Update)
	r.Delete("/projects/{id}", h.Delete)
}

// List returns every project.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.ListProjects(r.Context())
	if err != nil {
		slog.Error("Failed to list projects", "error", err)
		Message(w, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	JSON(w, http.StatusOK, projects)
}

// Get returns one project.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := h.repo.GetProject(r.Context(), id)
	if err != nil {
		h.storeError(w, "get", err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// Create adds a project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if _, err := decodeJSON(w, r, &p); err != nil {
		Invalid(w, "Invalid project data", nil)
		return
	}
	p.ID = 0
	if details := p.Validate(); len(details) > 0 {
		Invalid(w, "Invalid project data", details)
		return
	}
	if err := h.repo.CreateProject(r.Context(), &p); err != nil {
		h.storeError(w, "create", err)
		return
	}
	slog.Info("Project created", "project_id", p.ID)
	JSON(w, http.StatusCreated, p)
}

// Update applies a partial update.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var patch domain.ProjectPatch
	if _, err := decodeJSON(w, r, &patch); err != nil {
		Invalid(w, "Invalid project data", nil)
		return
	}

	current, err := h.repo.GetProject(r.Context(), id)
	if err != nil {
		h.storeError(w, "get", err)
		return
	}
	patch.Apply(current)
	if details := current.Validate(); len(details) > 0 {
		Invalid(w, "Invalid project data", details)
		return
	}

	updated, err := h.repo.UpdateProject(r.Context(), id, patch)
	if err != nil {
		h.storeError(w, "update", err)
		return
	}
	JSON(w, http.StatusOK, updated)
}

// Delete removes a project.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	if err := h.repo.DeleteProject(r.Context(), id); err != nil {
		h.storeError(w, "delete", err)
		return
	}
	slog.Info("Project deleted", "project_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		Message(w, http.StatusNotFound, "Project not found")
		return
	}
	slog.Error("Project store failed", "op", op, "error", err)
	Message(w, http.StatusInternalServerError, "Failed to "+op+" project")
}

func projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Message(w, http.StatusBadRequest, "Invalid project id")
		return 0, false
	}
	return id, true
}
