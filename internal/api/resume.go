package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/store"
)

// resumeResponse adds the rendered summary to the stored resume.
type resumeResponse struct {
	*domain.Resume
	SummaryHTML string `json:"summaryHtml"`
}

// ResumeHandler serves the resume page content.
type ResumeHandler struct {
	repo store.ResumeStore
	md   goldmark.Markdown
}

// NewResumeHandler creates a resume handler. The summary is rendered as
// CommonMark with raw HTML stripped.
func NewResumeHandler(repo store.ResumeStore) *ResumeHandler {
	return &ResumeHandler{repo: repo, md: goldmark.New()}
}

// RegisterRoutes registers the public resume route.
func (h *ResumeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/resume", h.Get)
}

// RegisterAdminRoutes registers the resume update route.
func (h *ResumeHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/resume", h.Put)
}

// Get returns the resume.
func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	resume, err := h.repo.GetResume(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		Message(w, http.StatusNotFound, "Resume not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load resume", "error", err)
		Message(w, http.StatusInternalServerError, "Failed to fetch resume")
		return
	}
	h.write(w, resume)
}

// Put replaces the resume.
func (h *ResumeHandler) Put(w http.ResponseWriter, r *http.Request) {
	var resume domain.Resume
	if _, err := decodeJSON(w, r, &resume); err != nil {
		Invalid(w, "Invalid resume data", nil)
		return
	}
	if resume.Name == "" {
		Invalid(w, "Invalid resume data", []domain.FieldError{{Field: "name", Message: "Required"}})
		return
	}
	if err := h.repo.SaveResume(r.Context(), &resume); err != nil {
		slog.Error("Failed to save resume", "error", err)
		Message(w, http.StatusInternalServerError, "Failed to save resume")
		return
	}
	h.write(w, &resume)
}

func (h *ResumeHandler) write(w http.ResponseWriter, resume *domain.Resume) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(resume.Summary), &buf); err != nil {
		slog.Warn("Failed to render resume summary", "error", err)
	}
	JSON(w, http.StatusOK, resumeResponse{Resume: resume, SummaryHTML: buf.String()})
}
