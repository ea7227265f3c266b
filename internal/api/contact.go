package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmahrt/portfolio/internal/contact"
)

// ContactHandler relays the contact form.
type ContactHandler struct {
	svc *contact.Service
}

// NewContactHandler creates a contact handler.
func NewContactHandler(svc *contact.Service) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// RegisterRoutes registers the contact route.
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/contact", h.Submit)
}

// Submit validates the form and emails it.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form contact.Form
	if tooLarge, err := decodeJSON(w, r, &form); err != nil {
		if tooLarge {
			Message(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		Invalid(w, "Invalid form data", nil)
		return
	}

	err := h.svc.Submit(r.Context(), form)
	var verr *contact.ValidationError
	switch {
	case err == nil:
		Message(w, http.StatusOK, "Email sent successfully")
	case errors.As(err, &verr):
		Invalid(w, "Invalid form data", verr.Fields)
	case errors.Is(err, contact.ErrNotConfigured):
		Message(w, http.StatusServiceUnavailable, "Contact form is not available")
	default:
		slog.Error("Failed to send contact email", "error", err)
		Message(w, http.StatusInternalServerError, "Failed to send email")
	}
}
