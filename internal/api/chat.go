package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jmahrt/portfolio/internal/chat"
	"github.com/jmahrt/portfolio/internal/domain"
)

// ChatRequest is the body of POST /api/chat and of each /ws/chat frame.
type ChatRequest struct {
	Messages []domain.Message `json:"messages"`
}

// Validate returns per-message problems.
func (r *ChatRequest) Validate() []domain.FieldError {
	if r.Messages == nil {
		return []domain.FieldError{{Field: "messages", Message: "Required"}}
	}
	var errs []domain.FieldError
	for i, m := range r.Messages {
		if !m.Role.Valid() {
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("Invalid role %q", m.Role),
			})
		}
	}
	if len(errs) == 0 {
		if _, ok := domain.LastUserMessage(r.Messages); !ok {
			errs = append(errs, domain.FieldError{Field: "messages", Message: "Must contain a user message"})
		}
	}
	return errs
}

type chatErrorResponse struct {
	Error   string              `json:"error"`
	Details []domain.FieldError `json:"details,omitempty"`
}

// ChatHandler serves the local inference pipeline over HTTP.
type ChatHandler struct {
	responder chat.Responder
	logger    *slog.Logger
}

// NewChatHandler creates a chat handler. A nil responder answers every request
// with the generic apology.
func NewChatHandler(responder chat.Responder, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{responder: responder, logger: logger}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
	r.Get("/ws/chat", h.HandleSocket)
}

// HandleChat answers a conversation in one response.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if tooLarge, err := decodeJSON(w, r, &req); err != nil {
		if tooLarge {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		JSON(w, http.StatusBadRequest, chatErrorResponse{Error: "Invalid messages format"})
		return
	}
	if details := req.Validate(); len(details) > 0 {
		JSON(w, http.StatusBadRequest, chatErrorResponse{Error: "Invalid messages format", Details: details})
		return
	}

	h.logger.Info("Chat request",
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"messages", len(req.Messages),
	)

	text, err := h.respond(r.Context(), req.Messages, nil)
	if err != nil {
		var ierr *chat.InferenceError
		if errors.As(err, &ierr) {
			JSON(w, http.StatusOK, map[string]string{"response": text})
			return
		}
		h.logger.Error("Chat request failed", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to process chat request")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"response": text})
}

func (h *ChatHandler) respond(ctx context.Context, conv []domain.Message, onPartial chat.PartialFunc) (string, error) {
	if h.responder == nil {
		ierr := &chat.InferenceError{Err: chat.ErrNotConfigured}
		return ierr.Apology(), ierr
	}
	return h.responder.Respond(ctx, conv, onPartial)
}
