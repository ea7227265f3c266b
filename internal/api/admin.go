package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmahrt/portfolio/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminHandler handles admin login and session routes.
type AdminHandler struct {
	svc    *auth.Service
	secure bool
}

// NewAdminHandler creates an admin handler. secure marks the session cookie
// as HTTPS-only.
func NewAdminHandler(svc *auth.Service, secure bool) *AdminHandler {
	return &AdminHandler{svc: svc, secure: secure}
}

// RegisterRoutes registers the unauthenticated admin routes on the /api/admin router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

// RegisterAdminRoutes registers routes that require a session.
func (h *AdminHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/me", h.Me)
}

// Login checks credentials and sets the session cookie.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if _, err := decodeJSON(w, r, &req); err != nil || req.Username == "" || req.Password == "" {
		Message(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	login, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		Message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		slog.Error("Admin login failed", "error", err)
		Message(w, http.StatusInternalServerError, "Login failed")
		return
	}

	auth.SetSessionCookie(w, login.Token, login.ExpiresAt, h.secure)
	JSON(w, http.StatusOK, auth.AdminInfo{ID: login.Admin.ID, Username: login.Admin.Username})
}

// Logout ends the current session and clears the cookie.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		slog.Error("Admin logout failed", "error", err)
	}
	auth.ClearSessionCookie(w, h.secure)
	Message(w, http.StatusOK, "Logged out")
}

// Me returns the authenticated admin.
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.AdminFromContext(r.Context())
	if !ok {
		Message(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	JSON(w, http.StatusOK, admin)
}
