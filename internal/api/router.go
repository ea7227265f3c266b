package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/jmahrt/portfolio/internal/auth"
)

// Handlers groups every route owner registered by Mount.
type Handlers struct {
	Health   *HealthHandler
	Chat     *ChatHandler
	Contact  *ContactHandler
	Projects *ProjectHandler
	Resume   *ResumeHandler
	Admin    *AdminHandler
	Auth     *auth.Service
}

// Mount registers the public routes on r and the admin routes under
// /api/admin behind the session middleware.
func Mount(r chi.Router, h Handlers) {
	h.Health.RegisterHealth(r)
	h.Chat.RegisterRoutes(r)
	h.Contact.RegisterRoutes(r)
	h.Projects.RegisterRoutes(r)
	h.Resume.RegisterRoutes(r)

	r.Route("/api/admin", func(r chi.Router) {
		h.Admin.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Auth))
			h.Admin.RegisterAdminRoutes(r)
			h.Projects.RegisterAdminRoutes(r)
			h.Resume.RegisterAdminRoutes(r)
		})
	})
}
