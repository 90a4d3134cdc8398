// Package adapthttp implements the JSON HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"microblog/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	sessions *app.SessionService
	content  *app.ContentService
	oidc     *OIDCConfig // nil when SSO is disabled
	log      *slog.Logger
}

// New creates a Server wired to the given application services. oidc may be
// nil to disable SSO login.
func New(auth *app.AuthService, sessions *app.SessionService, content *app.ContentService, oidc *OIDCConfig, log *slog.Logger) *Server {
	return &Server{auth: auth, sessions: sessions, content: content, oidc: oidc, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.Get("/auth/sso/login", s.handleSSOLogin)
	r.Get("/auth/sso/callback", s.handleSSOCallback)

	r.Get("/posts", s.handleListPosts)
	r.Get("/posts/{id}/replies", s.handleListReplies)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/posts", s.handleCreatePost)
		r.Delete("/posts/{id}", s.handleDeletePost)
		r.Post("/posts/{id}/like", s.handleToggleLike)
		r.Post("/posts/{id}/replies", s.handleCreateReply)
	})

	return r
}
