package server

import (
	"log/slog"
	"net/http"

	"revenue-dashboard/internal/handlers"
	"revenue-dashboard/internal/middleware"
	"revenue-dashboard/internal/session"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

func NewServer(pages *handlers.PageHandlers, api *handlers.APIHandlers, sse *handlers.SSEHandlers, guard *session.Guard, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.setupRoutes(pages, api, sse, guard)
	return s
}

func (s *Server) setupRoutes(pages *handlers.PageHandlers, api *handlers.APIHandlers, sse *handlers.SSEHandlers, guard *session.Guard) {
	requireAuth := middleware.RequireSession(guard, s.logger)

	// Page shell and form transitions
	s.mux.HandleFunc("GET /", pages.HandleDashboard)
	s.mux.HandleFunc("POST /login", pages.HandleLoginForm)
	s.mux.HandleFunc("POST /logout", pages.HandleLogoutForm)

	// Unauthenticated surface
	s.mux.HandleFunc("GET /health", api.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", api.HandleStats)
	s.mux.HandleFunc("POST /api/login", api.HandleLogin)
	s.mux.HandleFunc("POST /api/logout", api.HandleLogout)
	s.mux.HandleFunc("GET /api/session", api.HandleSession)

	// Guarded data surface: the session check runs before any handler logic.
	s.mux.Handle("GET /api/branches", requireAuth(http.HandlerFunc(api.HandleBranches)))
	s.mux.Handle("GET /api/revenue", requireAuth(http.HandlerFunc(api.HandleRevenue)))
	s.mux.Handle("GET /sse/revenue", requireAuth(http.HandlerFunc(sse.HandleRevenue)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
