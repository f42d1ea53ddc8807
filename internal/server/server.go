package server

import (
	"log/slog"
	"net/http"

	"covid-dashboard/internal/handlers"
	"covid-dashboard/internal/services"
)

type Server struct {
	mux  *http.ServeMux
	api  *handlers.APIHandlers
	sse  *handlers.SSEHandlers
	page *handlers.PageHandlers
}

// NewServer wires every route. metrics serves /metrics; nil leaves it unrouted.
func NewServer(analytics *services.Analytics, logger *slog.Logger, metrics http.Handler) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		api:  handlers.NewAPIHandlers(analytics, logger),
		sse:  handlers.NewSSEHandlers(analytics, logger),
		page: handlers.NewPageHandlers(analytics, logger),
	}
	s.routes(metrics)
	return s
}

func (s *Server) routes(metrics http.Handler) {
	s.mux.HandleFunc("GET /{$}", s.page.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.api.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.api.HandleStats)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}

	s.mux.HandleFunc("GET /api/locations", s.api.HandleLocations)
	s.mux.HandleFunc("GET /api/dashboard", s.api.HandleDashboard)
	s.mux.HandleFunc("GET /api/comparison", s.api.HandleComparison)

	// Datastar
	s.mux.HandleFunc("GET /sse/dashboard", s.sse.HandleDashboard)
	s.mux.HandleFunc("GET /sse/comparison", s.sse.HandleComparison)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
