// Package httpapi exposes the JSON API: auth, theory units, practice
// games, progress, the leaderboard and the admin panel.
package httpapi

import (
	"context"
	"net/http"

	"github.com/zoa-eus/osoak/internal/auth"
	"github.com/zoa-eus/osoak/internal/curriculum"
	"github.com/zoa-eus/osoak/internal/game"
	"github.com/zoa-eus/osoak/internal/platform/cache"
	"github.com/zoa-eus/osoak/internal/progress"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps collects everything the API serves from.
type Deps struct {
	Auth       *auth.Service
	Ledger     *progress.Service
	Curriculum *curriculum.Loader
	Games      *game.Manager
	Cache      *cache.Cache // optional; nil disables leaderboard caching
	Hub        *EventHub    // optional; nil disables the live event feed
	DB         HealthChecker
}

// Server is the HTTP API.
type Server struct {
	auth       *auth.Service
	ledger     *progress.Service
	curriculum *curriculum.Loader
	games      *game.Manager
	cache      *cache.Cache
	hub        *EventHub
	db         HealthChecker
}

// New builds the API handler.
func New(deps Deps) http.Handler {
	s := &Server{
		auth:       deps.Auth,
		ledger:     deps.Ledger,
		curriculum: deps.Curriculum,
		games:      deps.Games,
		cache:      deps.Cache,
		hub:        deps.Hub,
		db:         deps.DB,
	}
	return logRequests(s.routes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/guest", s.handleGuest)
	mux.HandleFunc("POST /api/auth/logout", s.requireSession(s.handleLogout))

	mux.HandleFunc("GET /api/me", s.requireSession(s.handleMe))
	mux.HandleFunc("PATCH /api/me", s.requireSession(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	mux.HandleFunc("GET /api/theory", s.requireSession(s.handleTheoryList))
	mux.HandleFunc("GET /api/theory/{id}", s.requireSession(s.handleTheoryUnit))
	mux.HandleFunc("POST /api/theory/{id}/quiz", s.requireSession(s.handleTheoryQuiz))

	mux.HandleFunc("POST /api/games", s.requireSession(s.handleGameStart))
	mux.HandleFunc("GET /api/games/{id}", s.requireSession(s.handleGameGet))
	mux.HandleFunc("POST /api/games/{id}/answer", s.requireSession(s.handleGameAnswer))

	mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleAdminUsers))
	mux.HandleFunc("DELETE /api/admin/users/{id}", s.requireAdmin(s.handleAdminDeleteUser))
	mux.HandleFunc("GET /api/admin/users/export", s.requireAdmin(s.handleAdminExport))

	if s.hub != nil {
		mux.HandleFunc("GET /api/events", s.requireAdmin(s.handleEvents))
	}

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
