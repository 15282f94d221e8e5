package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sheikh-saqib/double-entry-balancer/internal/commons"
	httpmodels "github.com/sheikh-saqib/double-entry-balancer/internal/http/models"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// SessionCounter reports how many editing sessions are open.
type SessionCounter interface {
	Sessions() int
}

// New builds the HTTP handler. /health is public; every registrar is mounted
// behind authMiddleware.
func New(sessions SessionCounter, authMiddleware func(http.Handler) http.Handler, registrars ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		resp := commons.SuccessResponse("ok", httpmodels.HealthResponse{Status: "ok", Sessions: sessions.Sessions()})
		_ = json.NewEncoder(w).Encode(resp)
	})

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		for _, reg := range registrars {
			if reg != nil {
				reg.RegisterRoutes(r)
			}
		}
	})

	return r
}
