package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mngkeeper/internal/platform/health"
	"mngkeeper/internal/platform/middleware"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Logger        *slog.Logger
	Health        *health.Handler
	Auth          *AuthHandler
	Domains       *DomainHandler
	Users         *UserHandler
	Groups        *GroupHandler
	ValidateToken func(tokenString string) (bool, error)
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			deps.Auth.RegisterPublic(r)
			r.Group(func(r chi.Router) {
				r.Use(BearerAuth(deps.ValidateToken))
				deps.Auth.RegisterProtected(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(deps.ValidateToken))

			r.Route("/domains", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(RequireAdmin)
					deps.Domains.Register(r)
				})

				r.Route("/{domainID}/users", deps.Users.Register)
				r.Route("/{domainID}/groups", deps.Groups.Register)
			})
		})
	})

	return r
}
