// Package httpapi assembles the HTTP surface: middleware chain, public
// endpoints, and the authenticated API.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "atelier/internal/auth/handler"
	projecthandler "atelier/internal/project/handler"
	userhandler "atelier/internal/user/handler"
	id "atelier/pkg/domain"
	authmw "atelier/pkg/platform/middleware/auth"
	"atelier/pkg/platform/middleware/metadata"
	"atelier/pkg/platform/middleware/request"
	"atelier/pkg/platform/middleware/role"
)

// Deps carries everything the router needs. RevocationChecker may be nil
// when token revocation is not wired.
type Deps struct {
	Logger            *slog.Logger
	TokenValidator    authmw.JWTValidator
	RevocationChecker authmw.TokenRevocationChecker

	Auth     *authhandler.Handler
	Users    *userhandler.Handler
	Projects *projecthandler.Handler
}

// NewRouter wires all endpoints. Role guards follow the directory policy:
// account management is admin territory, listings extend to managers, and
// everything project-level is decided per project by the access evaluator.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Auth.RegisterPublic(r)

	r.Group(func(authed chi.Router) {
		authed.Use(authmw.RequireAuth(deps.TokenValidator, deps.RevocationChecker, deps.Logger))

		deps.Auth.Register(authed)
		deps.Projects.Register(authed)
		deps.Users.Register(authed)

		authed.Group(func(admin chi.Router) {
			admin.Use(role.Require(deps.Logger, id.RoleAdmin))
			deps.Users.RegisterAdmin(admin)
		})
		authed.Group(func(listing chi.Router) {
			listing.Use(role.Require(deps.Logger, id.RoleAdmin, id.RoleManager))
			deps.Users.RegisterListing(listing)
		})
	})

	return r
}
