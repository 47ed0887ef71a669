// Package httptransport wires the HTTP surface. It is a thin layer: route
// mounting, middleware ordering, and the operational endpoints. All registry
// semantics live in the services behind the handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "credentry/internal/admin/handler"
	authorityhandler "credentry/internal/authority/handler"
	registryhandler "credentry/internal/registry/handler"
	"credentry/pkg/domain"
	dErrors "credentry/pkg/domain-errors"
	"credentry/pkg/platform/httputil"
	"credentry/pkg/platform/middleware/auth"
	"credentry/pkg/platform/middleware/requestid"
)

// Deps collects everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Verifier       *auth.Verifier
	Admins         *adminhandler.Handler
	Authorities    *authorityhandler.Handler
	Qualifications *registryhandler.Handler
	Privileges     *registryhandler.Handler
	Panels         *registryhandler.Handler

	// DevMode additionally mounts the token-minting endpoint so the service
	// is exercisable without an external token issuer.
	DevMode bool
}

// NewRouter builds the full route tree. Mutating routes sit behind bearer
// auth; reads are public — anyone can query a record or its validity.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	requireAuth := auth.RequireAuth(deps.Verifier, deps.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admins", func(r chi.Router) {
		r.Use(requireAuth)
		deps.Admins.Routes(r)
	})

	r.Route("/authorities", func(r chi.Router) {
		deps.Authorities.ReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			deps.Authorities.MutatingRoutes(r)
		})
	})

	mountRegistry(r, "/qualifications", deps.Qualifications, requireAuth)
	mountRegistry(r, "/privileges", deps.Privileges, requireAuth)
	mountRegistry(r, "/panel-memberships", deps.Panels, requireAuth)

	if deps.DevMode {
		r.Post("/dev/token", devToken(deps.Verifier))
	}

	return r
}

func mountRegistry(r chi.Router, path string, h *registryhandler.Handler, requireAuth func(http.Handler) http.Handler) {
	r.Route(path, func(r chi.Router) {
		h.ReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			h.MutatingRoutes(r)
		})
	})
}

type devTokenRequest struct {
	ID string `json:"id"`
}

func devToken(verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req devTokenRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		id, err := domain.ParseAccountID(req.ID)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid identity"))
			return
		}
		token, err := verifier.Mint(id, 24*time.Hour)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
