package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/internal/auth/store"
	"github.com/forrrest/auth/pkg/httpx"
	"github.com/forrrest/auth/pkg/jwtx"
	"github.com/forrrest/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerProfiles()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Signup and login are credential-bearing public endpoints; rate limit
	// them hard by IP.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(&SignupHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Refresh authenticates via the refresh token itself, not the authn
	// middleware.
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(jwtx.RoleUser),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// Token introspection for downstream services.
	r.Mux.Handle("POST /v1/auth/validate",
		httpx.Chain(&ValidateHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{AuthService: r.AuthService}

	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(jwtx.RoleUser),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerProfiles() {
	h := &ProfilesHandler{
		AuthService:    r.AuthService,
		ProfileService: r.ProfileService,
	}

	// Every profile route requires a principal-scoped access token; the
	// profile pair never grants account management.
	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(jwtx.RoleUser),
			httpx.RateLimitBySubject(limit),
		)
	}

	r.Mux.Handle("GET /v1/profiles", secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/profiles", secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/profiles/{id}", secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/profiles/{id}", secured(h.HandleDelete, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/profiles/{id}/select", secured(h.HandleSelect, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/profiles/{id}/transfer", secured(h.HandleTransfer, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
