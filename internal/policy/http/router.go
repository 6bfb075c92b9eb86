// Package http exposes the decision engine over JSON HTTP endpoints.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	registry     *registry.Store
	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	DecisionService *service.DecisionService
	TokenService    *service.TokenService
	MetricsHandler  http.Handler // optional
}

func NewRouter(
	keys *jwtx.KeySet,
	reg *registry.Store,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		registry:     reg,
		store:        st,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerDecisions()
	r.registerConsents()
	r.registerWellKnown()
	r.registerSystem()
}

// ServeHTTP applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerDecisions() {
	// Decisions are cheap reads of the registry; tokens also sign.
	r.Mux.Handle("POST /v1/decisions",
		httpx.Chain(&DecisionHandler{DecisionService: r.DecisionService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/tokens",
		httpx.Chain(&DecisionHandler{DecisionService: r.DecisionService, TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/cors",
		httpx.Chain(CORSHandler(r.registry),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerConsents() {
	h := &ConsentHandler{DecisionService: r.DecisionService, TokenService: r.TokenService}

	// Limited per token as well as per IP to stop token guessing.
	r.Mux.Handle("POST /v1/consents/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleResolve),
			httpx.RateLimitByIPAndPathValue(httpx.StrictLimit, "token"),
		),
	)
	r.Mux.Handle("POST /v1/consents/{token}/tokens",
		httpx.Chain(http.HandlerFunc(h.HandleResolveTokens),
			httpx.RateLimitByIPAndPathValue(httpx.StrictLimit, "token"),
		),
	)
	r.Mux.Handle("DELETE /v1/consents",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerWellKnown() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.registry),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}
