package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/service"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/pkg/httpx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"

	_ "github.com/aussiebroadwan/codegate/api/codegate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	adminToken   string

	store store.Store

	AuthorizeService *service.AuthorizeService
	TokenService     *service.TokenService
	ClientService    *service.ClientService
}

func NewRouter(buildVersion, adminToken string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		adminToken:   adminToken,
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerClients()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CodeGate Verification Code Service API
//	@version		0.1.0
//	@description	OAuth2-style single-use verification code issuance and redemption.
//	@description
//	@description				Codes are sealed with AES-256-GCM, bound to a callback, scope and user,
//	@description				and consumed exactly once through an atomic nonce store.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/codegate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	AdminAuth
//	@in							header
//	@name						Authorization
//	@description				Static admin token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}

	// POST /authorize - strict rate limit by IP + client id to slow down
	// scope probing against a single client registration.
	r.Mux.Handle("POST /v1/oauth2/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)

	// POST /token - strict rate limit by IP (redemption attempts)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerClients() {
	clientsHandler := &ClientsHandler{ClientService: r.ClientService}

	admin := r.requireAdmin

	r.Mux.Handle("POST /v1/clients",
		httpx.Chain(http.HandlerFunc(clientsHandler.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit), admin,
		),
	)
	r.Mux.Handle("GET /v1/clients",
		httpx.Chain(http.HandlerFunc(clientsHandler.HandleList),
			httpx.RateLimitByIP(httpx.ModerateLimit), admin,
		),
	)
	r.Mux.Handle("GET /v1/clients/{id}",
		httpx.Chain(http.HandlerFunc(clientsHandler.HandleGet),
			httpx.RateLimitByIP(httpx.ModerateLimit), admin,
		),
	)
	r.Mux.Handle("POST /v1/clients/{id}/rotate",
		httpx.Chain(http.HandlerFunc(clientsHandler.HandleRotateSecret),
			httpx.RateLimitByIP(httpx.ModerateLimit), admin,
		),
	)
	r.Mux.Handle("DELETE /v1/clients/{id}",
		httpx.Chain(http.HandlerFunc(clientsHandler.HandleDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit), admin,
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
		httpx.Chain(ReadyzHandler(r.store, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
