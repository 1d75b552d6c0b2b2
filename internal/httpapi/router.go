package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"appserver/internal/api"
	"appserver/internal/auth"
	"appserver/internal/events"
	"appserver/internal/metrics"
	"appserver/pkg/config"
	"appserver/pkg/shopify"
)

// OpsPrefix keeps health and metrics out of the front-end's path space. Nothing under it is
// authenticated, so it should only be reachable from inside the deployment.
const OpsPrefix = "/_ops"

type Dependencies struct {
	Cfg     config.Config
	Logger  zerolog.Logger
	Events  events.Recorder
	Metrics *metrics.Metrics

	// Render receives every request the install routes do not match.
	Render http.Handler

	// Exchanger is overridable in tests; the zero value talks to Shopify.
	Exchanger shopify.OAuthExchanger
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Render == nil {
		deps.Render = http.NotFoundHandler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Route(OpsPrefix, func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	})

	authHandlers := auth.Handlers{
		Cfg:       deps.Cfg,
		Exchanger: deps.Exchanger,
		Events:    deps.Events,
		Metrics:   deps.Metrics,
	}
	r.Get("/install", authHandlers.Install)
	r.Get(config.CallbackPath, authHandlers.Callback)

	// Everything else belongs to the front-end.
	r.Handle("/*", deps.Render)

	return r
}
