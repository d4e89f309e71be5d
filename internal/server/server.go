// Package server sets up the HTTP router, middleware, and request handlers.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/howard-nolan/chatrelay/internal/chat"
	"github.com/howard-nolan/chatrelay/internal/config"
	"github.com/howard-nolan/chatrelay/internal/metrics"
)

// Replier resolves a validated chat message into a reply. *chat.Service is
// the production implementation.
type Replier interface {
	Reply(ctx context.Context, message string) (chat.Reply, error)
}

// Server holds the HTTP router and all dependencies that handlers need.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	replier  Replier
	logger   zerolog.Logger
	gatherer prometheus.Gatherer
	metrics  *metrics.Metrics
}

// New creates a Server, wires up routes and middleware, and returns it
// ready to use as an http.Handler. A nil gatherer leaves /metrics unmounted.
func New(cfg *config.Config, replier Replier, logger zerolog.Logger, gatherer prometheus.Gatherer, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		replier:  replier,
		logger:   logger,
		gatherer: gatherer,
		metrics:  m,
	}
	s.routes()
	return s
}

// routes builds the chi router with all middleware and route definitions,
// gathered in one place so the routing table is easy to scan.
func (s *Server) routes() {
	r := chi.NewRouter()

	// --- Global middleware ---
	// Order matters: the request id must exist before the logger picks it
	// up, and CORS sits outside Recoverer so even a 500 carries the
	// Access-Control headers.
	r.Use(requestID)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(logRequestID)
	r.Use(accessLog())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Type", requestIDHeader},
		AllowCredentials: false,
		// Preflights fall through to the OPTIONS routes, which answer 204.
		OptionsPassthrough: true,
	}))
	r.Use(middleware.Recoverer)
	// Accept "/api/chat/" as well as "/api/chat".
	r.Use(middleware.StripSlashes)

	// --- Routes ---
	r.Get("/", s.handleHealth)
	r.Options("/", s.handlePreflight)

	r.Route("/api", func(r chi.Router) {
		// /api/message is an alias kept for older clients.
		for _, path := range []string{"/chat", "/message"} {
			r.Post(path, s.handleChat)
			r.Options(path, s.handlePreflight)
		}
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
}

// ServeHTTP makes Server satisfy http.Handler by delegating to chi.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
