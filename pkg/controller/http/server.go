package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/usecase"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
)

type Server struct {
	router             *chi.Mux
	uc                 *usecase.UseCases
	version            string
	provider           types.Provider
	slackSigningSecret string
	slackEnabled       bool
}

type Options func(*Server)

// WithVersion sets the build version reported by the health endpoint
func WithVersion(version string) Options {
	return func(s *Server) {
		s.version = version
	}
}

// WithProvider sets the answer provider reported by the stats endpoint
func WithProvider(provider types.Provider) Options {
	return func(s *Server) {
		s.provider = provider
	}
}

// WithSlackWebhook mounts the Slack Events API endpoint behind signature
// verification
func WithSlackWebhook(signingSecret string) Options {
	return func(s *Server) {
		s.slackEnabled = true
		s.slackSigningSecret = signingSecret
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		uc:       uc,
		version:  "dev",
		provider: types.ProviderLocal,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Delete("/memory/{user_id}", s.handleClearMemory)
	})

	// Slack webhook endpoint - no auth, uses signature verification
	if s.slackEnabled {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/event", s.handleSlackEvent)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
