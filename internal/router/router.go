// Package router sets up all HTTP routes and middleware chains of the
// gunmerch service: an open health check and the token-protected
// operator API under /api.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"gunmerch/internal/handlers"
	"gunmerch/internal/middleware"
)

// Options configures the middleware chain.
type Options struct {
	TokenHash string // bcrypt hash of the operator bearer token
	Open      bool   // allow unauthenticated access when TokenHash is empty
	Limiter   *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, api *handlers.API) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check, no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Use(middleware.RequireToken(opts.TokenHash, opts.Open))

		api.Routes(r)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
