// Package router sets up all HTTP routes and middleware chains for the
// Wisdomia API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wisdomia/internal/handlers"
	"wisdomia/internal/middleware"
	"wisdomia/internal/session"
)

// Handlers bundles the handler groups mounted by New.
type Handlers struct {
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Posts      *handlers.Posts
	Public     *handlers.Public
	CacheLog   *handlers.CacheLog
	Settings   *handlers.Settings
}

// Options configures the middleware stack.
type Options struct {
	// Sessions loads the admin session for every request.
	Sessions *session.Store
	// LoginLimiter throttles password and TOTP attempts. May be nil.
	LoginLimiter *middleware.RateLimiter
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(opts.Sessions))

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Public reader API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/menu/categories", h.Public.Menu)
		r.Get("/topics", h.Public.Topics)
		r.Get("/topics/{slug}", h.Public.Topic)
		r.Get("/home", h.Public.Home)
	})

	// Admin routes: CSRF protection everywhere, sessions below.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.With(throttle(opts.LoginLimiter)).Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		// 2FA requires a session but not a completed second factor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", h.Auth.TwoFASetup)
			r.With(throttle(opts.LoginLimiter)).Post("/2fa/verify", h.Auth.TwoFAVerify)
		})

		// Authenticated and 2FA-verified API.
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			// The admin role itself is checked by the category service so
			// that refusals keep the uniform result shape.
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Post("/", h.Categories.Add)
				r.Put("/", h.Categories.Update)
				r.Delete("/", h.Categories.Delete)
				r.Post("/reconcile", h.Categories.Reconcile)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.Posts.List)
				r.Post("/", h.Posts.Create)
				r.Get("/{slug}", h.Posts.Get)
				r.Put("/{slug}", h.Posts.Update)
				r.Delete("/{slug}", h.Posts.Delete)
				r.Post("/{slug}/status", h.Posts.SetStatus)
			})

			r.Get("/settings", h.Settings.Get)
			r.Put("/settings", h.Settings.Update)
			r.Get("/cache-log", h.CacheLog.List)
		})
	})

	return r
}

// throttle wraps routes with limiter when one is configured.
func throttle(limiter *middleware.RateLimiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return limiter.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"success":false,"error":"Not Found"}`))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"success":false,"error":"Method Not Allowed"}`))
}
