// Package api provides the HTTP server: HTML pages, the AJAX tag toggle,
// and the JSON API under /api/v1.
package api

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/logger"
	"github.com/galleryapp/gallery-server/internal/queue"
	"github.com/galleryapp/gallery-server/internal/ratelimit"
	"github.com/galleryapp/gallery-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     store.Store
	queue     queue.Enqueuer
	services  *Services
	router    *chi.Mux
	api       huma.API
	templates map[string]*template.Template

	cookies      cookieConfig
	loginLimiter *ratelimit.KeyedRateLimiter
	maxUpload    int64
	debug        bool
	logger       *slog.Logger
}

// Deps are the infrastructure handles the server reports on or serves from.
type Deps struct {
	Store store.Store
	Queue queue.Enqueuer // nil when no task queue is configured
	Media http.Handler   // serves /media/*; nil when the backend serves its own URLs
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, services *Services, deps Deps, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	maxUpload := cfg.Server.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}
	rps, burst := cfg.Auth.LoginRateLimit, cfg.Auth.LoginBurst
	if rps <= 0 {
		rps = 0.2
	}
	if burst <= 0 {
		burst = 5
	}

	s := &Server{
		store:        deps.Store,
		queue:        deps.Queue,
		services:     services,
		router:       chi.NewRouter(),
		templates:    tmpls,
		cookies:      cookieConfig{secure: cfg.App.Environment == "production"},
		loginLimiter: ratelimit.New(rps, burst),
		maxUpload:    maxUpload,
		debug:        cfg.App.Debug,
		logger:       log,
	}

	s.setupMiddleware(cfg)
	s.setupAPI()
	s.setupRoutes(deps.Media)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, e.g. for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(allowedHosts(cfg.Server))
	s.router.Use(apiCORS(cfg.Server.AllowedHosts))
	s.router.Use(sessionMiddleware(s.services.Auth, s.cookies))
}

// setupAPI mounts huma on the router and registers the JSON API.
func (s *Server) setupAPI() {
	humaConfig := huma.DefaultConfig("Gallery API", "1.0.0")
	humaConfig.OpenAPIPath = "/api/v1/openapi"
	humaConfig.DocsPath = "/api/v1/docs"
	humaConfig.SchemasPath = "/api/v1/schemas"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: SessionCookieName,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(s.debug)

	s.registerHealthRoutes()
	s.registerImageRoutes()
	s.registerTagRoutes()
}

// setupRoutes configures the HTML and AJAX routes.
func (s *Server) setupRoutes(media http.Handler) {
	s.router.Group(func(r chi.Router) {
		r.Use(noStore)

		r.Get("/", s.handleIndex)
		r.Get("/upload/", s.handleUploadForm)
		r.Post("/upload/", s.handleUpload)
		r.With(requireLogin).Post("/delete/{imageID}/", s.handleDelete)
		r.Get("/signup/", s.handleSignupForm)
		r.Post("/signup/", s.handleSignup)
		r.Get("/logout_page/", s.handleLogout)
		r.Post("/toggle-tag/", s.handleToggleTag)

		r.Group(func(r chi.Router) {
			r.Use(loginRateLimit(s.loginLimiter, s))
			r.Get("/login/", s.handleLoginForm)
			r.Post("/login/", s.handleLogin)
		})
	})

	if media != nil {
		s.router.Handle("/media/*", media)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, fmt.Sprintf("Nothing lives at %s.", r.URL.Path))
	})
}

// log returns the request-scoped logger.
func (s *Server) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), s.logger)
}
