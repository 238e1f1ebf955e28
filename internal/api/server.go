// Package api provides the HTTP server and handlers for the icon repository.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/iconcommons/iconcommons-server/internal/auth"
	"github.com/iconcommons/iconcommons-server/internal/http/response"
	"github.com/iconcommons/iconcommons-server/internal/ingest"
	"github.com/iconcommons/iconcommons-server/internal/ratelimit"
	"github.com/iconcommons/iconcommons-server/internal/search"
	"github.com/iconcommons/iconcommons-server/internal/service"
	"github.com/iconcommons/iconcommons-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	icons       *service.IconService
	collections *service.CollectionService
	tags        *service.TagService
	index       *search.Index
	ingestor    *ingest.Ingestor
	tokens      *auth.TokenService
	limiter     *ratelimit.KeyedRateLimiter
	validator   *validation.Validator
	router      *chi.Mux
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(icons *service.IconService, collections *service.CollectionService, tags *service.TagService, index *search.Index, ingestor *ingest.Ingestor, tokens *auth.TokenService, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		icons:       icons,
		collections: collections,
		tags:        tags,
		index:       index,
		ingestor:    ingestor,
		tokens:      tokens,
		limiter:     limiter,
		validator:   validation.New(),
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack. Reads are open to any
// origin; icons are meant to be embedded from anywhere.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/icon", func(r chi.Router) {
		r.Get("/", s.handleListIcons)
		r.Get("/{id}", s.handleGetIcon)
		r.Get("/{id}/info", s.handleIconInfo)
	})

	s.router.Route("/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Get("/{collection}", s.handleCollectionIcons)
	})

	s.router.Route("/search", func(r chi.Router) {
		r.Get("/tags", s.handleSearchTags)
		r.Get("/icons", s.handleSearchIcons)
	})

	s.router.With(s.rateLimitUploads, s.requireUploadToken).Post("/", s.handleUpload)

	// Slug-pair lookup goes last; static prefixes above win over the
	// wildcard, so a collection named "icon" or "search" is shadowed.
	s.router.Get("/{collection}/{icon}", s.handleGetIconBySlugs)
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
	}, s.logger)
}
