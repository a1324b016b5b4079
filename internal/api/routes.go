package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(events *sqlite.EventStorage, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(events, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/events", r.handler.GetEvents)
		router.Get("/events/{hex}", r.handler.GetEventsByHex)
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
