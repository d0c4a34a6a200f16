package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/http/handler"
	"github.com/straye-as/gallery/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	rateLimiter    *middleware.RateLimiter
	galleryHandler *handler.GalleryHandler
	healthHandler  *handler.HealthHandler
	metrics        http.Handler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	rateLimiter *middleware.RateLimiter,
	galleryHandler *handler.GalleryHandler,
	healthHandler *handler.HealthHandler,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		rateLimiter:    rateLimiter,
		galleryHandler: galleryHandler,
		healthHandler:  healthHandler,
		metrics:        promhttp.Handler(),
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Probes and metrics
	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/ready", rt.healthHandler.Ready)
	r.Handle("/metrics", rt.metrics)

	// Gallery
	r.Get("/", rt.galleryHandler.List)
	r.Get("/search", rt.galleryHandler.SearchForm)
	r.Post("/search", rt.galleryHandler.Search)

	return r
}
