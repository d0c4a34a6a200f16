package handler

import (
	"context"
	"net/http"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/domain"
	"github.com/straye-as/gallery/internal/logger"
	"github.com/straye-as/gallery/internal/view"
	"go.uber.org/zap"
)

// Messages shown when error details are hidden
const (
	genericCatalogError = "unable to load images"
	genericSearchError  = "search is currently unavailable"
)

// ImageLister lists the whole catalog
type ImageLister interface {
	ListImages(ctx context.Context) ([]domain.DisplayRecord, error)
}

// ImageSearcher runs a keyword search
type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]domain.DisplayRecord, error)
}

// GalleryHandler serves the gallery and search pages
type GalleryHandler struct {
	catalog      ImageLister
	searcher     ImageSearcher
	views        PageRenderer
	exposeErrors bool
	logger       *zap.Logger
}

// NewGalleryHandler creates a new GalleryHandler
func NewGalleryHandler(catalog ImageLister, searcher ImageSearcher, views PageRenderer, serverCfg *config.ServerConfig, logger *zap.Logger) *GalleryHandler {
	return &GalleryHandler{
		catalog:      catalog,
		searcher:     searcher,
		views:        views,
		exposeErrors: serverCfg.ExposeErrorDetails,
		logger:       logger,
	}
}

// List renders every image in the catalog
// GET /
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.logger, r)

	images, err := h.catalog.ListImages(r.Context())
	if err != nil {
		log.Error("Failed to list images", zap.Error(err))
		respondErrorText(w, h.errorMessage(err, genericCatalogError))
		return
	}

	renderPage(w, h.views, view.PageImages, view.GalleryData{Images: images}, log)
}

// SearchForm renders the empty search form
// GET /search
func (h *GalleryHandler) SearchForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.views, view.PageSearch, view.GalleryData{}, requestLogger(h.logger, r))
}

// Search runs the submitted query and renders the hits
// POST /search
func (h *GalleryHandler) Search(w http.ResponseWriter, r *http.Request) {
	// A missing field is an empty query
	query := r.PostFormValue("query")
	log := logger.WithQuery(requestLogger(h.logger, r), query)

	images, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		log.Error("Search failed", zap.Error(err))
		respondErrorText(w, h.errorMessage(err, genericSearchError))
		return
	}

	renderPage(w, h.views, view.PageSearchResults, view.GalleryData{Images: images, Query: query}, log)
}

func (h *GalleryHandler) errorMessage(err error, generic string) string {
	if h.exposeErrors {
		return err.Error()
	}
	return generic
}
