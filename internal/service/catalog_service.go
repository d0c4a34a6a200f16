package service

import (
	"context"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/domain"
	"github.com/straye-as/gallery/internal/mapper"
	"go.uber.org/zap"
)

// ImageRowReader reads raw catalog rows
type ImageRowReader interface {
	ListRows(ctx context.Context) ([]domain.ImageRow, error)
}

// CatalogService turns catalog rows into display records
type CatalogService struct {
	rows    ImageRowReader
	baseURL string
	token   string
	logger  *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(rows ImageRowReader, storageCfg *config.StorageConfig, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		rows:    rows,
		baseURL: storageCfg.BaseURL(),
		token:   storageCfg.SASToken,
		logger:  logger,
	}
}

// ListImages returns a display record for every catalog row, in store order.
// Any failure is returned as *domain.CatalogError; one bad row fails the listing.
func (s *CatalogService) ListImages(ctx context.Context) ([]domain.DisplayRecord, error) {
	rows, err := s.rows.ListRows(ctx)
	if err != nil {
		catalogRequestsTotal.WithLabelValues(outcomeBackend).Inc()
		s.logger.Error("Failed to read image catalog", zap.Error(err))
		return nil, &domain.CatalogError{Op: "read catalog", Err: err}
	}

	records, err := mapper.ToDisplayRecords(rows, s.baseURL, s.token)
	if err != nil {
		catalogRequestsTotal.WithLabelValues(outcomeMalformed).Inc()
		s.logger.Error("Failed to map image catalog", zap.Error(err), zap.Int("rows", len(rows)))
		return nil, &domain.CatalogError{Op: "map catalog", Err: err}
	}

	catalogRequestsTotal.WithLabelValues(outcomeSuccess).Inc()
	s.logger.Debug("Image catalog listed", zap.Int("images", len(records)))
	return records, nil
}
