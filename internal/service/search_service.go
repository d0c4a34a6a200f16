package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/domain"
	"github.com/straye-as/gallery/internal/mapper"
	"github.com/straye-as/gallery/internal/search"
	"go.uber.org/zap"
)

// DocumentSearcher queries the search index
type DocumentSearcher interface {
	Search(ctx context.Context, query string) ([]search.Document, error)
}

// SearchService turns search hits into display records
type SearchService struct {
	searcher DocumentSearcher
	baseURL  string
	token    string
	logger   *zap.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(searcher DocumentSearcher, storageCfg *config.StorageConfig, logger *zap.Logger) *SearchService {
	return &SearchService{
		searcher: searcher,
		baseURL:  storageCfg.BaseURL(),
		token:    storageCfg.SASToken,
		logger:   logger,
	}
}

// Search returns display records for the hits of query, in the order the
// search service ranked them. A non-200 answer surfaces as *domain.SearchError.
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.DisplayRecord, error) {
	docs, err := s.searcher.Search(ctx, query)
	if err != nil {
		var searchErr *domain.SearchError
		if errors.As(err, &searchErr) {
			searchRequestsTotal.WithLabelValues(outcomeUpstream).Inc()
		} else {
			searchRequestsTotal.WithLabelValues(outcomeBackend).Inc()
		}
		s.logger.Error("Search request failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	records := make([]domain.DisplayRecord, 0, len(docs))
	for i, doc := range docs {
		record, err := s.toDisplayRecord(doc)
		if err != nil {
			searchRequestsTotal.WithLabelValues(outcomeMalformed).Inc()
			s.logger.Error("Malformed search result",
				zap.String("query", query),
				zap.Int("index", i),
				zap.String("name", doc.Name),
				zap.Error(err),
			)
			return nil, fmt.Errorf("search result %d: %w", i, err)
		}
		records = append(records, record)
	}

	searchRequestsTotal.WithLabelValues(outcomeSuccess).Inc()
	return records, nil
}

func (s *SearchService) toDisplayRecord(doc search.Document) (domain.DisplayRecord, error) {
	labels, err := domain.LabelSourceFromJSON(doc.Labels)
	if err != nil {
		return domain.DisplayRecord{}, err
	}

	return mapper.ToDisplayRecord(domain.ImageRow{
		Name:         doc.Name,
		Labels:       labels,
		SafeAdult:    domain.ScoreFromJSON(doc.SafeAdult),
		SafeRacy:     domain.ScoreFromJSON(doc.SafeRacy),
		SafeViolence: domain.ScoreFromJSON(doc.SafeViolence),
	}, s.baseURL, s.token)
}
