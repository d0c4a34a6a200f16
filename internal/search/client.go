// Package search queries the Azure Cognitive Search index holding image metadata.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/domain"
	"go.uber.org/zap"
)

const (
	searchFields = "labels"
	selectFields = "name,labels,safe_adult,safe_racy,safe_violence"

	defaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed response is kept
	maxErrorBody = 64 << 10
)

// Client sends keyword queries to a single search index
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *zap.Logger
}

// Document is a single search hit.
// Labels and scores are kept as raw JSON and interpreted by the caller.
type Document struct {
	Name         string          `json:"name"`
	Labels       json.RawMessage `json:"labels"`
	SafeAdult    json.RawMessage `json:"safe_adult"`
	SafeRacy     json.RawMessage `json:"safe_racy"`
	SafeViolence json.RawMessage `json:"safe_violence"`
}

type searchRequest struct {
	Search       string `json:"search"`
	SearchFields string `json:"searchFields"`
	Select       string `json:"select"`
}

type searchResponse struct {
	Value []Document `json:"value"`
}

// NewClient creates a search client for the configured index
func NewClient(cfg *config.SearchConfig, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		cfg.BaseURL(),
		url.PathEscape(cfg.IndexName),
		url.QueryEscape(cfg.APIVersion),
	)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		logger:   logger,
	}
}

// Search runs query against the labels field and returns the hits in the
// order the service ranked them. An empty query is sent as is.
// A non-200 answer is returned as *domain.SearchError.
func (c *Client) Search(ctx context.Context, query string) ([]Document, error) {
	payload, err := json.Marshal(searchRequest{
		Search:       query,
		SearchFields: searchFields,
		Select:       selectFields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		truncated := len(body) > maxErrorBody
		if truncated {
			body = body[:maxErrorBody]
		}
		c.logger.Warn("Search service returned an error",
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("body_truncated", truncated),
		)
		return nil, &domain.SearchError{StatusCode: resp.StatusCode, Body: string(body), Truncated: truncated}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	c.logger.Debug("Search completed",
		zap.Int("hits", len(result.Value)),
		zap.Duration("duration", time.Since(start)),
	)

	if result.Value == nil {
		return []Document{}, nil
	}
	return result.Value, nil
}
