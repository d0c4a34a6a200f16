package router_test

import (
	"database/sql/driver"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/database/dbtest"
	"github.com/straye-as/gallery/internal/http/handler"
	"github.com/straye-as/gallery/internal/http/middleware"
	"github.com/straye-as/gallery/internal/http/router"
	"github.com/straye-as/gallery/internal/repository"
	"github.com/straye-as/gallery/internal/search"
	"github.com/straye-as/gallery/internal/service"
	"github.com/straye-as/gallery/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer wires the real stack against an in-memory catalog and a fake search service
func newTestServer(t *testing.T, searchHandler http.HandlerFunc, expose bool) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	searchSrv := httptest.NewServer(searchHandler)
	t.Cleanup(searchSrv.Close)

	cfg := &config.Config{
		App:     config.AppConfig{Name: "gallery", Environment: "test"},
		Storage: config.StorageConfig{AccountName: "jackblack", ContainerName: "images", SASToken: "sv=1&sig=abc"},
		Search: config.SearchConfig{
			Endpoint:   searchSrv.URL,
			IndexName:  "images-index",
			APIKey:     "key",
			APIVersion: "2021-04-30-Preview",
			Timeout:    5,
		},
		Server: config.ServerConfig{ExposeErrorDetails: expose},
		Security: config.SecurityConfig{
			ContentTypeNosniff:    true,
			ContentSecurityPolicy: "default-src 'self'; img-src https://*.blob.core.windows.net",
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	db := (&dbtest.Connector{
		Columns: []string{"id", "name", "labels_json", "safe_adult", "safe_racy", "safe_violence"},
		Rows:    [][]driver.Value{{int64(1), "cat.jpg", `["animal", "cute"]`, 0.1, 0.2, float64(0)}},
	}).Open()
	t.Cleanup(func() { db.Close() })

	repo, err := repository.NewImageRepository(db, &cfg.Database, logger)
	require.NoError(t, err)

	views, err := view.NewRenderer()
	require.NoError(t, err)

	galleryHandler := handler.NewGalleryHandler(
		service.NewCatalogService(repo, &cfg.Storage, logger),
		service.NewSearchService(search.NewClient(&cfg.Search, logger), &cfg.Storage, logger),
		views,
		&cfg.Server,
		logger,
	)
	healthHandler := handler.NewHealthHandler(db, nil, 0, nil, logger)

	rt := router.NewRouter(cfg, logger, middleware.NewRateLimiter(&cfg.RateLimit, logger), galleryHandler, healthHandler)
	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRouter_Gallery(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("search service must not be called")
	}, true)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "blob.core.windows.net")
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	assert.Contains(t, body, `https://jackblack.blob.core.windows.net/images/cat.jpg?sv=1&amp;sig=abc`)
	assert.Contains(t, body, "animal, cute")
}

func TestRouter_SearchForm(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("search service must not be called")
	}, true)

	resp, err := http.Get(srv.URL + "/search")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="query"`)
}

func TestRouter_SearchDog(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("api-key"))
		_, _ = w.Write([]byte(`{"value": [{"name": "dog.jpg", "labels": ["dog"], "safe_adult": 0.01, "safe_racy": 0.02, "safe_violence": 0}]}`))
	}, true)

	resp, err := http.PostForm(srv.URL+"/search", url.Values{"query": {"dog"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "https://jackblack.blob.core.windows.net/images/dog.jpg?sv=1&amp;sig=abc")
	assert.Contains(t, body, "Labels: dog</p>")
	assert.Contains(t, body, `value="dog"`)
}

func TestRouter_SearchUnavailable(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("service unavailable"))
	}, true)

	resp, err := http.PostForm(srv.URL+"/search", url.Values{"query": {"dog"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Error: 503 - service unavailable", body)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, false)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, "OK", readBody(t, resp))

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "http_requests_total")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {}, false)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/search", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
