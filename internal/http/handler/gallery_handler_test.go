package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/domain"
	"github.com/straye-as/gallery/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	images []domain.DisplayRecord
	err    error
	calls  int
}

func (f *fakeCatalog) ListImages(ctx context.Context) ([]domain.DisplayRecord, error) {
	f.calls++
	return f.images, f.err
}

type fakeSearch struct {
	images    []domain.DisplayRecord
	err       error
	calls     int
	lastQuery string
}

func (f *fakeSearch) Search(ctx context.Context, query string) ([]domain.DisplayRecord, error) {
	f.calls++
	f.lastQuery = query
	return f.images, f.err
}

type failingRenderer struct{}

func (failingRenderer) Render(w io.Writer, page string, data interface{}) error {
	return errors.New("template exploded")
}

var catRecord = domain.DisplayRecord{
	URL:          "https://jackblack.blob.core.windows.net/images/cat.jpg?sv=2022-11-02&sig=abc",
	Name:         "cat.jpg",
	Labels:       "animal, cute",
	SafeAdult:    "0.1",
	SafeRacy:     "0.2",
	SafeViolence: "0",
}

func newGalleryHandler(t *testing.T, catalog *fakeCatalog, search *fakeSearch, expose bool) *GalleryHandler {
	t.Helper()
	views, err := view.NewRenderer()
	require.NoError(t, err)
	return NewGalleryHandler(catalog, search, views, &config.ServerConfig{ExposeErrorDetails: expose}, zap.NewNop())
}

func postSearch(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestGalleryHandler_List(t *testing.T) {
	catalog := &fakeCatalog{images: []domain.DisplayRecord{catRecord}}
	search := &fakeSearch{}
	h := newGalleryHandler(t, catalog, search, true)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "cat.jpg")
	assert.Contains(t, rec.Body.String(), "animal, cute")
	assert.Equal(t, 1, catalog.calls)
	assert.Zero(t, search.calls)
}

func TestGalleryHandler_ListFailure(t *testing.T) {
	tests := []struct {
		name   string
		expose bool
		want   string
	}{
		{name: "details exposed", expose: true, want: "Error: read catalog: login failed"},
		{name: "details hidden", expose: false, want: "Error: unable to load images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{err: &domain.CatalogError{Op: "read catalog", Err: errors.New("login failed")}}
			h := newGalleryHandler(t, catalog, &fakeSearch{}, tt.expose)

			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestGalleryHandler_SearchForm(t *testing.T) {
	catalog := &fakeCatalog{}
	search := &fakeSearch{}
	h := newGalleryHandler(t, catalog, search, true)

	rec := httptest.NewRecorder()
	h.SearchForm(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="query"`)
	assert.Zero(t, catalog.calls)
	assert.Zero(t, search.calls)
}

func TestGalleryHandler_Search(t *testing.T) {
	dog := domain.DisplayRecord{URL: "https://x/images/dog.jpg?sig=1", Name: "dog.jpg", Labels: "dog"}
	search := &fakeSearch{images: []domain.DisplayRecord{dog}}
	h := newGalleryHandler(t, &fakeCatalog{}, search, true)

	rec := httptest.NewRecorder()
	h.Search(rec, postSearch(url.Values{"query": {"dog"}}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dog", search.lastQuery)
	body := rec.Body.String()
	assert.Contains(t, body, "dog.jpg")
	assert.Contains(t, body, `value="dog"`)
}

func TestGalleryHandler_SearchMissingQuery(t *testing.T) {
	search := &fakeSearch{images: []domain.DisplayRecord{}}
	h := newGalleryHandler(t, &fakeCatalog{}, search, true)

	rec := httptest.NewRecorder()
	h.Search(rec, postSearch(url.Values{}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, search.calls)
	assert.Equal(t, "", search.lastQuery)
}

func TestGalleryHandler_SearchUpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		expose bool
		want   string
	}{
		{name: "details exposed", expose: true, want: "Error: 503 - service unavailable"},
		{name: "details hidden", expose: false, want: "Error: search is currently unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearch{err: &domain.SearchError{StatusCode: 503, Body: "service unavailable"}}
			h := newGalleryHandler(t, &fakeCatalog{}, search, tt.expose)

			rec := httptest.NewRecorder()
			h.Search(rec, postSearch(url.Values{"query": {"dog"}}))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestGalleryHandler_RenderFailure(t *testing.T) {
	h := NewGalleryHandler(&fakeCatalog{}, &fakeSearch{}, failingRenderer{}, &config.ServerConfig{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
