package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/http/middleware"
	"github.com/stretchr/testify/assert"
)

func serveWithSecurity(cfg *config.SecurityConfig) *httptest.ResponseRecorder {
	handler := middleware.SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestSecurityHeaders_DefaultConfig(t *testing.T) {
	csp := "default-src 'self'; img-src 'self' https://*.blob.core.windows.net"
	w := serveWithSecurity(&config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		XSSProtection:         "1; mode=block",
		ContentSecurityPolicy: csp,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, csp, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", w.Header().Get("Permissions-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS should not be set when disabled")
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SecurityConfig
		want string
	}{
		{name: "max age only", cfg: config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 31536000}, want: "max-age=31536000"},
		{name: "subdomains", cfg: config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 60, HSTSIncludeSubdomains: true}, want: "max-age=60; includeSubDomains"},
		{name: "preload", cfg: config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 60, HSTSIncludeSubdomains: true, HSTSPreload: true}, want: "max-age=60; includeSubDomains; preload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveWithSecurity(&tt.cfg)
			assert.Equal(t, tt.want, w.Header().Get("Strict-Transport-Security"))
		})
	}
}

func TestSecurityHeaders_EmptyValuesSkipped(t *testing.T) {
	w := serveWithSecurity(&config.SecurityConfig{})

	assert.Empty(t, w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}
