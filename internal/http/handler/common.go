package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/straye-as/gallery/internal/logger"
	"go.uber.org/zap"
)

// PageRenderer renders a named HTML page
type PageRenderer interface {
	Render(w io.Writer, page string, data interface{}) error
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondErrorText writes a gallery failure. The pages report failures as
// plain text with status 200.
func respondErrorText(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Error: "+message)
}

func renderPage(w http.ResponseWriter, views PageRenderer, page string, data interface{}, log *zap.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Render(w, page, data); err != nil {
		log.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func requestLogger(base *zap.Logger, r *http.Request) *zap.Logger {
	return logger.WithRequest(base, r.Method, r.URL.Path, r.Header.Get("X-Request-ID"))
}
