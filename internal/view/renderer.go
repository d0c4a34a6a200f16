// Package view renders the gallery pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/straye-as/gallery/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageImages        = "images.html"
	PageSearch        = "search.html"
	PageSearchResults = "search_results.html"
)

// GalleryData is passed to images.html and search_results.html
type GalleryData struct {
	Images []domain.DisplayRecord
	Query  string
}

// Renderer executes the gallery templates
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, page := range []string{PageImages, PageSearch, PageSearchResults} {
		tmpl, err := template.New(page).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}

	return r, nil
}

// Render writes page to w. The page is rendered into a buffer first so a
// template error never leaves a half written response.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	_, err := buf.WriteTo(w)
	return err
}
