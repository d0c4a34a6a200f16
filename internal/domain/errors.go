package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLabelsNotList is returned when label data is neither a list nor a serialized list
	ErrLabelsNotList = errors.New("labels are not a list of strings")

	// ErrLabelsMissing is returned when a record carries no label data at all
	ErrLabelsMissing = errors.New("labels are missing")

	// ErrEmptyBlobName is returned when a record has no blob name to build a URL from
	ErrEmptyBlobName = errors.New("blob name is empty")

	// ErrUnexpectedColumns is returned when the catalog table does not have the expected layout
	ErrUnexpectedColumns = errors.New("unexpected catalog column layout")
)

// ConfigError reports required settings that are absent at startup.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required configuration: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// CatalogError wraps any failure while listing the image catalog.
type CatalogError struct {
	Op  string
	Err error
}

func (e *CatalogError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// SearchError is returned when the search service answers with a non-200 status.
// Body holds the raw response body, cut at 64 KiB when Truncated is set.
type SearchError struct {
	StatusCode int
	Body       string
	Truncated  bool
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
}

// MalformedLabelDataError is returned when label data cannot be decoded into
// a list of strings.
type MalformedLabelDataError struct {
	Raw string
	Err error
}

func (e *MalformedLabelDataError) Error() string {
	return fmt.Sprintf("malformed label data %q: %v", truncate(e.Raw, 80), e.Err)
}

func (e *MalformedLabelDataError) Unwrap() error {
	return e.Err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
