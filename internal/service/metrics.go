package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	outcomeSuccess   = "success"
	outcomeBackend   = "backend_error"
	outcomeMalformed = "malformed_data"
	outcomeUpstream  = "upstream_status"
)

var (
	catalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_catalog_requests_total",
			Help: "Total number of catalog listings by outcome",
		},
		[]string{"outcome"},
	)

	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_search_requests_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"},
	)
)
