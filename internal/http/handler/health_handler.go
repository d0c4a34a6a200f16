package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/straye-as/gallery/internal/database"
	"github.com/straye-as/gallery/internal/storage"
	"go.uber.org/zap"
)

// ContainerChecker verifies the blob container is reachable
type ContainerChecker interface {
	Check(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db         *sql.DB
	sas        *storage.SASInfo
	warnWithin time.Duration
	probe      ContainerChecker
	logger     *zap.Logger
	now        func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
// sas and probe may be nil when the token could not be inspected or probing is disabled.
func NewHealthHandler(db *sql.DB, sas *storage.SASInfo, warnWithin time.Duration, probe ContainerChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		sas:        sas,
		warnWithin: warnWithin,
		probe:      probe,
		logger:     logger,
		now:        time.Now,
	}
}

// Live is the basic liveness probe
// GET /health
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Ready checks every dependency the gallery needs
// GET /health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	dbStatus := database.HealthCheck(r.Context(), h.db)
	if dbStatus.Status == "unhealthy" {
		h.logger.Error("Database health check failed", zap.String("error", dbStatus.Error))
		allHealthy = false
	}
	checks["database"] = dbStatus

	now := h.now()
	sasStatus := h.sas.Status(now, h.warnWithin)
	sasCheck := map[string]interface{}{
		"status": sasStatus,
	}
	if h.sas != nil && !h.sas.Expiry.IsZero() {
		sasCheck["expires_at"] = h.sas.Expiry.UTC().Format(time.RFC3339)
		sasCheck["time_left"] = h.sas.TimeLeft(now).Truncate(time.Second).String()
	}
	if sasStatus == storage.SASStatusExpired {
		allHealthy = false
	}
	checks["sas_token"] = sasCheck

	if h.probe != nil {
		if err := h.probe.Check(r.Context()); err != nil {
			h.logger.Error("Blob container check failed", zap.Error(err))
			checks["blob_container"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["blob_container"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	}

	if allHealthy {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"checks": checks,
		})
		return
	}

	respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status": "unhealthy",
		"checks": checks,
	})
}
