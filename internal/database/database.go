// Package database opens the catalog database pool.
// Azure SQL (sqlserver) is the production backend; postgres is supported for local development.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"               // PostgreSQL driver
	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/straye-as/gallery/internal/config"
	"go.uber.org/zap"
)

const (
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

// sleep is replaced in tests
var sleep = time.Sleep

// HealthStatus represents the health check result for the catalog database
type HealthStatus struct {
	Status     string `json:"status"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
	MaxOpen    int    `json:"max_open_connections"`
	Open       int    `json:"open_connections"`
	InUse      int    `json:"in_use"`
	Idle       int    `json:"idle"`
	WaitCount  int64  `json:"wait_count"`
	WaitTimeMs int64  `json:"wait_time_ms"`
}

// DriverName maps the configured driver to the database/sql driver name
func DriverName(driver string) (string, error) {
	switch driver {
	case "sqlserver", "":
		return "sqlserver", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewDatabase opens the connection pool and verifies it with a ping,
// retrying transient failures with exponential backoff.
func NewDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	driverName, err := DriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing catalog database connection",
		zap.String("driver", driverName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.ConnMaxLifetime),
	)

	return connect(func() (*sql.DB, error) {
		return sql.Open(driverName, cfg.ConnectionString)
	}, cfg, logger)
}

func connect(open func() (*sql.DB, error), cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	maxRetries := cfg.ConnectRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var db *sql.DB
		db, err = open()
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

			ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
			err = db.PingContext(ctx)
			cancel()

			if err == nil {
				logger.Info("Catalog database connection established",
					zap.Int("attempts_taken", attempt),
				)
				return db, nil
			}
			_ = db.Close()
		}

		logger.Warn("Catalog database connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
		)

		if attempt < maxRetries {
			sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// HealthCheck pings the database and reports connection pool statistics
func HealthCheck(ctx context.Context, db *sql.DB) *HealthStatus {
	if db == nil {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	stats := db.Stats()
	status := &HealthStatus{
		Status:     "healthy",
		LatencyMs:  latency.Milliseconds(),
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}

	return status
}
