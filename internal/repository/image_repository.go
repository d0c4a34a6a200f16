package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/domain"
	"go.uber.org/zap"
)

// catalogColumns is the positional layout of the images table:
// id, name, labels_json, safe_adult, safe_racy, safe_violence
const catalogColumns = 6

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ImageRepository reads the image catalog table
type ImageRepository struct {
	db           *sql.DB
	query        string
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewImageRepository creates a catalog reader over the shared pool.
// The table name may be schema qualified (dbo.images).
func NewImageRepository(db *sql.DB, cfg *config.DatabaseConfig, logger *zap.Logger) (*ImageRepository, error) {
	table := cfg.Table
	if table == "" {
		table = "images"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}

	return &ImageRepository{
		db:           db,
		query:        "SELECT * FROM " + table,
		queryTimeout: cfg.QueryTimeoutDuration(),
		logger:       logger,
	}, nil
}

// ListRows returns every catalog row in store order.
// One connection is taken from the pool and handed back before returning.
func (r *ImageRepository) ListRows(ctx context.Context) ([]domain.ImageRow, error) {
	if _, ok := ctx.Deadline(); !ok && r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	start := time.Now()

	rows, err := conn.QueryContext(ctx, r.query)
	if err != nil {
		r.logger.Error("Catalog query failed",
			zap.Error(err),
			zap.String("query", r.query),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}
	if len(columns) != catalogColumns {
		return nil, fmt.Errorf("%w: got %d columns, want %d", domain.ErrUnexpectedColumns, len(columns), catalogColumns)
	}

	var result []domain.ImageRow
	for rows.Next() {
		row, err := scanImageRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(result), err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	r.logger.Debug("Catalog query completed",
		zap.Int("rows_returned", len(result)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func scanImageRow(rows *sql.Rows) (domain.ImageRow, error) {
	var (
		id       interface{}
		name     sql.NullString
		labels   interface{}
		adult    interface{}
		racy     interface{}
		violence interface{}
	)

	if err := rows.Scan(&id, &name, &labels, &adult, &racy, &violence); err != nil {
		return domain.ImageRow{}, err
	}

	row := domain.ImageRow{
		ID:           id,
		Name:         name.String,
		SafeAdult:    domain.ScoreFromValue(adult),
		SafeRacy:     domain.ScoreFromValue(racy),
		SafeViolence: domain.ScoreFromValue(violence),
	}

	// A NULL labels column leaves the zero LabelSource, which fails normalization
	switch v := labels.(type) {
	case string:
		row.Labels = domain.Serialized(v)
	case []byte:
		row.Labels = domain.Serialized(string(v))
	case nil:
	default:
		row.Labels = domain.Serialized(fmt.Sprint(v))
	}

	return row, nil
}
