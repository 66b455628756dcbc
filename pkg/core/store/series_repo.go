package store

import (
	"context"
	"encoding/json"
	"fmt"

	"edgarq/pkg/core/derive"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeriesRepo stores built quarter tables as JSONB, one payload per
// concept-year in each of the raw and derived variants.
type SeriesRepo struct {
	pool *pgxpool.Pool
}

// NewSeriesRepo creates a new series repository
func NewSeriesRepo(pool *pgxpool.Pool) *SeriesRepo {
	return &SeriesRepo{pool: pool}
}

// Save upserts one quarter table
func (r *SeriesRepo) Save(ctx context.Context, cik int64, t derive.Table, derived bool) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal series payload: %w", err)
	}

	query := `
		INSERT INTO series (cik, taxonomy, tag, fiscal_year, derived, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cik, taxonomy, tag, fiscal_year, derived)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			built_at = NOW()
	`
	_, err = r.pool.Exec(ctx, query, cik, t.Concept.Taxonomy, t.Concept.Tag, t.FiscalYear, derived, payload)
	if err != nil {
		return fmt.Errorf("failed to save series %s:%s FY%d: %w", t.Concept.Taxonomy, t.Concept.Tag, t.FiscalYear, err)
	}
	return nil
}

// Get loads one quarter table, or nil when none has been built
func (r *SeriesRepo) Get(ctx context.Context, cik int64, taxonomy, tag string, fiscalYear int, derived bool) (*derive.Table, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT payload
		FROM series
		WHERE cik = $1 AND taxonomy = $2 AND tag = $3 AND fiscal_year = $4 AND derived = $5
		LIMIT 1
	`
	var payload []byte
	err := r.pool.QueryRow(ctx, query, cik, taxonomy, tag, fiscalYear, derived).Scan(&payload)
	if err != nil {
		return nil, nil
	}

	var t derive.Table
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series payload: %w", err)
	}
	return &t, nil
}

// ListYear loads every concept's table for one fiscal year
func (r *SeriesRepo) ListYear(ctx context.Context, cik int64, fiscalYear int, derived bool) ([]derive.Table, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT payload
		FROM series
		WHERE cik = $1 AND fiscal_year = $2 AND derived = $3
		ORDER BY taxonomy, tag
	`
	rows, err := r.pool.Query(ctx, query, cik, fiscalYear, derived)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var tables []derive.Table
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		var t derive.Table
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal series payload: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}
