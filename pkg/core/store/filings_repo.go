package store

import (
	"context"
	"fmt"
	"time"

	"edgarq/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FilingsRepo tracks registrants and their filing history, including
// which filings have already been processed.
type FilingsRepo struct {
	pool *pgxpool.Pool
}

// NewFilingsRepo creates a new filings repository
func NewFilingsRepo(pool *pgxpool.Pool) *FilingsRepo {
	return &FilingsRepo{pool: pool}
}

// SaveEntity upserts a registrant
func (r *FilingsRepo) SaveEntity(ctx context.Context, e models.Entity) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	query := `
		INSERT INTO entities (cik, ticker, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (cik)
		DO UPDATE SET
			ticker = EXCLUDED.ticker,
			name = EXCLUDED.name,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, e.CIK, e.Ticker, e.Name)
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}
	return nil
}

// LookupTicker resolves a ticker to a tracked registrant
func (r *FilingsRepo) LookupTicker(ctx context.Context, ticker string) (models.Entity, error) {
	var e models.Entity
	if r.pool == nil {
		return e, fmt.Errorf("database pool not configured")
	}

	query := `SELECT cik, ticker, name FROM entities WHERE LOWER(ticker) = LOWER($1)`
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&e.CIK, &e.Ticker, &e.Name)
	if err != nil {
		return e, fmt.Errorf("unknown ticker %s: %w", ticker, err)
	}
	return e, nil
}

// GetEntity loads a tracked registrant by CIK
func (r *FilingsRepo) GetEntity(ctx context.Context, cik int64) (models.Entity, error) {
	var e models.Entity
	if r.pool == nil {
		return e, fmt.Errorf("database pool not configured")
	}

	query := `SELECT cik, ticker, name FROM entities WHERE cik = $1`
	err := r.pool.QueryRow(ctx, query, cik).Scan(&e.CIK, &e.Ticker, &e.Name)
	if err != nil {
		return e, fmt.Errorf("unknown CIK %d: %w", cik, err)
	}
	return e, nil
}

// Upsert records one filing from the submission history
func (r *FilingsRepo) Upsert(ctx context.Context, f models.Filing) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	query := `
		INSERT INTO filings (accession_no, cik, form, primary_doc, filed_at, doc_period_end, fiscal_year, fiscal_period)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (accession_no)
		DO UPDATE SET
			form = EXCLUDED.form,
			primary_doc = EXCLUDED.primary_doc,
			filed_at = EXCLUDED.filed_at,
			doc_period_end = EXCLUDED.doc_period_end,
			fiscal_year = EXCLUDED.fiscal_year,
			fiscal_period = EXCLUDED.fiscal_period
	`
	_, err := r.pool.Exec(ctx, query,
		f.AccessionNo, f.CIK, f.Form, f.PrimaryDoc, f.FiledAt, f.DocPeriodEnd, f.FiscalYear, f.FiscalPeriod,
	)
	if err != nil {
		return fmt.Errorf("failed to save filing %s: %w", f.AccessionNo, err)
	}
	return nil
}

// MarkProcessed stamps a filing once its facts have been extracted
func (r *FilingsRepo) MarkProcessed(ctx context.Context, accessionNo string) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE filings SET processed_at = NOW() WHERE accession_no = $1`, accessionNo)
	if err != nil {
		return fmt.Errorf("failed to mark filing processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether a filing's facts are already in the store
func (r *FilingsRepo) IsProcessed(ctx context.Context, accessionNo string) bool {
	if r.pool == nil {
		return false
	}

	query := `SELECT 1 FROM filings WHERE accession_no = $1 AND processed_at IS NOT NULL LIMIT 1`
	var exists int
	err := r.pool.QueryRow(ctx, query, accessionNo).Scan(&exists)
	return err == nil
}

// ListByCIK returns a registrant's filings, oldest first
func (r *FilingsRepo) ListByCIK(ctx context.Context, cik int64) ([]models.Filing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT accession_no, cik, form, primary_doc, filed_at, doc_period_end, fiscal_year, fiscal_period, processed_at
		FROM filings
		WHERE cik = $1
		ORDER BY filed_at, accession_no
	`
	rows, err := r.pool.Query(ctx, query, cik)
	if err != nil {
		return nil, fmt.Errorf("failed to query filings: %w", err)
	}
	defer rows.Close()

	var filings []models.Filing
	for rows.Next() {
		var f models.Filing
		var processedAt *time.Time
		if err := rows.Scan(&f.AccessionNo, &f.CIK, &f.Form, &f.PrimaryDoc,
			&f.FiledAt, &f.DocPeriodEnd, &f.FiscalYear, &f.FiscalPeriod, &processedAt); err != nil {
			return nil, fmt.Errorf("failed to scan filing row: %w", err)
		}
		f.Processed = processedAt != nil
		filings = append(filings, f)
	}
	return filings, nil
}
