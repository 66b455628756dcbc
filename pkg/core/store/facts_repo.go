package store

import (
	"context"
	"fmt"

	"edgarq/pkg/core/xbrl"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FactsRepo stores the selected fact per concept and fiscal period.
// One row per (cik, concept, fiscal year, fiscal period): re-processing
// a filing overwrites its own rows and nothing else.
type FactsRepo struct {
	pool *pgxpool.Pool
}

// NewFactsRepo creates a new facts repository
func NewFactsRepo(pool *pgxpool.Pool) *FactsRepo {
	return &FactsRepo{pool: pool}
}

// Upsert writes one selected fact
func (r *FactsRepo) Upsert(ctx context.Context, cik int64, f xbrl.Fact) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not configured")
	}

	query := `
		INSERT INTO facts (
			cik, taxonomy, tag, fiscal_year, fiscal_period,
			value, unit, decimals, start_date, end_date, mode, accession_no, doc_period_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (cik, taxonomy, tag, fiscal_year, fiscal_period)
		DO UPDATE SET
			value = EXCLUDED.value,
			unit = EXCLUDED.unit,
			decimals = EXCLUDED.decimals,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			mode = EXCLUDED.mode,
			accession_no = EXCLUDED.accession_no,
			doc_period_end = EXCLUDED.doc_period_end,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		cik, f.Concept.Taxonomy, f.Concept.Tag, f.FiscalYear, f.FiscalPeriod,
		f.Value, f.Unit, f.Decimals, f.Start, f.End, string(f.Mode), f.AccessionNo, f.DocPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to save fact %s:%s %s: %w", f.Concept.Taxonomy, f.Concept.Tag, f.FiscalPeriod, err)
	}
	return nil
}

// PastPeriods returns which fiscal periods of a concept-year are
// already on record and the window each one was filed with. Selection
// for later periods depends on this.
func (r *FactsRepo) PastPeriods(ctx context.Context, cik int64, taxonomy, tag string, fiscalYear int) (xbrl.Past, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT fiscal_period, mode
		FROM facts
		WHERE cik = $1 AND taxonomy = $2 AND tag = $3 AND fiscal_year = $4
	`
	rows, err := r.pool.Query(ctx, query, cik, taxonomy, tag, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query past periods: %w", err)
	}
	defer rows.Close()

	past := xbrl.Past{}
	for rows.Next() {
		var period, mode string
		if err := rows.Scan(&period, &mode); err != nil {
			return nil, fmt.Errorf("failed to scan past period: %w", err)
		}
		past[period] = xbrl.PeriodMode(mode)
	}
	return past, nil
}

// ConceptFacts loads the stored facts of one concept-year
func (r *FactsRepo) ConceptFacts(ctx context.Context, cik int64, taxonomy, tag string, fiscalYear int) ([]xbrl.Fact, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT taxonomy, tag, fiscal_year, fiscal_period,
		       value, unit, decimals, start_date, end_date, mode, accession_no, doc_period_end
		FROM facts
		WHERE cik = $1 AND taxonomy = $2 AND tag = $3 AND fiscal_year = $4
		ORDER BY fiscal_period
	`
	rows, err := r.pool.Query(ctx, query, cik, taxonomy, tag, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []xbrl.Fact
	for rows.Next() {
		var f xbrl.Fact
		var mode string
		if err := rows.Scan(&f.Concept.Taxonomy, &f.Concept.Tag, &f.FiscalYear, &f.FiscalPeriod,
			&f.Value, &f.Unit, &f.Decimals, &f.Start, &f.End, &mode, &f.AccessionNo, &f.DocPeriodEnd); err != nil {
			return nil, fmt.Errorf("failed to scan fact row: %w", err)
		}
		f.Mode = xbrl.PeriodMode(mode)
		facts = append(facts, f)
	}
	return facts, nil
}

// Concepts lists the distinct concepts with facts on record for a
// registrant's fiscal year
func (r *FactsRepo) Concepts(ctx context.Context, cik int64, fiscalYear int) ([]xbrl.Concept, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT DISTINCT taxonomy, tag
		FROM facts
		WHERE cik = $1 AND fiscal_year = $2
		ORDER BY taxonomy, tag
	`
	rows, err := r.pool.Query(ctx, query, cik, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query concepts: %w", err)
	}
	defer rows.Close()

	var concepts []xbrl.Concept
	for rows.Next() {
		var c xbrl.Concept
		if err := rows.Scan(&c.Taxonomy, &c.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan concept row: %w", err)
		}
		concepts = append(concepts, c)
	}
	return concepts, nil
}

// Years lists the fiscal years with facts on record for a registrant
func (r *FactsRepo) Years(ctx context.Context, cik int64) ([]int, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT fiscal_year FROM facts WHERE cik = $1 ORDER BY fiscal_year`, cik)
	if err != nil {
		return nil, fmt.Errorf("failed to query years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, nil
}
