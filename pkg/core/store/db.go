package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the database connection pool using the DATABASE_URL environment variable
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	cik BIGINT PRIMARY KEY,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS entities_ticker_idx ON entities (LOWER(ticker));

CREATE TABLE IF NOT EXISTS filings (
	accession_no TEXT PRIMARY KEY,
	cik BIGINT NOT NULL,
	form TEXT NOT NULL,
	primary_doc TEXT NOT NULL DEFAULT '',
	filed_at DATE NOT NULL DEFAULT '0001-01-01',
	doc_period_end DATE NOT NULL DEFAULT '0001-01-01',
	fiscal_year INT NOT NULL DEFAULT 0,
	fiscal_period TEXT NOT NULL DEFAULT '',
	processed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS filings_cik_idx ON filings (cik, filed_at);

CREATE TABLE IF NOT EXISTS facts (
	cik BIGINT NOT NULL,
	taxonomy TEXT NOT NULL,
	tag TEXT NOT NULL,
	fiscal_year INT NOT NULL,
	fiscal_period TEXT NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	decimals TEXT NOT NULL DEFAULT '',
	start_date DATE NOT NULL DEFAULT '0001-01-01',
	end_date DATE NOT NULL,
	mode TEXT NOT NULL,
	accession_no TEXT NOT NULL DEFAULT '',
	doc_period_end DATE NOT NULL DEFAULT '0001-01-01',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (cik, taxonomy, tag, fiscal_year, fiscal_period)
);

CREATE TABLE IF NOT EXISTS series (
	cik BIGINT NOT NULL,
	taxonomy TEXT NOT NULL,
	tag TEXT NOT NULL,
	fiscal_year INT NOT NULL,
	derived BOOLEAN NOT NULL,
	payload JSONB NOT NULL,
	built_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (cik, taxonomy, tag, fiscal_year, derived)
);
`

// EnsureSchema creates the tables this service owns. Statements are
// idempotent so every process can run it at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("database pool not configured")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
