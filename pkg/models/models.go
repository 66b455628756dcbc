// Package models holds the shared records passed between ingestion,
// storage and the API layer.
package models

import (
	"time"
)

// Entity is a registrant the service tracks.
type Entity struct {
	CIK    int64  `json:"cik"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Filing is one submission from a registrant's filing history.
type Filing struct {
	AccessionNo  string    `json:"accession_no"`
	CIK          int64     `json:"cik"`
	Form         string    `json:"form"`
	PrimaryDoc   string    `json:"primary_doc,omitempty"`
	FiledAt      time.Time `json:"filed_at"`
	DocPeriodEnd time.Time `json:"doc_period_end"`
	FiscalYear   int       `json:"fiscal_year,omitempty"`
	FiscalPeriod string    `json:"fiscal_period,omitempty"`
	Processed    bool      `json:"processed"`
}

// RunSummary reports what one pipeline run did.
type RunSummary struct {
	RunID            string    `json:"run_id"`
	Ticker           string    `json:"ticker"`
	CIK              int64     `json:"cik"`
	FilingsSeen      int       `json:"filings_seen"`
	FilingsProcessed int       `json:"filings_processed"`
	FactsStored      int       `json:"facts_stored"`
	TablesBuilt      int       `json:"tables_built"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}
