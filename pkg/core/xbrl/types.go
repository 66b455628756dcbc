// Package xbrl models numeric facts reported in SEC XBRL filings and
// selects the best candidate fact for each fiscal period.
//
// A filing reports the same concept under several measurement windows at
// once (current quarter, year-to-date, prior-year comparatives). The
// selection logic in this package reduces that pile to one fact per
// fiscal period; pkg/core/derive then fills the quarters the filer never
// reported directly.
package xbrl

import "time"

// =============================================================================
// PERIOD MODES
// =============================================================================

// PeriodMode classifies the measurement window of a fact.
type PeriodMode string

const (
	ModeInstant      PeriodMode = "instant"      // point-in-time snapshot (balance sheet)
	ModeQuarter      PeriodMode = "quarter"      // ~3 month flow
	ModeSemester     PeriodMode = "semester"     // ~6 month cumulative flow
	ModeThreeQuarter PeriodMode = "threeQuarter" // ~9 month cumulative flow
	ModeYear         PeriodMode = "year"         // full fiscal year flow
	ModeOther        PeriodMode = "other"        // transition stubs, 53rd weeks, malformed windows
)

// Fiscal period labels as reported in filing DEI.
const (
	PeriodQ1 = "Q1"
	PeriodQ2 = "Q2"
	PeriodQ3 = "Q3"
	PeriodQ4 = "Q4"
	PeriodFY = "FY"
)

// CanonicalPeriods is the processing order for whole-year assembly.
var CanonicalPeriods = []string{PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4, PeriodFY}

// =============================================================================
// CONCEPTS AND FACTS
// =============================================================================

// Balance is the XBRL balance attribute of a concept. Income statement
// and balance sheet items carry debit or credit; cash flow and per-share
// items usually carry none.
type Balance string

const (
	BalanceDebit  Balance = "debit"
	BalanceCredit Balance = "credit"
	BalanceNone   Balance = ""
)

// Concept identifies a reported line item and the accounting metadata
// that drives derivability classification.
type Concept struct {
	Taxonomy string  `json:"taxonomy"` // e.g. "us-gaap"
	Tag      string  `json:"tag"`      // e.g. "EarningsPerShareDiluted"
	Label    string  `json:"label,omitempty"`
	Balance  Balance `json:"balance,omitempty"`
}

// Key returns the qualified concept name, e.g. "us-gaap:Revenues".
func (c Concept) Key() string {
	return c.Taxonomy + ":" + c.Tag
}

// Fact is one reported value with its measurement window and the filing
// context it arrived in. Facts are value records: selection and
// derivation read them and build new records, they never mutate inputs.
type Fact struct {
	Concept      Concept    `json:"concept"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit,omitempty"`
	Decimals     string     `json:"decimals,omitempty"` // filed precision; "" or "INF" = exact
	Start        time.Time  `json:"start,omitempty"`    // zero for instant facts
	End          time.Time  `json:"end"`
	Mode         PeriodMode `json:"mode"`
	AccessionNo  string     `json:"accession_no,omitempty"`
	FiscalYear   int        `json:"fiscal_year"`
	FiscalPeriod string     `json:"fiscal_period"` // DEI focus: Q1, Q2, Q3, Q4, FY
	DocPeriodEnd time.Time  `json:"doc_period_end"`
}

// DEI holds the document-entity information block of a filing.
type DEI struct {
	DocumentType string    `json:"document_type"` // "10-K", "10-Q"
	DocPeriodEnd time.Time `json:"doc_period_end"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod string    `json:"fiscal_period"`
}
