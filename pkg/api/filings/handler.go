// Package filings provides HTTP API handlers for filing history and
// on-demand pipeline runs.
package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edgarq/pkg/models"
)

// EntityStore resolves tickers and CIKs to tracked registrants.
type EntityStore interface {
	LookupTicker(ctx context.Context, ticker string) (models.Entity, error)
	GetEntity(ctx context.Context, cik int64) (models.Entity, error)
}

// FilingStore lists a registrant's recorded filings.
type FilingStore interface {
	ListByCIK(ctx context.Context, cik int64) ([]models.Filing, error)
}

// Runner executes the ingestion pipeline for a ticker.
type Runner interface {
	RunForTicker(ctx context.Context, ticker string) (models.RunSummary, error)
}

// ingestTimeout caps one on-demand pipeline run. A full backfill
// fetches every filing at the SEC rate limit.
const ingestTimeout = 10 * time.Minute

var (
	entities EntityStore
	filings  FilingStore
	runner   Runner
)

// InitHandler wires the handlers to their stores and pipeline.
func InitHandler(e EntityStore, f FilingStore, run Runner) {
	entities = e
	filings = f
	runner = run
}

// FilingsResponse lists a registrant's filings on record.
type FilingsResponse struct {
	Ticker  string          `json:"ticker"`
	CIK     int64           `json:"cik"`
	Filings []models.Filing `json:"filings"`
}

// HandleListFilings handles GET /api/filings?ticker=AAPL (or
// cik=320193).
func HandleListFilings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	var entity models.Entity
	var err error
	switch {
	case q.Get("cik") != "":
		cik, perr := strconv.ParseInt(q.Get("cik"), 10, 64)
		if perr != nil {
			http.Error(w, fmt.Sprintf("Invalid CIK %q", q.Get("cik")), http.StatusBadRequest)
			return
		}
		entity, err = entities.GetEntity(r.Context(), cik)
		if err != nil {
			http.Error(w, fmt.Sprintf("CIK not found: %d", cik), http.StatusNotFound)
			return
		}
	case q.Get("ticker") != "":
		entity, err = entities.LookupTicker(r.Context(), q.Get("ticker"))
		if err != nil {
			http.Error(w, fmt.Sprintf("Ticker not found: %s", q.Get("ticker")), http.StatusNotFound)
			return
		}
	default:
		http.Error(w, "ticker or cik parameter required", http.StatusBadRequest)
		return
	}

	list, err := filings.ListByCIK(r.Context(), entity.CIK)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list filings: %v", err), http.StatusInternalServerError)
		return
	}
	log.Printf("[Handler] filings %s: %d on record", entity.Ticker, len(list))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FilingsResponse{
		Ticker:  entity.Ticker,
		CIK:     entity.CIK,
		Filings: list,
	})
}

// IngestRequest names the registrant to run the pipeline for, by
// ticker or by already-tracked CIK.
type IngestRequest struct {
	Ticker string `json:"ticker"`
	CIK    int64  `json:"cik,omitempty"`
}

// HandleIngest handles POST /api/ingest. The run is synchronous: the
// response carries the completed run's summary.
func HandleIngest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" && req.CIK != 0 {
		entity, err := entities.GetEntity(r.Context(), req.CIK)
		if err != nil {
			http.Error(w, fmt.Sprintf("CIK not tracked yet: %d. Ingest by ticker first.", req.CIK), http.StatusNotFound)
			return
		}
		ticker = entity.Ticker
	}
	if ticker == "" {
		http.Error(w, "ticker or cik required", http.StatusBadRequest)
		return
	}

	log.Printf("[Handler] ingest %s", ticker)
	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	summary, err := runner.RunForTicker(ctx, ticker)
	if err != nil {
		http.Error(w, fmt.Sprintf("Pipeline run failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
