// Package series provides HTTP API handlers for built quarter tables
// and rendered reports.
package series

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"edgarq/pkg/core/derive"
	"edgarq/pkg/core/report"
	"edgarq/pkg/models"
)

// EntityStore resolves tickers and CIKs to tracked registrants.
type EntityStore interface {
	LookupTicker(ctx context.Context, ticker string) (models.Entity, error)
	GetEntity(ctx context.Context, cik int64) (models.Entity, error)
}

// FactStore exposes the fiscal years with facts on record.
type FactStore interface {
	Years(ctx context.Context, cik int64) ([]int, error)
}

// SeriesStore loads built quarter tables.
type SeriesStore interface {
	Get(ctx context.Context, cik int64, taxonomy, tag string, fiscalYear int, derived bool) (*derive.Table, error)
	ListYear(ctx context.Context, cik int64, fiscalYear int, derived bool) ([]derive.Table, error)
}

var (
	entities EntityStore
	facts    FactStore
	series   SeriesStore
)

// InitHandler wires the handlers to their stores.
func InitHandler(e EntityStore, f FactStore, s SeriesStore) {
	entities = e
	facts = f
	series = s
}

// HandleGetSeries handles GET /api/series?ticker=AAPL&tag=Revenues
// The registrant may also be addressed as cik=320193. Optional:
// taxonomy (default us-gaap), year (default latest on record),
// mode=raw|derived (default derived).
func HandleGetSeries(w http.ResponseWriter, r *http.Request) {
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

	entity, year, derived, ok := resolveQuery(w, r)
	if !ok {
		return
	}

	tag := r.URL.Query().Get("tag")
	if tag == "" {
		http.Error(w, "tag parameter required", http.StatusBadRequest)
		return
	}
	taxonomy := r.URL.Query().Get("taxonomy")
	if taxonomy == "" {
		taxonomy = "us-gaap"
	}

	log.Printf("[Handler] series %s %s:%s FY%d derived=%t", entity.Ticker, taxonomy, tag, year, derived)

	table, err := series.Get(r.Context(), entity.CIK, taxonomy, tag, year, derived)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load series: %v", err), http.StatusInternalServerError)
		return
	}
	if table == nil {
		http.Error(w, fmt.Sprintf("No series on record for %s:%s FY%d", taxonomy, tag, year), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(table)
}

// HandleGetReport handles GET /api/series/report?ticker=AAPL (or
// cik=320193). Optional: year, mode=raw|derived, format=md|html
// (default md).
func HandleGetReport(w http.ResponseWriter, r *http.Request) {
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

	entity, year, derived, ok := resolveQuery(w, r)
	if !ok {
		return
	}

	tables, err := series.ListYear(r.Context(), entity.CIK, year, derived)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load series: %v", err), http.StatusInternalServerError)
		return
	}
	if len(tables) == 0 {
		http.Error(w, fmt.Sprintf("No series on record for %s FY%d", entity.Ticker, year), http.StatusNotFound)
		return
	}

	meta := report.Meta{
		Ticker:     entity.Ticker,
		Name:       entity.Name,
		CIK:        entity.CIK,
		FiscalYear: year,
		Derived:    derived,
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	log.Printf("[Handler] report %s FY%d derived=%t format=%s", entity.Ticker, year, derived, format)

	switch format {
	case "", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, report.Markdown(meta, tables))
	case "html":
		page, err := report.HTML(meta, tables)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to render report: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	default:
		http.Error(w, fmt.Sprintf("Unknown format %q", format), http.StatusBadRequest)
	}
}

// resolveQuery pulls the registrant, year, and mode parameters shared
// by the series endpoints. The registrant comes from cik or ticker.
// On failure it writes the response itself.
func resolveQuery(w http.ResponseWriter, r *http.Request) (models.Entity, int, bool, bool) {
	q := r.URL.Query()

	var entity models.Entity
	var err error
	switch {
	case q.Get("cik") != "":
		cik, perr := strconv.ParseInt(q.Get("cik"), 10, 64)
		if perr != nil {
			http.Error(w, fmt.Sprintf("Invalid CIK %q", q.Get("cik")), http.StatusBadRequest)
			return models.Entity{}, 0, false, false
		}
		entity, err = entities.GetEntity(r.Context(), cik)
		if err != nil {
			http.Error(w, fmt.Sprintf("CIK not found: %d", cik), http.StatusNotFound)
			return models.Entity{}, 0, false, false
		}
	case q.Get("ticker") != "":
		entity, err = entities.LookupTicker(r.Context(), q.Get("ticker"))
		if err != nil {
			http.Error(w, fmt.Sprintf("Ticker not found: %s", q.Get("ticker")), http.StatusNotFound)
			return models.Entity{}, 0, false, false
		}
	default:
		http.Error(w, "ticker or cik parameter required", http.StatusBadRequest)
		return models.Entity{}, 0, false, false
	}

	derived := true
	switch strings.ToLower(q.Get("mode")) {
	case "", "derived":
	case "raw":
		derived = false
	default:
		http.Error(w, fmt.Sprintf("Unknown mode %q", q.Get("mode")), http.StatusBadRequest)
		return models.Entity{}, 0, false, false
	}

	year := 0
	if ys := q.Get("year"); ys != "" {
		year, err = strconv.Atoi(ys)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid year %q", ys), http.StatusBadRequest)
			return models.Entity{}, 0, false, false
		}
	}
	if year == 0 {
		years, err := facts.Years(r.Context(), entity.CIK)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to list years: %v", err), http.StatusInternalServerError)
			return models.Entity{}, 0, false, false
		}
		if len(years) == 0 {
			http.Error(w, fmt.Sprintf("No facts on record for %s", entity.Ticker), http.StatusNotFound)
			return models.Entity{}, 0, false, false
		}
		year = years[len(years)-1]
	}

	return entity, year, derived, true
}
