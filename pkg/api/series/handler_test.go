package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edgarq/pkg/core/derive"
	"edgarq/pkg/core/xbrl"
	"edgarq/pkg/models"
)

type fakeEntities struct {
	known map[string]models.Entity
}

func (f *fakeEntities) LookupTicker(_ context.Context, ticker string) (models.Entity, error) {
	e, ok := f.known[strings.ToUpper(ticker)]
	if !ok {
		return models.Entity{}, errors.New("unknown ticker")
	}
	return e, nil
}

func (f *fakeEntities) GetEntity(_ context.Context, cik int64) (models.Entity, error) {
	for _, e := range f.known {
		if e.CIK == cik {
			return e, nil
		}
	}
	return models.Entity{}, errors.New("unknown CIK")
}

type fakeFactYears struct {
	years []int
}

func (f *fakeFactYears) Years(_ context.Context, _ int64) ([]int, error) {
	return f.years, nil
}

type fakeSeriesStore struct {
	tables map[string]derive.Table
}

func tableKey(taxonomy, tag string, year int, derived bool) string {
	return fmt.Sprintf("%s:%s|%d|%t", taxonomy, tag, year, derived)
}

func (f *fakeSeriesStore) Get(_ context.Context, _ int64, taxonomy, tag string, year int, derived bool) (*derive.Table, error) {
	t, ok := f.tables[tableKey(taxonomy, tag, year, derived)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeSeriesStore) ListYear(_ context.Context, _ int64, year int, derived bool) ([]derive.Table, error) {
	var tables []derive.Table
	for key, t := range f.tables {
		if strings.HasSuffix(key, fmt.Sprintf("|%d|%t", year, derived)) {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

func revenueTable(derived bool) derive.Table {
	t := derive.Table{
		Concept:    xbrl.Concept{Taxonomy: "us-gaap", Tag: "Revenues", Label: "Revenues", Balance: xbrl.BalanceCredit},
		FiscalYear: 2024,
		Class:      derive.Derivable,
		Decimals:   "1",
		Cells: map[string]derive.Cell{
			"Q1": {Value: 90, Mode: xbrl.ModeQuarter, Source: derive.SourceDirect},
			"FY": {Value: 400, Mode: xbrl.ModeYear, Source: derive.SourceDirect},
		},
	}
	if derived {
		t.Cells["Q4"] = derive.Cell{Value: 110, Mode: xbrl.ModeQuarter, Source: derive.SourceDerived, Formula: "FY-threeQuarter"}
	}
	return t
}

func setup() {
	InitHandler(
		&fakeEntities{known: map[string]models.Entity{
			"AAPL": {CIK: 320193, Ticker: "AAPL", Name: "Apple Inc."},
		}},
		&fakeFactYears{years: []int{2023, 2024}},
		&fakeSeriesStore{tables: map[string]derive.Table{
			tableKey("us-gaap", "Revenues", 2024, true):  revenueTable(true),
			tableKey("us-gaap", "Revenues", 2024, false): revenueTable(false),
		}},
	)
}

func get(t *testing.T, handler http.HandlerFunc, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleGetSeries(t *testing.T) {
	setup()

	w := get(t, HandleGetSeries, "/api/series?ticker=aapl&tag=Revenues&year=2024")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var table derive.Table
	if err := json.Unmarshal(w.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if table.Concept.Tag != "Revenues" || table.FiscalYear != 2024 {
		t.Errorf("wrong table: %+v", table.Concept)
	}
	if table.Cells["Q4"].Formula != "FY-threeQuarter" {
		t.Errorf("derived cell missing: %+v", table.Cells)
	}
}

func TestHandleGetSeriesDefaults(t *testing.T) {
	setup()

	// No year: the latest year on record is served. Default mode is derived.
	w := get(t, HandleGetSeries, "/api/series?ticker=AAPL&tag=Revenues")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var table derive.Table
	if err := json.Unmarshal(w.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if table.FiscalYear != 2024 {
		t.Errorf("FiscalYear = %d, want latest on record", table.FiscalYear)
	}
	if _, ok := table.Cells["Q4"]; !ok {
		t.Error("default mode did not serve the derived table")
	}
}

func TestHandleGetSeriesByCIK(t *testing.T) {
	setup()

	w := get(t, HandleGetSeries, "/api/series?cik=320193&tag=Revenues&year=2024")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var table derive.Table
	if err := json.Unmarshal(w.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if table.Concept.Tag != "Revenues" || table.FiscalYear != 2024 {
		t.Errorf("wrong table: %+v", table.Concept)
	}
}

func TestHandleGetSeriesRawMode(t *testing.T) {
	setup()

	w := get(t, HandleGetSeries, "/api/series?ticker=AAPL&tag=Revenues&year=2024&mode=raw")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var table derive.Table
	if err := json.Unmarshal(w.Body.Bytes(), &table); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := table.Cells["Q4"]; ok {
		t.Error("raw mode served a derived cell")
	}
}

func TestHandleGetSeriesErrors(t *testing.T) {
	setup()

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"missing registrant", "/api/series?tag=Revenues", http.StatusBadRequest},
		{"unknown ticker", "/api/series?ticker=ZZZZ&tag=Revenues", http.StatusNotFound},
		{"bad cik", "/api/series?cik=notanumber&tag=Revenues", http.StatusBadRequest},
		{"unknown cik", "/api/series?cik=999&tag=Revenues", http.StatusNotFound},
		{"missing tag", "/api/series?ticker=AAPL", http.StatusBadRequest},
		{"unknown tag", "/api/series?ticker=AAPL&tag=Goodwill&year=2024", http.StatusNotFound},
		{"bad year", "/api/series?ticker=AAPL&tag=Revenues&year=abc", http.StatusBadRequest},
		{"bad mode", "/api/series?ticker=AAPL&tag=Revenues&mode=weird", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(t, HandleGetSeries, tc.url)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}

	req := httptest.NewRequest("POST", "/api/series", nil)
	w := httptest.NewRecorder()
	HandleGetSeries(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", w.Code)
	}
}

func TestHandleGetReport(t *testing.T) {
	setup()

	w := get(t, HandleGetReport, "/api/series/report?ticker=AAPL&year=2024")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "| Concept | Q1 | Q2 | 6M | Q3 | 9M | Q4 | FY |") {
		t.Errorf("markdown header missing:\n%s", body)
	}
	if !strings.Contains(body, "# Apple Inc. FY2024") {
		t.Errorf("title missing:\n%s", body)
	}
}

func TestHandleGetReportHTML(t *testing.T) {
	setup()

	w := get(t, HandleGetReport, "/api/series/report?ticker=AAPL&year=2024&format=html")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "<table>") {
		t.Errorf("html table missing:\n%s", w.Body.String())
	}

	w = get(t, HandleGetReport, "/api/series/report?ticker=AAPL&year=2024&format=pdf")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", w.Code)
	}
}

func TestHandleGetReportEmpty(t *testing.T) {
	setup()

	w := get(t, HandleGetReport, "/api/series/report?ticker=AAPL&year=2020")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
