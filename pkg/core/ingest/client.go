// Package ingest fetches filings from SEC EDGAR and turns their XBRL
// instance documents into facts.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"edgarq/pkg/core/cache"
	"edgarq/pkg/models"
)

const (
	// SEC EDGAR API endpoints
	SECSubmissionsURL = "https://data.sec.gov/submissions/CIK%010d.json"
	SECTickersURL     = "https://www.sec.gov/files/company_tickers.json"
	SECArchivesURL    = "https://www.sec.gov/Archives/edgar/data/%d/%s"

	// Required User-Agent per SEC guidelines
	DefaultUserAgent = "edgarq/1.0 (contact@example.com)"
)

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// SECCompanyInfo represents the top-level company submission response.
type SECCompanyInfo struct {
	CIK     string     `json:"cik"`
	Name    string     `json:"name"`
	Tickers []string   `json:"tickers"`
	Filings SECFilings `json:"filings"`
}

// SECFilings contains recent and older filing lists.
type SECFilings struct {
	Recent SECRecentFilings `json:"recent"`
}

// SECRecentFilings holds arrays of filing attributes (parallel arrays).
type SECRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000320193-24-000123"
	FilingDate      []string `json:"filingDate"`      // e.g., "2024-11-01"
	ReportDate      []string `json:"reportDate"`      // Fiscal period end
	Form            []string `json:"form"`            // "10-K", "10-Q", "8-K"
	PrimaryDocument []string `json:"primaryDocument"` // filename
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// Client handles SEC EDGAR requests with local caching and the polite
// request spacing EDGAR expects.
type Client struct {
	httpClient *http.Client
	cache      *cache.HTTPCache
	userAgent  string
	rateLimit  time.Duration

	mu        sync.Mutex
	lastFetch time.Time

	// Endpoint templates, overridable in tests.
	SubmissionsURL string
	TickersURL     string
	ArchivesURL    string
}

// NewClient creates a new SEC EDGAR client. The cache may be nil, in
// which case every request goes to the network.
func NewClient(c *cache.HTTPCache, userAgent string, rateLimit time.Duration) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:          c,
		userAgent:      userAgent,
		rateLimit:      rateLimit,
		SubmissionsURL: SECSubmissionsURL,
		TickersURL:     SECTickersURL,
		ArchivesURL:    SECArchivesURL,
	}
}

// Fetch returns the body at url, serving from cache when possible.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			return body, nil
		}
	}

	c.throttle()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// SEC requires User-Agent header
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SEC returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Put(url, body); err != nil {
			fmt.Printf("  Warning: failed to cache %s: %v\n", url, err)
		}
	}
	return body, nil
}

// throttle spaces out network requests. Cache hits never wait.
func (c *Client) throttle() {
	if c.rateLimit <= 0 {
		return
	}
	c.mu.Lock()
	now := time.Now()
	wait := c.rateLimit - now.Sub(c.lastFetch)
	if wait < 0 {
		wait = 0
	}
	c.lastFetch = now.Add(wait)
	c.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// ResolveTicker finds the registrant behind a ticker symbol using the
// SEC's ticker mapping file.
func (c *Client) ResolveTicker(ctx context.Context, ticker string) (models.Entity, error) {
	body, err := c.Fetch(ctx, c.TickersURL)
	if err != nil {
		return models.Entity{}, fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	// Response structure: { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "..."}, ... }
	var mapping map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return models.Entity{}, fmt.Errorf("failed to parse ticker mapping: %w", err)
	}

	ticker = strings.ToUpper(ticker)
	for _, entry := range mapping {
		if entry.Ticker == ticker {
			return models.Entity{CIK: entry.CIK, Ticker: ticker, Name: entry.Title}, nil
		}
	}
	return models.Entity{}, fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// RecentFilings retrieves a registrant's filing history, filtered by
// form type and denormalized from the parallel arrays. Pass no forms
// for all of them.
func (c *Client) RecentFilings(ctx context.Context, cik int64, forms ...string) ([]models.Filing, error) {
	body, err := c.Fetch(ctx, fmt.Sprintf(c.SubmissionsURL, cik))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	var info SECCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse SEC response: %w", err)
	}

	formSet := make(map[string]bool)
	for _, f := range forms {
		formSet[f] = true
	}

	recent := info.Filings.Recent
	filings := make([]models.Filing, 0, len(recent.AccessionNumber))
	for i := range recent.AccessionNumber {
		if len(forms) > 0 && !formSet[recent.Form[i]] {
			continue
		}

		filedAt, _ := time.Parse("2006-01-02", recent.FilingDate[i])
		reportDate, _ := time.Parse("2006-01-02", recent.ReportDate[i])

		f := models.Filing{
			AccessionNo:  recent.AccessionNumber[i],
			CIK:          cik,
			Form:         recent.Form[i],
			FiledAt:      filedAt,
			DocPeriodEnd: reportDate,
		}
		if i < len(recent.PrimaryDocument) {
			f.PrimaryDoc = recent.PrimaryDocument[i]
		}
		filings = append(filings, f)
	}
	return filings, nil
}

// CompanyName fetches the registrant's name from the submissions feed.
func (c *Client) CompanyName(ctx context.Context, cik int64) (string, error) {
	body, err := c.Fetch(ctx, fmt.Sprintf(c.SubmissionsURL, cik))
	if err != nil {
		return "", err
	}
	var info SECCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to parse SEC response: %w", err)
	}
	return info.Name, nil
}

// accessionDir is the archive directory name for an accession number.
func accessionDir(accessionNo string) string {
	return strings.ReplaceAll(accessionNo, "-", "")
}
