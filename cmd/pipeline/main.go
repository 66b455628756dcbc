package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"edgarq/pkg/core/cache"
	"edgarq/pkg/core/config"
	"edgarq/pkg/core/ingest"
	"edgarq/pkg/core/pipeline"
	"edgarq/pkg/core/store"
)

// Runs the ingestion pipeline once for the tickers given on the
// command line, or for the configured refresh tickers when none are.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfgPath := os.Getenv("EDGARQ_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/app.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: failed to load %s: %v. Using defaults.", cfgPath, err)
		cfg = config.Default()
	}

	tickers := os.Args[1:]
	if len(tickers) == 0 {
		tickers = cfg.Refresh.Tickers
	}
	if len(tickers) == 0 {
		log.Fatal("Error: no tickers given and none configured.")
	}

	registry, err := config.LoadRegistry(cfg.ConceptsPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		log.Fatalf("Error: database init failed: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
		log.Fatalf("Error: %v", err)
	}

	httpCache, err := cache.Open(cfg.Cache.Path, cfg.CacheTTL())
	if err != nil {
		log.Fatalf("Error: fetch cache init failed: %v", err)
	}
	defer httpCache.Close()

	pool := store.GetPool()
	client := ingest.NewClient(httpCache, cfg.SEC.UserAgent, cfg.RateLimit())
	ingestor := ingest.NewIngestor(client, registry)
	orch := pipeline.NewOrchestrator(client, ingestor,
		store.NewFilingsRepo(pool), store.NewFactsRepo(pool), store.NewSeriesRepo(pool),
		registry, cfg.Policy())

	failed := 0
	for _, ticker := range tickers {
		summary, err := orch.RunForTicker(ctx, ticker)
		if err != nil {
			log.Printf("Error: pipeline failed for %s: %v", ticker, err)
			failed++
			continue
		}
		fmt.Printf("%s: run %s stored %d facts across %d filings, built %d tables\n",
			summary.Ticker, summary.RunID, summary.FactsStored, summary.FilingsProcessed, summary.TablesBuilt)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
