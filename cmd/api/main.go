package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"edgarq/pkg/api/concepts"
	"edgarq/pkg/api/filings"
	"edgarq/pkg/api/series"
	"edgarq/pkg/core/cache"
	"edgarq/pkg/core/config"
	"edgarq/pkg/core/ingest"
	"edgarq/pkg/core/pipeline"
	"edgarq/pkg/core/refresh"
	"edgarq/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfgPath := os.Getenv("EDGARQ_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/app.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[WARNING] Failed to load %s: %v\n", cfgPath, err)
		fmt.Println("  Falling back to built-in defaults")
		cfg = config.Default()
	}

	registry, err := config.LoadRegistry(cfg.ConceptsPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[CONFIG] Tracking %d concepts\n", len(registry.Tracked()))

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Database init failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	httpCache, err := cache.Open(cfg.Cache.Path, cfg.CacheTTL())
	if err != nil {
		fmt.Printf("[FATAL] Fetch cache init failed: %v\n", err)
		os.Exit(1)
	}
	defer httpCache.Close()

	pool := store.GetPool()
	filingsRepo := store.NewFilingsRepo(pool)
	factsRepo := store.NewFactsRepo(pool)
	seriesRepo := store.NewSeriesRepo(pool)

	client := ingest.NewClient(httpCache, cfg.SEC.UserAgent, cfg.RateLimit())
	ingestor := ingest.NewIngestor(client, registry)
	orch := pipeline.NewOrchestrator(client, ingestor, filingsRepo, factsRepo, seriesRepo, registry, cfg.Policy())

	// Series endpoints
	series.InitHandler(filingsRepo, factsRepo, seriesRepo)
	http.HandleFunc("/api/series", series.HandleGetSeries)
	http.HandleFunc("/api/series/report", series.HandleGetReport)

	// Filing endpoints
	filings.InitHandler(filingsRepo, filingsRepo, orch)
	http.HandleFunc("/api/filings", filings.HandleListFilings)
	http.HandleFunc("/api/ingest", filings.HandleIngest)

	// Registry endpoint
	conceptsHandler := concepts.NewHandler(registry)
	http.HandleFunc("/api/concepts", conceptsHandler.HandleList)

	// Scheduled refresh for the configured tickers
	if len(cfg.Refresh.Tickers) > 0 {
		sched := refresh.NewScheduler(ctx, orch, cfg.Refresh.Tickers)
		if err := sched.Register(cfg.Refresh.Schedule); err != nil {
			fmt.Printf("[WARNING] %v\n", err)
		} else {
			sched.Start()
			defer sched.Stop()
		}
	}

	fmt.Printf("API server starting on %s...\n", cfg.ListenAddr)
	fmt.Println("  - GET  /api/series")
	fmt.Println("  - GET  /api/series/report")
	fmt.Println("  - GET  /api/filings")
	fmt.Println("  - POST /api/ingest")
	fmt.Println("  - GET  /api/concepts")

	if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
