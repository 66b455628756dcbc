package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"edgarq/pkg/core/report"
	"edgarq/pkg/core/store"
)

// Renders one registrant's fiscal-year report from the series store.
// Usage: export TICKER YEAR [md|html] [outfile]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found, using environment variables")
	}

	args := os.Args[1:]
	if len(args) < 2 {
		fmt.Println("Usage: export TICKER YEAR [md|html] [outfile]")
		os.Exit(2)
	}
	ticker := strings.ToUpper(args[0])
	year, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("Error: invalid year %q", args[1])
	}
	format := "md"
	if len(args) > 2 {
		format = strings.ToLower(args[2])
	}

	ctx := context.Background()
	if err := store.InitDB(ctx); err != nil {
		log.Fatalf("Error: database init failed: %v", err)
	}
	defer store.Close()

	pool := store.GetPool()
	entity, err := store.NewFilingsRepo(pool).LookupTicker(ctx, ticker)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	tables, err := store.NewSeriesRepo(pool).ListYear(ctx, entity.CIK, year, true)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if len(tables) == 0 {
		log.Fatalf("Error: no series on record for %s FY%d", ticker, year)
	}

	meta := report.Meta{
		Ticker:     entity.Ticker,
		Name:       entity.Name,
		CIK:        entity.CIK,
		FiscalYear: year,
		Derived:    true,
	}

	var out string
	switch format {
	case "md":
		out = report.Markdown(meta, tables)
	case "html":
		out, err = report.HTML(meta, tables)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		log.Fatalf("Error: unknown format %q", format)
	}

	if len(args) > 3 {
		if err := os.WriteFile(args[3], []byte(out), 0644); err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Printf("Wrote %s report for %s FY%d to %s\n", format, ticker, year, args[3])
		return
	}
	fmt.Print(out)
}
