// Package refresh re-runs the filing pipeline for tracked tickers on
// a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"edgarq/pkg/models"
)

// Runner executes one refresh pass for a ticker.
type Runner interface {
	Refresh(ctx context.Context, ticker string) (models.RunSummary, error)
}

// Scheduler manages the periodic refresh task.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	tickers []string
	ctx     context.Context
}

// NewScheduler creates a scheduler over the given tickers.
func NewScheduler(ctx context.Context, runner Runner, tickers []string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		tickers: tickers,
		ctx:     ctx,
	}
}

// Register installs the refresh task. The schedule uses the standard
// five-field cron format.
func (s *Scheduler) Register(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.refreshAll); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[INFO] refresh scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[INFO] refresh scheduler stopped")
}

// RunNow executes the refresh task immediately (for manual trigger).
func (s *Scheduler) RunNow() {
	s.refreshAll()
}

func (s *Scheduler) refreshAll() {
	log.Println("[INFO] running scheduled refresh")
	for _, ticker := range s.tickers {
		summary, err := s.runner.Refresh(s.ctx, ticker)
		if err != nil {
			log.Printf("[ERROR] refresh %s: %v", ticker, err)
			continue
		}
		log.Printf("[INFO] refreshed %s: %d/%d filings processed, %d facts, %d tables (run %s)",
			ticker, summary.FilingsProcessed, summary.FilingsSeen,
			summary.FactsStored, summary.TablesBuilt, summary.RunID)
	}
}
