// Package pipeline drives the end-to-end flow for one registrant:
// list filings, extract and select facts, build quarter tables.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"edgarq/pkg/core/config"
	"edgarq/pkg/core/derive"
	"edgarq/pkg/core/xbrl"
	"edgarq/pkg/models"
)

// FilingSource lists a registrant's filing history from EDGAR.
type FilingSource interface {
	ResolveTicker(ctx context.Context, ticker string) (models.Entity, error)
	RecentFilings(ctx context.Context, cik int64, forms ...string) ([]models.Filing, error)
}

// InstanceLoader fetches one filing's instance document and returns
// its tracked facts.
type InstanceLoader interface {
	ProcessFiling(ctx context.Context, f models.Filing) (*xbrl.Instance, error)
}

// FilingStore persists registrants and per-filing processing state.
type FilingStore interface {
	SaveEntity(ctx context.Context, e models.Entity) error
	Upsert(ctx context.Context, f models.Filing) error
	MarkProcessed(ctx context.Context, accessionNo string) error
	IsProcessed(ctx context.Context, accessionNo string) bool
}

// FactStore persists the selected fact per concept and fiscal period.
type FactStore interface {
	Upsert(ctx context.Context, cik int64, f xbrl.Fact) error
	PastPeriods(ctx context.Context, cik int64, taxonomy, tag string, fiscalYear int) (xbrl.Past, error)
	ConceptFacts(ctx context.Context, cik int64, taxonomy, tag string, fiscalYear int) ([]xbrl.Fact, error)
	Concepts(ctx context.Context, cik int64, fiscalYear int) ([]xbrl.Concept, error)
}

// SeriesStore persists built quarter tables.
type SeriesStore interface {
	Save(ctx context.Context, cik int64, t derive.Table, derived bool) error
}

// Orchestrator manages the end-to-end data flow:
// EDGAR submissions -> instance extraction -> fact selection -> quarter tables.
type Orchestrator struct {
	source   FilingSource
	loader   InstanceLoader
	filings  FilingStore
	facts    FactStore
	series   SeriesStore
	registry *config.Registry
	policy   xbrl.Policy
}

// NewOrchestrator creates an orchestrator with all required dependencies.
func NewOrchestrator(source FilingSource, loader InstanceLoader,
	filings FilingStore, facts FactStore, series SeriesStore,
	registry *config.Registry, policy xbrl.Policy) *Orchestrator {
	return &Orchestrator{
		source:   source,
		loader:   loader,
		filings:  filings,
		facts:    facts,
		series:   series,
		registry: registry,
		policy:   policy,
	}
}

// RunForTicker executes the full pipeline for a single registrant.
// Filings are processed oldest first so that later quarters see the
// periods already on record when their window is ambiguous.
func (o *Orchestrator) RunForTicker(ctx context.Context, ticker string) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     uuid.NewString(),
		Ticker:    ticker,
		StartedAt: time.Now(),
	}
	fmt.Printf("Starting pipeline run %s for %s...\n", summary.RunID, ticker)

	entity, err := o.source.ResolveTicker(ctx, ticker)
	if err != nil {
		return summary, fmt.Errorf("resolve ticker %s: %w", ticker, err)
	}
	summary.CIK = entity.CIK
	if err := o.filings.SaveEntity(ctx, entity); err != nil {
		return summary, fmt.Errorf("save entity: %w", err)
	}

	filings, err := o.source.RecentFilings(ctx, entity.CIK, "10-K", "10-Q")
	if err != nil {
		return summary, fmt.Errorf("list filings: %w", err)
	}
	summary.FilingsSeen = len(filings)

	sort.SliceStable(filings, func(i, j int) bool {
		if filings[i].FiledAt.Equal(filings[j].FiledAt) {
			return filings[i].AccessionNo < filings[j].AccessionNo
		}
		return filings[i].FiledAt.Before(filings[j].FiledAt)
	})

	yearsTouched := make(map[int]bool)
	for _, f := range filings {
		if err := o.filings.Upsert(ctx, f); err != nil {
			return summary, fmt.Errorf("save filing %s: %w", f.AccessionNo, err)
		}
		if o.filings.IsProcessed(ctx, f.AccessionNo) {
			fmt.Printf("Skipping %s (already processed)\n", f.AccessionNo)
			continue
		}

		inst, err := o.loader.ProcessFiling(ctx, f)
		if err != nil {
			fmt.Printf("  Warning: failed to extract %s: %v. Skipping.\n", f.AccessionNo, err)
			continue
		}
		fmt.Printf("Processing %s (%s FY%d, %d tracked facts)...\n",
			f.AccessionNo, inst.DEI.FiscalPeriod, inst.DEI.FiscalYear, len(inst.Facts))

		stored, err := o.storeInstance(ctx, entity.CIK, inst)
		if err != nil {
			return summary, fmt.Errorf("store facts for %s: %w", f.AccessionNo, err)
		}
		if err := o.filings.MarkProcessed(ctx, f.AccessionNo); err != nil {
			return summary, fmt.Errorf("mark filing processed: %w", err)
		}

		summary.FilingsProcessed++
		summary.FactsStored += stored
		yearsTouched[inst.DEI.FiscalYear] = true
	}

	var years []int
	for year := range yearsTouched {
		years = append(years, year)
	}
	sort.Ints(years)

	for _, year := range years {
		built, err := o.buildSeries(ctx, entity.CIK, year)
		if err != nil {
			return summary, fmt.Errorf("build series for FY%d: %w", year, err)
		}
		summary.TablesBuilt += built
	}

	summary.FinishedAt = time.Now()
	fmt.Printf("Pipeline completed for %s in %v: %d/%d filings, %d facts, %d tables\n",
		ticker, time.Since(summary.StartedAt),
		summary.FilingsProcessed, summary.FilingsSeen,
		summary.FactsStored, summary.TablesBuilt)
	return summary, nil
}

// Refresh re-runs the full pipeline for a ticker. It satisfies the
// refresh scheduler's Runner interface.
func (o *Orchestrator) Refresh(ctx context.Context, ticker string) (models.RunSummary, error) {
	return o.RunForTicker(ctx, ticker)
}

// storeInstance selects one fact per concept for the filing's fiscal
// period and writes it to the fact store.
func (o *Orchestrator) storeInstance(ctx context.Context, cik int64, inst *xbrl.Instance) (int, error) {
	label := inst.DEI.FiscalPeriod
	stored := 0
	for _, g := range groupByConcept(inst.Facts) {
		past, err := o.facts.PastPeriods(ctx, cik, g.concept.Taxonomy, g.concept.Tag, inst.DEI.FiscalYear)
		if err != nil {
			return stored, err
		}

		pick := xbrl.ForPeriod(label, g.facts, past, inst.DEI.DocPeriodEnd, o.policy)
		if pick == nil {
			continue
		}
		if err := o.facts.Upsert(ctx, cik, *pick); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// buildSeries rebuilds the as-filed and derived tables for every
// concept with facts on record for the fiscal year.
func (o *Orchestrator) buildSeries(ctx context.Context, cik int64, year int) (int, error) {
	concepts, err := o.facts.Concepts(ctx, cik, year)
	if err != nil {
		return 0, err
	}

	built := 0
	for _, c := range concepts {
		facts, err := o.facts.ConceptFacts(ctx, cik, c.Taxonomy, c.Tag, year)
		if err != nil {
			return built, err
		}
		if len(facts) == 0 {
			continue
		}

		// Stored rows carry neither label nor balance attribute.
		for i := range facts {
			facts[i].Concept = o.registry.Enrich(facts[i].Concept)
		}

		opts := derive.Options{
			Policy:   o.policy,
			Override: o.registry.Override(c.Taxonomy, c.Tag),
		}
		raw := derive.BuildTable(facts, opts)
		if err := o.series.Save(ctx, cik, raw, false); err != nil {
			return built, err
		}

		opts.Derive = true
		derived := derive.BuildTable(facts, opts)
		if err := o.series.Save(ctx, cik, derived, true); err != nil {
			return built, err
		}
		built++
	}
	return built, nil
}

type conceptGroup struct {
	concept xbrl.Concept
	facts   []xbrl.Fact
}

// groupByConcept splits facts by concept, preserving first-seen order.
func groupByConcept(facts []xbrl.Fact) []conceptGroup {
	index := make(map[string]int)
	var groups []conceptGroup
	for _, f := range facts {
		key := f.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, conceptGroup{concept: f.Concept})
		}
		groups[i].facts = append(groups[i].facts, f)
	}
	return groups
}
