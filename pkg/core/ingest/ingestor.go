package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"edgarq/pkg/core/config"
	"edgarq/pkg/core/xbrl"
	"edgarq/pkg/models"
)

// Ingestor turns one filing into registered, enriched facts.
type Ingestor struct {
	client   *Client
	registry *config.Registry
}

// NewIngestor creates a new ingestor over the given client and
// concept registry.
func NewIngestor(client *Client, registry *config.Registry) *Ingestor {
	return &Ingestor{client: client, registry: registry}
}

// ProcessFiling downloads and parses a filing's instance document and
// returns its tracked facts, enriched from the registry and stamped
// with the accession number. Filings without a usable DEI block are
// rejected: facts cannot be attributed to a fiscal period without one.
func (ing *Ingestor) ProcessFiling(ctx context.Context, f models.Filing) (*xbrl.Instance, error) {
	body, err := ing.client.FetchInstance(ctx, f.CIK, f.AccessionNo)
	if err != nil {
		return nil, err
	}

	inst, err := xbrl.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.AccessionNo, err)
	}

	if inst.DEI.FiscalPeriod == "" || inst.DEI.DocPeriodEnd.IsZero() {
		return nil, fmt.Errorf("filing %s has no usable DEI block", f.AccessionNo)
	}
	if inst.DEI.FiscalYear == 0 {
		inst.DEI.FiscalYear = inst.DEI.DocPeriodEnd.Year()
		log.Printf("[Ingest] %s: fiscal year focus missing, using document year %d",
			f.AccessionNo, inst.DEI.FiscalYear)
	}

	var kept []xbrl.Fact
	for _, fact := range inst.Facts {
		if !ing.registry.Tracks(fact.Concept.Taxonomy, fact.Concept.Tag) {
			continue
		}
		fact.Concept = ing.registry.Enrich(fact.Concept)
		fact.AccessionNo = f.AccessionNo
		fact.FiscalYear = inst.DEI.FiscalYear
		kept = append(kept, fact)
	}
	inst.Facts = kept
	return inst, nil
}
