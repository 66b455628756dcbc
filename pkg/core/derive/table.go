package derive

import (
	"time"

	"edgarq/pkg/core/xbrl"
)

// =============================================================================
// QUARTER TABLE
// =============================================================================

// Source distinguishes filed values from synthesized ones.
type Source string

const (
	SourceDirect  Source = "direct"
	SourceDerived Source = "derived"
	SourceCopied  Source = "copied"
)

// Cell is one period's value for a concept, with enough provenance to
// explain where it came from.
type Cell struct {
	Value       float64         `json:"value"`
	Mode        xbrl.PeriodMode `json:"mode"`
	Source      Source          `json:"source"`
	Formula     string          `json:"formula,omitempty"`
	CopiedFrom  string          `json:"copiedFrom,omitempty"`
	AccessionNo string          `json:"accessionNo,omitempty"`
}

// Provenance renders the cell's origin in one token: "direct",
// "derived:semester-Q1", "copied:FY".
func (c Cell) Provenance() string {
	switch c.Source {
	case SourceDerived:
		return "derived:" + c.Formula
	case SourceCopied:
		return "copied:" + c.CopiedFrom
	}
	return "direct"
}

// Table holds one concept's values for one fiscal year, keyed by
// fiscal period label. Cumulative keeps the as-filed six- and
// nine-month windows even after their labels are rewritten with
// derived quarters.
type Table struct {
	Concept    xbrl.Concept    `json:"concept"`
	FiscalYear int             `json:"fiscalYear"`
	Class      Class           `json:"class"`
	Decimals   string          `json:"decimals,omitempty"`
	Cells      map[string]Cell `json:"cells"`
	Cumulative map[string]Cell `json:"cumulative,omitempty"`
}

// Options controls table construction.
type Options struct {
	// Derive fills quarter gaps by subtraction or copying. Off, the
	// table holds only as-filed values.
	Derive   bool
	Policy   xbrl.Policy
	Override Override
}

// BuildTable selects the best fact per fiscal period and, when asked,
// derives the missing quarters. All facts must belong to one concept
// and one fiscal year; the caller groups them. Facts from skipped or
// unknown period labels are ignored. Missing periods stay missing:
// derivation never invents a value it has no inputs for.
func BuildTable(facts []xbrl.Fact, opts Options) Table {
	t := Table{
		Cells:      make(map[string]Cell),
		Cumulative: make(map[string]Cell),
	}
	if len(facts) == 0 {
		return t
	}
	t.Concept = facts[0].Concept
	t.FiscalYear = facts[0].FiscalYear
	t.Class = Classify(t.Concept, opts.Override)

	groups := make(map[string][]xbrl.Fact)
	for _, f := range facts {
		groups[f.FiscalPeriod] = append(groups[f.FiscalPeriod], f)
	}

	// Periods are processed in filing order so each selection sees
	// which windows the earlier filings actually carried.
	past := xbrl.Past{}
	for _, label := range xbrl.CanonicalPeriods {
		group := groups[label]
		if len(group) == 0 {
			continue
		}
		pick := xbrl.ForPeriod(label, group, past, latestDocEnd(group), opts.Policy)
		if pick == nil {
			continue
		}
		past[label] = pick.Mode
		if t.Decimals == "" {
			t.Decimals = pick.Decimals
		}

		cell := Cell{
			Value:       pick.Value,
			Mode:        pick.Mode,
			Source:      SourceDirect,
			AccessionNo: pick.AccessionNo,
		}
		t.Cells[label] = cell
		switch pick.Mode {
		case xbrl.ModeSemester:
			t.Cumulative["semester"] = cell
		case xbrl.ModeThreeQuarter:
			t.Cumulative["threeQuarter"] = cell
		}
	}

	if opts.Derive {
		deriveQuarters(&t)
	}
	return t
}

// deriveQuarters rewrites cumulative cells as discrete quarters and
// synthesizes Q4 from the annual total. Later steps see earlier
// results, so a derived Q2 feeds the Q3 and Q4 fallbacks.
func deriveQuarters(t *Table) {
	fy, hasFY := t.Cells[xbrl.PeriodFY]

	// Point-in-time concepts: the year-end balance is the Q4 balance.
	if hasFY && fy.Mode == xbrl.ModeInstant {
		if _, ok := t.Cells[xbrl.PeriodQ4]; !ok {
			t.Cells[xbrl.PeriodQ4] = copiedCell(fy, xbrl.PeriodFY)
		}
		return
	}

	if q2, ok := t.Cells[xbrl.PeriodQ2]; ok && q2.Mode == xbrl.ModeSemester {
		if t.Class == CopyOnly {
			t.Cells[xbrl.PeriodQ2] = copiedCell(q2, "semester")
		} else if q1, ok := quarterValue(t, xbrl.PeriodQ1); ok {
			t.Cells[xbrl.PeriodQ2] = derivedCell(q2.Value-q1, t.Decimals, "semester-Q1")
		}
	}

	if q3, ok := t.Cells[xbrl.PeriodQ3]; ok && q3.Mode == xbrl.ModeThreeQuarter {
		if t.Class == CopyOnly {
			t.Cells[xbrl.PeriodQ3] = copiedCell(q3, "threeQuarter")
		} else if sem, ok := t.Cumulative["semester"]; ok {
			t.Cells[xbrl.PeriodQ3] = derivedCell(q3.Value-sem.Value, t.Decimals, "threeQuarter-semester")
		} else {
			q1, ok1 := quarterValue(t, xbrl.PeriodQ1)
			q2, ok2 := quarterValue(t, xbrl.PeriodQ2)
			if ok1 && ok2 {
				t.Cells[xbrl.PeriodQ3] = derivedCell(q3.Value-q1-q2, t.Decimals, "threeQuarter-Q1-Q2")
			}
		}
	}

	if hasFY {
		if _, ok := t.Cells[xbrl.PeriodQ4]; ok {
			return
		}
		if t.Class == CopyOnly {
			t.Cells[xbrl.PeriodQ4] = copiedCell(fy, xbrl.PeriodFY)
			return
		}
		if tq, ok := t.Cumulative["threeQuarter"]; ok {
			t.Cells[xbrl.PeriodQ4] = derivedCell(fy.Value-tq.Value, t.Decimals, "FY-threeQuarter")
			return
		}
		q1, ok1 := quarterValue(t, xbrl.PeriodQ1)
		q2, ok2 := quarterValue(t, xbrl.PeriodQ2)
		q3, ok3 := quarterValue(t, xbrl.PeriodQ3)
		if ok1 && ok2 && ok3 {
			t.Cells[xbrl.PeriodQ4] = derivedCell(fy.Value-q1-q2-q3, t.Decimals, "FY-Q1-Q2-Q3")
		}
	}
}

// derivedCell builds a subtraction result, rounded back to the filed
// precision so float noise never outlives the arithmetic.
func derivedCell(value float64, decimals, formula string) Cell {
	return Cell{
		Value:   RoundToDecimals(value, decimals),
		Mode:    xbrl.ModeQuarter,
		Source:  SourceDerived,
		Formula: formula,
	}
}

// copiedCell carries a value across verbatim, keeping the source
// window's mode. Copies are never rounded.
func copiedCell(src Cell, from string) Cell {
	return Cell{
		Value:       src.Value,
		Mode:        src.Mode,
		Source:      SourceCopied,
		CopiedFrom:  from,
		AccessionNo: src.AccessionNo,
	}
}

// quarterValue reads a cell only when it holds a discrete quarter,
// filed or derived.
func quarterValue(t *Table, label string) (float64, bool) {
	c, ok := t.Cells[label]
	if !ok || c.Mode != xbrl.ModeQuarter {
		return 0, false
	}
	return c.Value, true
}

func latestDocEnd(group []xbrl.Fact) (end time.Time) {
	for _, f := range group {
		if f.DocPeriodEnd.After(end) {
			end = f.DocPeriodEnd
		}
	}
	return end
}
