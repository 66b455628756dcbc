package xbrl

import (
	"strings"
	"time"
)

// =============================================================================
// CANDIDATE SELECTION
// =============================================================================
//
// A single filing carries the same concept under several windows: the
// current period, the year-to-date total, and prior-year comparatives of
// both. Selection picks exactly one fact per fiscal period, using the
// filing's document period end to reject comparative columns.

// Past records which fiscal periods are already on record for a concept
// within one fiscal year, and the mode each was stored with. A semester
// fact recorded for Q2 shows up here as Q2 -> semester.
type Past map[string]PeriodMode

// Has reports whether the period is on record in any mode.
func (p Past) Has(period string) bool {
	_, ok := p[period]
	return ok
}

// HasMode reports whether the period is on record with exactly this mode.
func (p Past) HasMode(period string, mode PeriodMode) bool {
	return p[period] == mode
}

// Policy controls period selection preferences.
type Policy struct {
	// Q3Cumulative prefers 9-month YTD facts when resolving Q3, provided
	// the earlier periods on record can support subtracting them down to
	// a standalone quarter. Most US filers report Q3 as YTD.
	Q3Cumulative bool
}

// DefaultPolicy mirrors typical filer behavior: direct quarters for Q2,
// cumulative-first for Q3.
var DefaultPolicy = Policy{Q3Cumulative: true}

// BestQ1 selects the Q1 fact: a direct quarter window nearest the
// filing's document period end.
func BestQ1(cands []Fact, docEnd time.Time) *Fact {
	return closest(filterMode(cands, ModeQuarter), docEnd)
}

// BestQ2 prefers a direct quarter window. A 6-month cumulative is an
// acceptable stand-in only once Q1 is on record, so the standalone
// quarter stays recoverable by subtraction.
func BestQ2(cands []Fact, past Past, docEnd time.Time) *Fact {
	if f := closest(filterMode(cands, ModeQuarter), docEnd); f != nil {
		return f
	}
	if past.Has(PeriodQ1) {
		return closest(filterMode(cands, ModeSemester), docEnd)
	}
	return nil
}

// BestQ3 selects the Q3 fact. Under the default policy a 9-month YTD
// fact wins whenever the record can support subtraction: a semester
// recorded for Q2, or direct quarters for both Q1 and Q2. Direct
// quarters come second. The preference flips with Policy.Q3Cumulative
// off. An unsupported YTD fact is kept as a last resort rather than
// returning nothing.
func BestQ3(cands []Fact, past Past, docEnd time.Time, policy Policy) *Fact {
	threeQ := filterMode(cands, ModeThreeQuarter)
	quarters := filterMode(cands, ModeQuarter)

	supported := past.HasMode(PeriodQ2, ModeSemester) ||
		(past.HasMode(PeriodQ1, ModeQuarter) && past.HasMode(PeriodQ2, ModeQuarter))

	if policy.Q3Cumulative {
		if supported {
			if f := closest(threeQ, docEnd); f != nil {
				return f
			}
		}
		if f := closest(quarters, docEnd); f != nil {
			return f
		}
	} else {
		if f := closest(quarters, docEnd); f != nil {
			return f
		}
		if supported {
			if f := closest(threeQ, docEnd); f != nil {
				return f
			}
		}
	}
	return closest(threeQ, docEnd)
}

// BestFY selects the full-year fact. Year windows outrank quarter
// windows, which outrank irregular ones; within a rank the nearest end
// date to the document period end wins, keeping prior-year comparative
// totals out of the FY slot.
func BestFY(cands []Fact, docEnd time.Time) *Fact {
	for _, mode := range []PeriodMode{ModeYear, ModeQuarter, ModeOther} {
		if f := closest(filterMode(cands, mode), docEnd); f != nil {
			return f
		}
	}
	return nil
}

// BestInstant selects a balance-sheet snapshot: an exact match on the
// document period end when one exists, otherwise the latest snapshot.
func BestInstant(cands []Fact, docEnd time.Time) *Fact {
	inst := filterMode(cands, ModeInstant)
	if len(inst) == 0 {
		return nil
	}
	if !docEnd.IsZero() {
		for _, f := range inst {
			if f.End.Equal(docEnd) {
				g := f
				return &g
			}
		}
	}
	best := 0
	for i := 1; i < len(inst); i++ {
		if inst[i].End.After(inst[best].End) {
			best = i
		}
	}
	f := inst[best]
	return &f
}

// ForPeriod dispatches to the per-period selection rule. A candidate
// group that only reports snapshots is a stock concept regardless of the
// filing period, so it routes to instant selection first.
func ForPeriod(period string, cands []Fact, past Past, docEnd time.Time, policy Policy) *Fact {
	if len(cands) > 0 && allInstant(cands) {
		return BestInstant(cands, docEnd)
	}
	switch strings.ToUpper(period) {
	case PeriodQ1:
		return BestQ1(cands, docEnd)
	case PeriodQ2:
		return BestQ2(cands, past, docEnd)
	case PeriodQ3:
		return BestQ3(cands, past, docEnd, policy)
	default:
		return BestFY(cands, docEnd)
	}
}

// closest picks the candidate whose end date is nearest docEnd. Equal
// distances go to the later end date, then to input order, so the result
// never depends on iteration or sort instability. With a zero docEnd the
// first candidate wins.
func closest(cands []Fact, docEnd time.Time) *Fact {
	if len(cands) == 0 {
		return nil
	}
	best := 0
	if !docEnd.IsZero() {
		for i := 1; i < len(cands); i++ {
			di := DateDistance(cands[i].End, docEnd)
			db := DateDistance(cands[best].End, docEnd)
			if di < db || (di == db && cands[i].End.After(cands[best].End)) {
				best = i
			}
		}
	}
	f := cands[best]
	return &f
}

func filterMode(cands []Fact, mode PeriodMode) []Fact {
	var out []Fact
	for _, f := range cands {
		if f.Mode == mode {
			out = append(out, f)
		}
	}
	return out
}

func allInstant(cands []Fact) bool {
	for _, f := range cands {
		if f.Mode != ModeInstant {
			return false
		}
	}
	return true
}
