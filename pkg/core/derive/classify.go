// Package derive rebuilds discrete quarterly values from the cumulative
// windows companies actually file. A fiscal year of filings rarely
// contains four clean quarters: Q2 arrives as a six-month total, Q3 as
// nine months, and Q4 not at all. This package classifies each concept
// by whether subtraction is meaningful for it and fills the gaps.
package derive

import (
	"strings"

	"edgarq/pkg/core/xbrl"
)

// =============================================================================
// CONCEPT CLASSIFICATION
// =============================================================================

// Class says how a concept's quarterly values may be produced.
type Class string

const (
	// Derivable concepts are flow totals: a shorter window is the
	// difference of two cumulative windows.
	Derivable Class = "derivable"
	// CopyOnly concepts are averages, ratios and counts where
	// subtracting windows produces nonsense.
	CopyOnly Class = "copy_only"
)

// Override pins a concept's class from the registry, ahead of every
// built-in rule.
type Override string

const (
	OverrideUnset     Override = ""
	OverrideDerivable Override = "derivable"
	OverrideCopyOnly  Override = "copy_only"
)

// Classify decides a concept's class. Rules apply in order: registry
// override, averaged measures, per-share measures, balance attribute.
// Concepts with an unrecognized balance are treated conservatively.
func Classify(c xbrl.Concept, override Override) Class {
	switch override {
	case OverrideDerivable:
		return Derivable
	case OverrideCopyOnly:
		return CopyOnly
	}

	tag := strings.ToLower(c.Tag)
	if strings.Contains(tag, "average") {
		return CopyOnly
	}
	if strings.Contains(tag, "earningspershare") {
		return Derivable
	}

	switch c.Balance {
	case xbrl.BalanceDebit, xbrl.BalanceCredit, xbrl.BalanceNone:
		return Derivable
	}
	return CopyOnly
}
