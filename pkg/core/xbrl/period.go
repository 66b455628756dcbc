package xbrl

import "time"

// =============================================================================
// PERIOD CLASSIFICATION
// =============================================================================

// ModeOf classifies a measurement window by its day span. A zero start
// means the fact is an instant snapshot; a window that ends before it
// starts classifies as other rather than failing. The bands carry slack
// for 52/53-week calendars and leap years.
func ModeOf(start, end time.Time) PeriodMode {
	if start.IsZero() {
		return ModeInstant
	}
	if end.Before(start) {
		return ModeOther
	}
	switch d := daysBetween(start, end); {
	case d >= 88 && d <= 95:
		return ModeQuarter
	case d >= 170 && d <= 185:
		return ModeSemester
	case d >= 260 && d <= 275:
		return ModeThreeQuarter
	case d >= 350 && d <= 373:
		return ModeYear
	default:
		return ModeOther
	}
}

// ClassifyFacts returns a copy of facts with Mode set from each fact's
// window. Existing Mode values are overwritten.
func ClassifyFacts(facts []Fact) []Fact {
	out := make([]Fact, len(facts))
	for i, f := range facts {
		f.Mode = ModeOf(f.Start, f.End)
		out[i] = f
	}
	return out
}

// DateDistance returns the absolute day distance between two dates.
func DateDistance(a, b time.Time) int {
	if a.After(b) {
		a, b = b, a
	}
	return daysBetween(a, b)
}

// daysBetween returns the whole-day span from a to b, b not before a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
