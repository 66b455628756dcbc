package xbrl

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// INSTANCE DOCUMENT PARSER
// =============================================================================

// Instance is a parsed XBRL instance document: the DEI block plus the
// consolidated numeric facts, classified and stamped with the filing
// context.
type Instance struct {
	DEI   DEI
	Facts []Fact
}

// xmlContext mirrors xbrli:context. Only local names matter here; the
// decoder resolves prefixes for us.
type xmlContext struct {
	ID     string `xml:"id,attr"`
	Entity struct {
		Segment *xmlSegment `xml:"segment"`
	} `xml:"entity"`
	Scenario *xmlSegment `xml:"scenario"`
	Period   struct {
		Instant   string `xml:"instant"`
		StartDate string `xml:"startDate"`
		EndDate   string `xml:"endDate"`
	} `xml:"period"`
}

// xmlSegment only needs to register presence: any segment or scenario
// marks the context as dimensional. Segment-qualified series are out of
// scope, so their facts are dropped wholesale.
type xmlSegment struct {
	Members []struct {
		Dimension string `xml:"dimension,attr"`
		Member    string `xml:",chardata"`
	} `xml:"explicitMember"`
}

type xmlUnit struct {
	ID      string `xml:"id,attr"`
	Measure string `xml:"measure"`
	Divide  *struct {
		Numerator struct {
			Measure string `xml:"measure"`
		} `xml:"unitNumerator"`
		Denominator struct {
			Measure string `xml:"measure"`
		} `xml:"unitDenominator"`
	} `xml:"divide"`
}

// rawFact is a fact element before contexts and units are resolved.
type rawFact struct {
	space      string
	local      string
	contextRef string
	unitRef    string
	decimals   string
	value      string
}

// Parse reads an XBRL instance document and returns its DEI block and
// consolidated numeric facts. Dimensional facts, non-numeric facts and
// facts with unusable periods are skipped, never errors: a filing is
// full of text blocks and segment breakdowns this engine does not want.
func Parse(r io.Reader) (*Instance, error) {
	dec := xml.NewDecoder(r)

	contexts := make(map[string]xmlContext)
	units := make(map[string]xmlUnit)
	var raws []rawFact

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse instance document: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "context":
			var ctx xmlContext
			if err := dec.DecodeElement(&ctx, &se); err != nil {
				return nil, fmt.Errorf("failed to parse context: %w", err)
			}
			contexts[ctx.ID] = ctx
		case "unit":
			var u xmlUnit
			if err := dec.DecodeElement(&u, &se); err != nil {
				return nil, fmt.Errorf("failed to parse unit: %w", err)
			}
			units[u.ID] = u
		default:
			ref := attrValue(se, "contextRef")
			if ref == "" {
				continue
			}
			var body struct {
				Value string `xml:",chardata"`
			}
			if err := dec.DecodeElement(&body, &se); err != nil {
				continue
			}
			raws = append(raws, rawFact{
				space:      se.Name.Space,
				local:      se.Name.Local,
				contextRef: ref,
				unitRef:    attrValue(se, "unitRef"),
				decimals:   attrValue(se, "decimals"),
				value:      body.Value,
			})
		}
	}

	inst := &Instance{}
	for _, rf := range raws {
		if strings.Contains(rf.space, "xbrl.sec.gov/dei") {
			applyDEI(&inst.DEI, rf.local, rf.value)
		}
	}

	for _, rf := range raws {
		if strings.Contains(rf.space, "xbrl.sec.gov/dei") {
			continue
		}
		ctx, ok := contexts[rf.contextRef]
		if !ok || !consolidated(ctx) {
			continue
		}
		start, end, ok := contextWindow(ctx)
		if !ok {
			continue
		}
		value, ok := parseNumeric(rf.value)
		if !ok {
			continue
		}

		inst.Facts = append(inst.Facts, Fact{
			Concept: Concept{
				Taxonomy: taxonomyName(rf.space),
				Tag:      rf.local,
			},
			Value:        value,
			Unit:         unitName(units[rf.unitRef]),
			Decimals:     rf.decimals,
			Start:        start,
			End:          end,
			Mode:         ModeOf(start, end),
			FiscalYear:   inst.DEI.FiscalYear,
			FiscalPeriod: inst.DEI.FiscalPeriod,
			DocPeriodEnd: inst.DEI.DocPeriodEnd,
		})
	}

	return inst, nil
}

// applyDEI folds one dei-namespace fact into the DEI block.
func applyDEI(d *DEI, local, value string) {
	value = strings.TrimSpace(value)
	switch local {
	case "DocumentType":
		d.DocumentType = value
	case "DocumentPeriodEndDate":
		if t, err := time.Parse("2006-01-02", value); err == nil {
			d.DocPeriodEnd = t
		}
	case "DocumentFiscalYearFocus":
		if y, err := strconv.Atoi(value); err == nil {
			d.FiscalYear = y
		}
	case "DocumentFiscalPeriodFocus":
		d.FiscalPeriod = strings.ToUpper(value)
	}
}

// contextWindow resolves a context's period to a (start, end) pair. An
// instant period yields a zero start. Contexts with neither an instant
// nor a complete start/end pair are unusable.
func contextWindow(ctx xmlContext) (time.Time, time.Time, bool) {
	if inst := strings.TrimSpace(ctx.Period.Instant); inst != "" {
		end, err := time.Parse("2006-01-02", inst)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return time.Time{}, end, true
	}
	start, err1 := time.Parse("2006-01-02", strings.TrimSpace(ctx.Period.StartDate))
	end, err2 := time.Parse("2006-01-02", strings.TrimSpace(ctx.Period.EndDate))
	if err1 != nil || err2 != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// consolidated reports whether the context carries no segment or
// scenario qualification.
func consolidated(ctx xmlContext) bool {
	return ctx.Entity.Segment == nil && ctx.Scenario == nil
}

// taxonomyName shortens a namespace URI to a stable taxonomy name:
// http://fasb.org/us-gaap/2025 -> us-gaap. Version segments are dropped
// so the same concept joins across filing years.
func taxonomyName(uri string) string {
	parts := strings.Split(strings.TrimRight(uri, "/"), "/")
	last := parts[len(parts)-1]
	if len(parts) >= 2 && isDigits(last) {
		return parts[len(parts)-2]
	}
	return last
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// unitName reduces a unit to its display form: "USD", "shares", or
// "USD/shares" for per-share measures.
func unitName(u xmlUnit) string {
	if u.Divide != nil {
		return localMeasure(u.Divide.Numerator.Measure) + "/" + localMeasure(u.Divide.Denominator.Measure)
	}
	return localMeasure(u.Measure)
}

// localMeasure strips the namespace prefix from a measure QName.
func localMeasure(m string) string {
	m = strings.TrimSpace(m)
	if i := strings.LastIndex(m, ":"); i >= 0 {
		return m[i+1:]
	}
	return m
}

func parseNumeric(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
