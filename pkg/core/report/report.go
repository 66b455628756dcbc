// Package report renders quarter tables as markdown and HTML. The
// layout follows the filing cadence: discrete quarters interleaved
// with the six- and nine-month windows they were filed in.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"edgarq/pkg/core/derive"
)

// Meta heads a report.
type Meta struct {
	Ticker     string
	Name       string
	CIK        int64
	FiscalYear int
	Derived    bool
}

// columns maps report columns to table keys. The cumulative windows
// read from the table's Cumulative map, everything else from Cells.
var columns = []struct {
	key        string
	header     string
	cumulative bool
}{
	{"Q1", "Q1", false},
	{"Q2", "Q2", false},
	{"semester", "6M", true},
	{"Q3", "Q3", false},
	{"threeQuarter", "9M", true},
	{"Q4", "Q4", false},
	{"FY", "FY", false},
}

// Markdown renders one fiscal year of quarter tables.
func Markdown(meta Meta, tables []derive.Table) string {
	sorted := make([]derive.Table, len(tables))
	copy(sorted, tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rowLabel(sorted[i]) < rowLabel(sorted[j])
	})

	var b strings.Builder
	title := meta.Name
	if title == "" {
		title = meta.Ticker
	}
	fmt.Fprintf(&b, "# %s FY%d\n\n", title, meta.FiscalYear)

	variant := "as filed"
	if meta.Derived {
		variant = "with derived quarters"
	}
	fmt.Fprintf(&b, "Ticker %s, CIK %d. Values %s.\n\n", meta.Ticker, meta.CIK, variant)

	b.WriteString("| Concept |")
	for _, col := range columns {
		b.WriteString(" " + col.header + " |")
	}
	b.WriteString("\n|---|")
	for range columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	var hasDerived, hasCopied bool
	for _, t := range sorted {
		b.WriteString("| " + rowLabel(t) + " |")
		for _, col := range columns {
			cell, ok := t.Cells[col.key]
			if col.cumulative {
				cell, ok = t.Cumulative[col.key]
			}
			if !ok {
				b.WriteString(" |")
				continue
			}
			mark := ""
			switch cell.Source {
			case derive.SourceDerived:
				mark = "*"
				hasDerived = true
			case derive.SourceCopied:
				mark = "†"
				hasCopied = true
			}
			b.WriteString(" " + formatValue(cell.Value) + mark + " |")
		}
		b.WriteString("\n")
	}

	if hasDerived || hasCopied {
		b.WriteString("\n")
		if hasDerived {
			b.WriteString("Cells marked * were derived by subtracting filed windows.\n")
		}
		if hasCopied {
			b.WriteString("Cells marked † were copied from the filed value.\n")
		}
	}
	return b.String()
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML renders the markdown report as a standalone page.
func HTML(meta Meta, tables []derive.Table) (string, error) {
	md := Markdown(meta, tables)
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	title := fmt.Sprintf("%s FY%d", meta.Ticker, meta.FiscalYear)
	return fmt.Sprintf(pageTemplate, title, buf.String()), nil
}

func rowLabel(t derive.Table) string {
	if t.Concept.Label != "" {
		return t.Concept.Label
	}
	return t.Concept.Key()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
