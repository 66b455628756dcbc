package ingest

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Linkbase, schema and rendering files sit next to the instance
// document and end in .xml too.
var skipDocRe = regexp.MustCompile(`(_cal|_def|_lab|_pre)\.xml$|\.xsd$|^FilingSummary\.xml$|^R\d+\.xml$`)

// InstanceURL finds the XBRL instance document inside a filing's
// archive directory, preferring the inline-XBRL export (*_htm.xml)
// when present.
func (c *Client) InstanceURL(ctx context.Context, cik int64, accessionNo string) (string, error) {
	dirURL := fmt.Sprintf(c.ArchivesURL, cik, accessionDir(accessionNo)) + "/"
	body, err := c.Fetch(ctx, dirURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch filing index: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse filing index: %w", err)
	}

	var candidates []string
	seen := make(map[string]bool)
	doc.Find("a").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		name := href[strings.LastIndex(href, "/")+1:]
		if !strings.HasSuffix(name, ".xml") || skipDocRe.MatchString(name) || seen[name] {
			return
		}
		seen[name] = true
		candidates = append(candidates, name)
	})

	if len(candidates) == 0 {
		return "", fmt.Errorf("no instance document in %s", dirURL)
	}
	for _, name := range candidates {
		if strings.HasSuffix(name, "_htm.xml") {
			return dirURL + name, nil
		}
	}
	return dirURL + candidates[0], nil
}

// FetchInstance downloads a filing's instance document.
func (c *Client) FetchInstance(ctx context.Context, cik int64, accessionNo string) ([]byte, error) {
	url, err := c.InstanceURL(ctx, cik, accessionNo)
	if err != nil {
		return nil, err
	}
	return c.Fetch(ctx, url)
}
