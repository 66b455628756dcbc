package config

import (
	"os"
	"path/filepath"
	"testing"

	"edgarq/pkg/core/derive"
	"edgarq/pkg/core/xbrl"
)

const registryHJSON = `{
  // minimal tracked set for tests
  concepts: [
    {
      taxonomy: us-gaap
      tag: Revenues
      label: Revenues
      balance: credit
    }
    {
      taxonomy: us-gaap
      tag: CommonStockSharesOutstanding
      label: Shares outstanding
      class: copy_only
    }
    {
      taxonomy: us-gaap
      tag: EarningsPerShareDiluted
      label: Diluted EPS
    }
  ]
}`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concepts.hjson")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write registry fixture: %v", err)
	}
	return path
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, registryHJSON))
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	if got := len(reg.Tracked()); got != 3 {
		t.Fatalf("tracked %d concepts, want 3", got)
	}

	if !reg.Tracks("us-gaap", "Revenues") {
		t.Error("Revenues not tracked")
	}
	if reg.Tracks("us-gaap", "Goodwill") {
		t.Error("Goodwill tracked but not registered")
	}

	e, ok := reg.Lookup("us-gaap", "Revenues")
	if !ok || e.Balance != "credit" {
		t.Errorf("Revenues entry = %+v", e)
	}
}

func TestRegistryEnrich(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, registryHJSON))
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	c := reg.Enrich(xbrl.Concept{Taxonomy: "us-gaap", Tag: "Revenues"})
	if c.Balance != xbrl.BalanceCredit {
		t.Errorf("balance = %q, want credit", c.Balance)
	}
	if c.Label != "Revenues" {
		t.Errorf("label = %q", c.Label)
	}

	// Unregistered concepts pass through untouched.
	u := reg.Enrich(xbrl.Concept{Taxonomy: "us-gaap", Tag: "Goodwill", Label: "kept"})
	if u.Label != "kept" || u.Balance != xbrl.BalanceNone {
		t.Errorf("unregistered concept changed: %+v", u)
	}
}

func TestRegistryOverride(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, registryHJSON))
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	if got := reg.Override("us-gaap", "CommonStockSharesOutstanding"); got != derive.OverrideCopyOnly {
		t.Errorf("override = %q, want copy_only", got)
	}
	if got := reg.Override("us-gaap", "EarningsPerShareDiluted"); got != derive.OverrideUnset {
		t.Errorf("override = %q, want unset", got)
	}
	if got := reg.Override("us-gaap", "Goodwill"); got != derive.OverrideUnset {
		t.Errorf("override for unregistered = %q, want unset", got)
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.hjson")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("empty concept list", func(t *testing.T) {
		if _, err := LoadRegistry(writeRegistry(t, `{concepts: []}`)); err == nil {
			t.Fatal("expected error for empty registry")
		}
	})
}
