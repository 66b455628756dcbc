package config

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"

	"edgarq/pkg/core/derive"
	"edgarq/pkg/core/xbrl"
)

// ConceptEntry is one tracked concept from the registry file. Balance
// carries the taxonomy's debit/credit attribute; Class, when set, pins
// the derivation class ahead of every built-in rule.
type ConceptEntry struct {
	Taxonomy string `json:"taxonomy"`
	Tag      string `json:"tag"`
	Label    string `json:"label"`
	Balance  string `json:"balance"`
	Class    string `json:"class"`
}

type registryFile struct {
	Concepts []ConceptEntry `json:"concepts"`
}

// Registry is the set of concepts the pipeline extracts and serves.
// Facts outside the registry are dropped at ingest.
type Registry struct {
	entries []ConceptEntry
	index   map[string]ConceptEntry
}

// LoadRegistry reads the concept registry. The file is HJSON so it can
// carry comments alongside the tag list.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read concept registry: %w", err)
	}

	var rf registryFile
	if err := hjson.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse concept registry: %w", err)
	}
	if len(rf.Concepts) == 0 {
		return nil, fmt.Errorf("concept registry %s lists no concepts", path)
	}
	return NewRegistry(rf.Concepts), nil
}

// NewRegistry builds a registry from entries directly.
func NewRegistry(entries []ConceptEntry) *Registry {
	r := &Registry{
		entries: entries,
		index:   make(map[string]ConceptEntry, len(entries)),
	}
	for _, e := range entries {
		r.index[conceptKey(e.Taxonomy, e.Tag)] = e
	}
	return r
}

// Tracked returns the registered concepts in file order.
func (r *Registry) Tracked() []ConceptEntry {
	return r.entries
}

// Tracks reports whether a concept is registered.
func (r *Registry) Tracks(taxonomy, tag string) bool {
	_, ok := r.index[conceptKey(taxonomy, tag)]
	return ok
}

// Lookup returns a registered concept's entry.
func (r *Registry) Lookup(taxonomy, tag string) (ConceptEntry, bool) {
	e, ok := r.index[conceptKey(taxonomy, tag)]
	return e, ok
}

// Enrich fills a parsed concept with the registry's label and balance
// attribute. Instance documents carry neither.
func (r *Registry) Enrich(c xbrl.Concept) xbrl.Concept {
	e, ok := r.index[conceptKey(c.Taxonomy, c.Tag)]
	if !ok {
		return c
	}
	if e.Label != "" {
		c.Label = e.Label
	}
	c.Balance = xbrl.Balance(e.Balance)
	return c
}

// Override returns the registry's class pin for a concept, if any.
func (r *Registry) Override(taxonomy, tag string) derive.Override {
	e, ok := r.index[conceptKey(taxonomy, tag)]
	if !ok {
		return derive.OverrideUnset
	}
	switch e.Class {
	case string(derive.Derivable):
		return derive.OverrideDerivable
	case string(derive.CopyOnly):
		return derive.OverrideCopyOnly
	}
	return derive.OverrideUnset
}

func conceptKey(taxonomy, tag string) string {
	return taxonomy + ":" + tag
}
