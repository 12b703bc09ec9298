// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the table of typed PII recognizers used by the
// Layer-1 scorer. The table is built once and shared read-only between all
// workers.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Geography restricts which jurisdiction a pattern applies to.
type Geography string

const (
	GeographyGlobal Geography = "GLOBAL"
	GeographyUS     Geography = "US"
	GeographyIN     Geography = "IN"
	GeographyUK     Geography = "UK"
	GeographyEU     Geography = "EU"
	GeographyCA     Geography = "CA"
	GeographyAU     Geography = "AU"
)

var knownGeographies = map[Geography]bool{
	GeographyGlobal: true,
	GeographyUS:     true,
	GeographyIN:     true,
	GeographyUK:     true,
	GeographyEU:     true,
	GeographyCA:     true,
	GeographyAU:     true,
}

// Filter is a post-match check. It receives the full text and the byte span
// of the match and reports whether the match should be kept.
type Filter func(text string, start, end int) bool

// Pattern is one catalog entry.
type Pattern struct {
	Name                string
	EntityType          string
	Expr                string
	Score               float64
	Geography           Geography
	RegulatoryFramework string

	re     *regexp.Regexp
	filter Filter
}

// Regexp returns the compiled expression. Compiled regexps are safe for
// concurrent use.
func (p Pattern) Regexp() *regexp.Regexp { return p.re }

// Accept runs the pattern's post-filter on a match.
func (p Pattern) Accept(text string, start, end int) bool {
	if p.filter == nil {
		return true
	}
	return p.filter(text, start, end)
}

// ConfigError reports an invalid catalog or geography configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("catalog config: %s: %s", e.Field, e.Reason)
}

// Catalog is an immutable set of patterns.
type Catalog struct {
	patterns []Pattern
	byEntity map[string]Pattern
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the built-in catalog. It is initialised once per process.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := build(builtinPatterns())
		if err != nil {
			panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// New returns a catalog holding the built-in patterns followed by the given
// custom definitions.
func New(custom []Definition) (*Catalog, error) {
	if len(custom) == 0 {
		return Default(), nil
	}
	patterns := append([]Pattern(nil), Default().patterns...)
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		seen[p.Name] = true
	}
	for i, def := range custom {
		p, err := def.compile()
		if err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, &ConfigError{Field: fmt.Sprintf("custom_patterns[%d].name", i), Reason: "duplicate pattern name " + p.Name}
		}
		seen[p.Name] = true
		patterns = append(patterns, p)
	}
	return build(patterns)
}

func build(patterns []Pattern) (*Catalog, error) {
	c := &Catalog{
		patterns: patterns,
		byEntity: make(map[string]Pattern, len(patterns)),
	}
	for i := range c.patterns {
		p := &c.patterns[i]
		if p.re == nil {
			re, err := regexp.Compile(p.Expr)
			if err != nil {
				return nil, &ConfigError{Field: p.Name, Reason: "invalid regex: " + err.Error()}
			}
			p.re = re
		}
		c.byEntity[p.EntityType] = *p
	}
	return c, nil
}

// Patterns returns the GLOBAL patterns plus those tagged with any of the
// requested geographies. A nil slice returns every pattern; an empty non-nil
// slice returns GLOBAL patterns only.
func (c *Catalog) Patterns(geographies []Geography) []Pattern {
	if geographies == nil {
		return append([]Pattern(nil), c.patterns...)
	}
	want := make(map[Geography]bool, len(geographies))
	for _, g := range geographies {
		want[g] = true
	}
	out := make([]Pattern, 0, len(c.patterns))
	for _, p := range c.patterns {
		if p.Geography == GeographyGlobal || want[p.Geography] {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the pattern registered for an entity type.
func (c *Catalog) Lookup(entityType string) (Pattern, bool) {
	p, ok := c.byEntity[entityType]
	return p, ok
}

// Geographies returns the sorted distinct geography codes in the catalog.
func (c *Catalog) Geographies() []Geography {
	set := make(map[Geography]bool)
	for _, p := range c.patterns {
		set[p.Geography] = true
	}
	out := make([]Geography, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of patterns.
func (c *Catalog) Len() int { return len(c.patterns) }

// ParseGeographies validates geography codes. Unknown codes are a
// configuration error. A nil input yields nil (no filter).
func ParseGeographies(codes []string) ([]Geography, error) {
	if codes == nil {
		return nil, nil
	}
	out := make([]Geography, 0, len(codes))
	for _, code := range codes {
		g := Geography(strings.ToUpper(strings.TrimSpace(code)))
		if !knownGeographies[g] {
			return nil, &ConfigError{Field: "geographies", Reason: fmt.Sprintf("unknown geography %q", code)}
		}
		out = append(out, g)
	}
	return out, nil
}
