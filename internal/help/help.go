// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/detector"
	"pii-linkage/internal/resolver"
	"pii-linkage/internal/scoring"
)

// Option describes one command line flag for the usage screen.
type Option struct {
	Name        string
	Arg         string
	Description string
}

// System renders help content for the application
type System struct {
	out    io.Writer
	colors map[string]*color.Color
}

// NewSystem creates a help system writing to out
func NewSystem(out io.Writer, noColor bool) *System {
	colors := map[string]*color.Color{
		"title":    color.New(color.FgWhite, color.Bold),
		"header":   color.New(color.FgBlue, color.Bold),
		"item":     color.New(color.FgCyan),
		"emphasis": color.New(color.FgWhite, color.Bold),
		"negative": color.New(color.FgRed),
		"warning":  color.New(color.FgYellow),
		"positive": color.New(color.FgGreen),
		"example":  color.New(color.FgMagenta),
	}
	for _, c := range colors {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return &System{out: out, colors: colors}
}

// ShowGeneralHelp displays usage, the given options and examples
func (h *System) ShowGeneralHelp(options []Option) {
	h.colors["title"].Fprintln(h.out, "pii-linkage - PII Detection and Identity Linkage")
	fmt.Fprintln(h.out, "================================================")
	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "USAGE:")
	fmt.Fprintln(h.out, "  pii-linkage [options] <file|directory>...")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "OPTIONS:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	for _, o := range options {
		fmt.Fprintf(w, "  -%s\t%s\t%s\n", o.Name, o.Arg, o.Description)
	}
	_ = w.Flush()

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "EXAMPLES:")
	h.colors["example"].Fprintln(h.out, "  pii-linkage -geo US,UK ./exports")
	h.colors["example"].Fprintln(h.out, "  pii-linkage -format json -output report.json claims.pdf members.csv")
	h.colors["example"].Fprintln(h.out, "  pii-linkage -anchors email,phone -verbose ./inbox")
	h.colors["example"].Fprintln(h.out, "  pii-linkage -database-url postgres://localhost/pii -purge-expired")
	h.colors["example"].Fprintln(h.out, "  pii-linkage -list-patterns -geo IN")

	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "CONFIGURATION:")
	fmt.Fprintln(h.out, "  Project config: pii-linkage.yaml or .pii-linkage.yaml (in current directory)")
	fmt.Fprintln(h.out, "  User config: <user config dir>/pii-linkage/config.yaml")
	fmt.Fprintln(h.out, "  Environment: PII_LINKAGE_CONFIG_DIR - Override config directory")
	fmt.Fprintln(h.out, "  Secrets: PII_TENANT_SALT, PII_ENCRYPTION_KEY, DATABASE_URL, REDIS_URL")
	fmt.Fprintln(h.out)
	h.colors["header"].Fprintln(h.out, "LINKAGE ANCHORS:")
	fmt.Fprintf(h.out, "  %s\n", strings.Join(resolver.ValidAnchorNames(), ", "))
}

// ShowPatternsHelp lists the catalog patterns active for the geographies,
// ordered by geography and entity type. A nil slice lists every pattern.
func (h *System) ShowPatternsHelp(cat *catalog.Catalog, geographies []catalog.Geography) {
	patterns := cat.Patterns(geographies)
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Geography != patterns[j].Geography {
			return patterns[i].Geography < patterns[j].Geography
		}
		return patterns[i].EntityType < patterns[j].EntityType
	})

	h.colors["title"].Fprintln(h.out, "Detection Patterns")
	fmt.Fprintln(h.out, "==================")
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	h.colors["header"].Fprintln(w, "  ENTITY TYPE\tGEOGRAPHY\tSCORE\tFRAMEWORK\tCATEGORIES")
	h.colors["header"].Fprintln(w, "  -----------\t---------\t-----\t---------\t----------")
	for _, p := range patterns {
		fmt.Fprint(w, "  ")
		h.colors["emphasis"].Fprint(w, p.EntityType)
		fmt.Fprintf(w, "\t%s\t%.2f\t%s\t%s\n", p.Geography, p.Score,
			orDash(p.RegulatoryFramework), orDash(strings.Join(catalog.Categories(p.EntityType), ",")))
	}
	_ = w.Flush()

	fmt.Fprintln(h.out)
	fmt.Fprintf(h.out, "%d patterns. For details about one entity type, use:\n", len(patterns))
	h.colors["example"].Fprintln(h.out, "  pii-linkage -explain <ENTITY_TYPE>")
}

// ShowPatternHelp displays how one entity type is detected and scored. It
// returns false when the catalog has no such entity type.
func (h *System) ShowPatternHelp(cat *catalog.Catalog, entityType string) bool {
	p, ok := cat.Lookup(strings.ToUpper(strings.TrimSpace(entityType)))
	if !ok {
		h.colors["negative"].Fprintf(h.out, "Error: entity type '%s' not found.\n", entityType)
		fmt.Fprintln(h.out, "Use 'pii-linkage -list-patterns' to see the available entity types.")
		return false
	}

	h.colors["title"].Fprintf(h.out, "%s\n", p.EntityType)
	fmt.Fprintln(h.out, strings.Repeat("=", len(p.EntityType)))
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Pattern\t%s\n", p.Name)
	fmt.Fprintf(w, "  Geography\t%s\n", p.Geography)
	fmt.Fprintf(w, "  Regulatory framework\t%s\n", orDash(p.RegulatoryFramework))
	fmt.Fprintf(w, "  Categories\t%s\n", orDash(strings.Join(catalog.Categories(p.EntityType), ", ")))
	fmt.Fprintf(w, "  Base score\t%.2f\n", p.Score)
	_ = w.Flush()
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "EXPRESSION:")
	fmt.Fprint(h.out, "  ")
	h.colors["item"].Fprintln(h.out, p.Expr)
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "CONFIDENCE SCORING:")
	if p.Score < detector.Layer2Threshold {
		fmt.Fprintf(h.out, "  Below %.2f, so every match is checked for nearby context keywords.\n", detector.Layer2Threshold)
	}
	if signals := scoring.ContextSignals(p.EntityType); len(signals) > 0 {
		fmt.Fprint(h.out, "  Context keywords (")
		h.colors["positive"].Fprintf(h.out, "+%.2f", scoring.ContextBoost)
		fmt.Fprintf(h.out, "): %s\n", strings.Join(signals, ", "))
	}
	fmt.Fprint(h.out, "  Matching column header (")
	h.colors["positive"].Fprintf(h.out, "+%.2f", scoring.PositionalBoost)
	fmt.Fprintln(h.out, ") in spreadsheets")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "Merge Confidence Levels:")
	fmt.Fprint(h.out, "- ")
	h.colors["negative"].Fprint(h.out, "HIGH")
	fmt.Fprintf(h.out, " (%.0f-100%%): linked without review\n", resolver.ReviewThreshold*100)
	fmt.Fprint(h.out, "- ")
	h.colors["warning"].Fprint(h.out, "MEDIUM")
	fmt.Fprintf(h.out, " (%.0f-%.0f%%): linked, flagged for human review\n", resolver.MergeThreshold*100, resolver.ReviewThreshold*100-1)
	fmt.Fprint(h.out, "- ")
	h.colors["positive"].Fprint(h.out, "LOW")
	fmt.Fprintf(h.out, " (0-%.0f%%): not linked\n", resolver.MergeThreshold*100-1)
	return true
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
