// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"pii-linkage/internal/formatters"
	"pii-linkage/internal/formatters/shared"
	"pii-linkage/internal/pipeline"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(report *pipeline.Report, options formatters.FormatterOptions) (string, error) {
	resp := shared.ConvertReport(report, options)
	var b strings.Builder

	f.appendSummary(&b, resp.Summary, options)
	if len(resp.Subjects) == 0 {
		b.WriteString("\nNo subjects found.\n")
	} else {
		b.WriteString("\n")
		f.appendSubjects(&b, resp.Subjects, options)
	}
	if options.Verbose && len(resp.Groups) > 0 {
		b.WriteString("\n")
		f.appendGroups(&b, resp.Groups, options)
	}
	if len(resp.Failures) > 0 {
		b.WriteString("\n")
		f.appendFailures(&b, resp.Failures, options)
	}
	return b.String(), nil
}

// paint applies a color unless colors are disabled.
func (f *Formatter) paint(options formatters.FormatterOptions, name, format string, args ...any) string {
	if options.NoColor {
		return fmt.Sprintf(format, args...)
	}
	return f.colors[name].Sprintf(format, args...)
}

func (f *Formatter) appendSummary(b *strings.Builder, s shared.Summary, options formatters.FormatterOptions) {
	b.WriteString(f.paint(options, "white", "Linkage summary\n"))
	fmt.Fprintf(b, "  Documents:   %d", s.Documents)
	if s.FailedDocuments > 0 {
		b.WriteString(f.paint(options, "red", " (%d failed)", s.FailedDocuments))
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "  Detections:  %d\n", s.Detections)
	fmt.Fprintf(b, "  Records:     %d\n", s.Records)
	fmt.Fprintf(b, "  Groups:      %d", s.Groups)
	if s.NeedsReview > 0 {
		b.WriteString(f.paint(options, "yellow", " (%d need review)", s.NeedsReview))
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "  Subjects:    %d\n", s.Subjects)
	if len(s.PayloadsByPolicy) > 0 {
		parts := make([]string, 0, len(s.PayloadsByPolicy))
		for _, p := range []string{"hash", "encrypted"} {
			if n, ok := s.PayloadsByPolicy[p]; ok {
				parts = append(parts, fmt.Sprintf("%d %s", n, p))
			}
		}
		fmt.Fprintf(b, "  Payloads:    %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(b, "  Duration:    %s\n", (time.Duration(s.DurationMS) * time.Millisecond).String())
}

func (f *Formatter) appendSubjects(b *strings.Builder, subjects []shared.SubjectView, options formatters.FormatterOptions) {
	header := fmt.Sprintf("%-8s %-36s %-6s %-20s %-24s %-14s %s\n",
		"LEVEL", "SUBJECT", "CONF", "NAME", "EMAIL", "PHONE", "TYPES")
	b.WriteString(f.paint(options, "white", "%s", header))
	b.WriteString(f.paint(options, "white", "%s\n", strings.Repeat("-", 120)))

	for _, s := range subjects {
		levelColor := "green"
		switch s.ConfidenceLevel {
		case "MEDIUM":
			levelColor = "yellow"
		case "LOW":
			levelColor = "red"
		}
		b.WriteString(f.paint(options, levelColor, "[%-6s]", s.ConfidenceLevel))
		fmt.Fprintf(b, " %-36s %-6.2f %-20s %-24s %-14s %s",
			s.SubjectID, s.MergeConfidence,
			truncate(s.Name, 20), truncate(s.Email, 24), truncate(s.Phone, 14),
			strings.Join(s.PIITypes, ","))
		if s.ReviewStatus == "HUMAN_REVIEW" {
			b.WriteString(f.paint(options, "yellow", " REVIEW"))
		}
		b.WriteString("\n")
		if options.Verbose {
			if s.Address != "" {
				fmt.Fprintf(b, "         address: %s\n", s.Address)
			}
			fmt.Fprintf(b, "         categories: %s, records: %d, notify: %t\n",
				strings.Join(s.Categories, ","), s.SourceRecords, s.NotificationRequired)
		}
	}
}

func (f *Formatter) appendGroups(b *strings.Builder, groups []pipeline.GroupSummary, options formatters.FormatterOptions) {
	b.WriteString(f.paint(options, "white", "Groups\n"))
	for _, g := range groups {
		flag := ""
		if g.NeedsHumanReview {
			flag = f.paint(options, "yellow", " needs review")
		}
		fmt.Fprintf(b, "  %s -> %s  conf %.2f  records %d  docs %d%s\n",
			g.GroupID, g.SubjectID, g.MergeConfidence, len(g.RecordIDs), len(g.Documents), flag)
		fmt.Fprintf(b, "    types: %s\n", strings.Join(g.EntityTypes, ","))
	}
}

func (f *Formatter) appendFailures(b *strings.Builder, failures []pipeline.DocumentFailure, options formatters.FormatterOptions) {
	b.WriteString(f.paint(options, "red", "Failed documents\n"))
	for _, fl := range failures {
		fmt.Fprintf(b, "  %s: %s\n", fl.DocumentID, fl.Error)
	}
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
