// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"encoding/json"
)

// Extraction layers recorded on every candidate for audit.
const (
	LayerPattern    = "layer_1_pattern"
	LayerContext    = "layer_2_context"
	LayerPositional = "layer_3_positional"
)

// Layer2Threshold is the score below which a candidate needs context corroboration.
const Layer2Threshold = 0.75

// BBox is a geometric anchor on a rendered page (x0, y0, x1, y1).
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// TextSegment is one unit of extracted content handed over by a reader.
// Segments are treated as immutable once produced.
type TextSegment struct {
	Text         string
	Page         int    // 0-based page number, or sheet index for spreadsheets
	Sheet        string // sheet name for tabular sources, empty otherwise
	ColumnHeader string // column header label for tabular cells
	Row          int    // 1-based data row for tabular cells, 0 otherwise
	BBox         *BBox
	FileType     string // lowercase extension without dot
	SourcePath   string
}

// Tabular reports whether the segment is a table cell carrying a header label.
func (s *TextSegment) Tabular() bool {
	return s != nil && s.ColumnHeader != ""
}

// WithText returns a copy of the segment carrying different text.
// The stitcher uses it to build the stitched view of a page.
func (s TextSegment) WithText(text string) TextSegment {
	s.Text = text
	return s
}

// CandidateSpec carries the fields used to construct a CandidateEntity.
type CandidateSpec struct {
	EntityType          string
	Start               int // byte offset into the segment text
	End                 int // byte offset, exclusive
	Score               float64
	Layer               string
	PatternUsed         string
	Geography           string
	RegulatoryFramework string
}

// CandidateEntity is one scored hit. It is a value: every layer returns a
// new candidate instead of editing the one it received, so the provenance of
// each stage stays intact. NeedsLayer2 is derived from the score and cannot
// be set.
type CandidateEntity struct {
	segment *TextSegment
	spec    CandidateSpec
}

// NewCandidate builds a candidate for a segment. Scores are clamped to [0,1]
// and an empty layer defaults to LayerPattern.
func NewCandidate(segment *TextSegment, spec CandidateSpec) CandidateEntity {
	spec.Score = clampScore(spec.Score)
	if spec.Layer == "" {
		spec.Layer = LayerPattern
	}
	return CandidateEntity{segment: segment, spec: spec}
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

func (c CandidateEntity) Segment() *TextSegment       { return c.segment }
func (c CandidateEntity) EntityType() string          { return c.spec.EntityType }
func (c CandidateEntity) Start() int                  { return c.spec.Start }
func (c CandidateEntity) End() int                    { return c.spec.End }
func (c CandidateEntity) Score() float64              { return c.spec.Score }
func (c CandidateEntity) Layer() string               { return c.spec.Layer }
func (c CandidateEntity) PatternUsed() string         { return c.spec.PatternUsed }
func (c CandidateEntity) Geography() string           { return c.spec.Geography }
func (c CandidateEntity) RegulatoryFramework() string { return c.spec.RegulatoryFramework }

// Spec returns a copy of the candidate's fields.
func (c CandidateEntity) Spec() CandidateSpec { return c.spec }

// NeedsLayer2 is true exactly when the score is below Layer2Threshold.
func (c CandidateEntity) NeedsLayer2() bool {
	return c.spec.Score < Layer2Threshold
}

// Value returns the matched text span. It must never reach a log line or an
// error message.
func (c CandidateEntity) Value() string {
	if c.segment == nil {
		return ""
	}
	text := c.segment.Text
	if c.spec.Start < 0 || c.spec.End > len(text) || c.spec.Start >= c.spec.End {
		return ""
	}
	return text[c.spec.Start:c.spec.End]
}

// Rescore returns a copy with a new score and layer.
func (c CandidateEntity) Rescore(score float64, layer string) CandidateEntity {
	spec := c.spec
	spec.Score = score
	spec.Layer = layer
	return NewCandidate(c.segment, spec)
}

// Reclassify returns a copy with a new entity type, score, layer and audit
// pattern identifier.
func (c CandidateEntity) Reclassify(entityType string, score float64, layer, pattern string) CandidateEntity {
	spec := c.spec
	spec.EntityType = entityType
	spec.Score = score
	spec.Layer = layer
	spec.PatternUsed = pattern
	return NewCandidate(c.segment, spec)
}

// MarshalJSON renders the audit view of a candidate. The matched text is
// deliberately absent.
func (c CandidateEntity) MarshalJSON() ([]byte, error) {
	type audit struct {
		EntityType          string  `json:"entity_type"`
		Start               int     `json:"start_char"`
		End                 int     `json:"end_char"`
		Score               float64 `json:"score"`
		Layer               string  `json:"extraction_layer"`
		PatternUsed         string  `json:"pattern_used,omitempty"`
		Geography           string  `json:"geography"`
		RegulatoryFramework string  `json:"regulatory_framework,omitempty"`
		NeedsLayer2         bool    `json:"needs_layer2"`
		Page                int     `json:"page"`
		Sheet               string  `json:"sheet,omitempty"`
		FileType            string  `json:"file_type,omitempty"`
	}
	a := audit{
		EntityType:          c.spec.EntityType,
		Start:               c.spec.Start,
		End:                 c.spec.End,
		Score:               c.spec.Score,
		Layer:               c.spec.Layer,
		PatternUsed:         c.spec.PatternUsed,
		Geography:           c.spec.Geography,
		RegulatoryFramework: c.spec.RegulatoryFramework,
		NeedsLayer2:         c.NeedsLayer2(),
	}
	if c.segment != nil {
		a.Page = c.segment.Page
		a.Sheet = c.segment.Sheet
		a.FileType = c.segment.FileType
	}
	return json.Marshal(a)
}

// Hit is one result reported by a general-purpose recognizer.
type Hit struct {
	EntityType string
	Start      int
	End        int
	Score      float64
}

// Recognizer is a pluggable general-purpose entity recognizer consulted in
// addition to the pattern catalog. Implementations are not assumed to be
// safe for concurrent use; each worker owns its own instance.
type Recognizer interface {
	Name() string
	Recognize(text string) ([]Hit, error)
}

// RecognizerFactory creates a fresh recognizer for one worker.
type RecognizerFactory func() (Recognizer, error)
