// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs documents through detection, record projection,
// entity resolution, deduplication and the storage policy.
package pipeline

import (
	"go.uber.org/zap"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
	"pii-linkage/internal/observability"
	"pii-linkage/internal/scoring"
	"pii-linkage/internal/stitcher"
)

// Detection is an accepted-or-not candidate together with its matched text.
// Value lives only in memory; it is never logged or rendered.
type Detection struct {
	Candidate detector.CandidateEntity
	Value     string
	Spanning  bool
	PageFrom  int
	PageTo    int
}

// Detector runs the three scoring layers over a sheet. It owns a stitcher
// and, through its Scorer, a recognizer, so each worker needs its own.
type Detector struct {
	scorer     *scoring.Scorer
	context    *scoring.ContextBooster
	positional *scoring.PositionalBooster
	stitcher   *stitcher.Stitcher
	logger     *zap.Logger
}

// NewDetector creates a Detector over a shared catalog. recognizer may be nil.
func NewDetector(cat *catalog.Catalog, geographies []catalog.Geography, recognizer detector.Recognizer,
	logger *zap.Logger, m *metrics.Metrics) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []scoring.Option{scoring.WithLogger(logger), scoring.WithMetrics(m)}
	scorerOpts := opts
	if recognizer != nil {
		scorerOpts = append(append([]scoring.Option(nil), opts...), scoring.WithRecognizer(recognizer))
	}
	return &Detector{
		scorer:     scoring.NewScorer(cat, geographies, scorerOpts...),
		context:    scoring.NewContextBooster(opts...),
		positional: scoring.NewPositionalBooster(opts...),
		stitcher:   stitcher.New(),
		logger:     logger,
	}
}

// DetectSheet scores every segment of one sheet in order. Prose segments are
// stitched to the tail of the previous one; a hit lying wholly inside that
// tail was already reported for the previous segment and is dropped, and a
// hit crossing into the new segment is marked spanning. Table cells are
// scored on their own and go through the positional layer.
func (d *Detector) DetectSheet(segments []detector.TextSegment) []Detection {
	d.stitcher.Reset()
	defer d.stitcher.Reset()

	var out []Detection
	prevPage := -1
	for i := range segments {
		seg := segments[i]
		if seg.Text == "" {
			continue
		}

		if seg.Tabular() || seg.Row > 0 {
			for _, c := range d.scorer.Score(&seg) {
				c = d.refine(c)
				out = append(out, Detection{Candidate: c, Value: c.Value(), PageFrom: seg.Page, PageTo: seg.Page})
			}
			continue
		}

		text, tailLen := d.stitcher.Stitch(seg.Text)
		stitched := seg.WithText(text)
		for _, c := range d.scorer.Score(&stitched) {
			if tailLen > 0 && c.End() <= tailLen {
				continue
			}
			c = d.refine(c)
			det := Detection{Candidate: c, Value: c.Value(), PageFrom: seg.Page, PageTo: seg.Page}
			if tailLen > 0 && stitcher.Spanning(c.Start(), tailLen) {
				det.Spanning = true
				det.PageFrom = prevPage
			}
			out = append(out, det)
		}
		prevPage = seg.Page
	}

	if ce := d.logger.Check(zap.DebugLevel, "sheet scored"); ce != nil {
		ce.Write(zap.Int("segments", len(segments)), zap.Int("detections", len(out)))
	}
	return out
}

// refine applies Layer 2 to low-confidence candidates and Layer 3 to table
// cells with a header.
func (d *Detector) refine(c detector.CandidateEntity) detector.CandidateEntity {
	if c.NeedsLayer2() {
		c = d.context.Boost(c, c.Segment().Text)
	}
	if c.Segment().Tabular() {
		if inferred, ok := d.positional.Infer(c); ok {
			c = inferred
		}
	}
	if ce := d.logger.Check(zap.DebugLevel, "candidate refined"); ce != nil {
		ce.Write(observability.Detection(c.EntityType(), c.Score(), c.Layer(), c.PatternUsed())...)
	}
	return c
}
