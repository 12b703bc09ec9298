// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scoring

import (
	"sort"

	"go.uber.org/zap"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
	"pii-linkage/internal/observability"
)

// Scorer is the Layer-1 detector. The pattern set is shared read-only; the
// recognizer is not, so a Scorer must not be used from two goroutines at
// once when it carries one.
type Scorer struct {
	catalog    *catalog.Catalog
	patterns   []catalog.Pattern
	recognizer detector.Recognizer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewScorer creates a Scorer over the catalog patterns for the given
// geographies. A nil geography list selects every pattern.
func NewScorer(cat *catalog.Catalog, geographies []catalog.Geography, opts ...Option) *Scorer {
	if cat == nil {
		cat = catalog.Default()
	}
	o := buildOptions(opts)
	return &Scorer{
		catalog:    cat,
		patterns:   cat.Patterns(geographies),
		recognizer: o.recognizer,
		logger:     o.logger,
		metrics:    o.metrics,
	}
}

// PatternCount returns the number of active catalog patterns.
func (s *Scorer) PatternCount() int { return len(s.patterns) }

type spanKey struct {
	entityType string
	start, end int
}

// Score runs every active pattern and the recognizer over the segment text.
// Identical (entity type, span) hits are collapsed to the highest score.
// Results are ordered by start, end and entity type.
func (s *Scorer) Score(seg *detector.TextSegment) []detector.CandidateEntity {
	if seg == nil || seg.Text == "" {
		return nil
	}
	text := seg.Text
	best := make(map[spanKey]detector.CandidateEntity)
	keep := func(c detector.CandidateEntity) {
		k := spanKey{c.EntityType(), c.Start(), c.End()}
		if prev, ok := best[k]; ok && prev.Score() >= c.Score() {
			return
		}
		best[k] = c
	}

	for _, p := range s.patterns {
		for _, loc := range p.Regexp().FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] || !p.Accept(text, loc[0], loc[1]) {
				continue
			}
			keep(detector.NewCandidate(seg, detector.CandidateSpec{
				EntityType:          p.EntityType,
				Start:               loc[0],
				End:                 loc[1],
				Score:               p.Score,
				Layer:               detector.LayerPattern,
				PatternUsed:         p.Name,
				Geography:           string(p.Geography),
				RegulatoryFramework: p.RegulatoryFramework,
			}))
		}
	}

	if s.recognizer != nil {
		for _, c := range s.recognize(seg) {
			keep(c)
		}
	}

	out := make([]detector.CandidateEntity, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start() != out[j].Start() {
			return out[i].Start() < out[j].Start()
		}
		if out[i].End() != out[j].End() {
			return out[i].End() < out[j].End()
		}
		return out[i].EntityType() < out[j].EntityType()
	})

	for _, c := range out {
		s.metrics.ObserveCandidate(c.EntityType(), c.Layer())
		if ce := s.logger.Check(zap.DebugLevel, "pii detected"); ce != nil {
			ce.Write(append(observability.Detection(c.EntityType(), c.Score(), c.Layer(), c.PatternUsed()),
				zap.Bool("needs_layer2", c.NeedsLayer2()))...)
		}
	}
	return out
}

// recognize maps recognizer hits onto candidates. Catalog metadata is used
// when the entity type is known; otherwise the hit is GLOBAL with no
// regulatory framework. A failing recognizer is logged and skipped so the
// catalog results still stand.
func (s *Scorer) recognize(seg *detector.TextSegment) []detector.CandidateEntity {
	hits, err := s.recognizer.Recognize(seg.Text)
	if err != nil {
		s.logger.Warn("recognizer failed, continuing with catalog results",
			zap.String("recognizer", s.recognizer.Name()),
			zap.Error(err))
		return nil
	}

	out := make([]detector.CandidateEntity, 0, len(hits))
	for _, h := range hits {
		if h.Start < 0 || h.End > len(seg.Text) || h.Start >= h.End || h.EntityType == "" {
			s.logger.Debug("dropping out-of-range recognizer hit",
				zap.String("recognizer", s.recognizer.Name()),
				zap.String("entity_type", h.EntityType))
			continue
		}
		spec := detector.CandidateSpec{
			EntityType:  h.EntityType,
			Start:       h.Start,
			End:         h.End,
			Score:       h.Score,
			Layer:       detector.LayerPattern,
			PatternUsed: s.recognizer.Name(),
			Geography:   string(catalog.GeographyGlobal),
		}
		if p, ok := s.catalog.Lookup(h.EntityType); ok {
			spec.Geography = string(p.Geography)
			spec.RegulatoryFramework = p.RegulatoryFramework
			spec.PatternUsed = p.Name
		}
		out = append(out, detector.NewCandidate(seg, spec))
	}
	return out
}
