// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pii-linkage/internal/metrics"
)

// Resolution thresholds.
const (
	MergeThreshold      = 0.30
	ReviewThreshold     = 0.80
	SingletonConfidence = 1.0
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Only counts and confidences are logged.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// Resolver groups records by individual. It holds no per-batch state and is
// safe for concurrent use on independent batches.
type Resolver struct {
	anchors Anchor
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a Resolver with the named anchors enabled. An empty list
// enables all of them; an unknown name returns ErrInvalidAnchor.
func New(anchors []string, opts ...Option) (*Resolver, error) {
	set, err := ParseAnchors(anchors)
	if err != nil {
		return nil, err
	}
	r := &Resolver{anchors: set}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// Anchors returns the enabled anchor set.
func (r *Resolver) Anchors() Anchor { return r.anchors }

// Confidence returns the pairwise merge confidence of two records.
func (r *Resolver) Confidence(a, b *LinkageRecord) float64 {
	return BuildConfidence(a, b, r.anchors)
}

type pair struct{ a, b int }

// Resolve partitions records into groups. Every pair at or above
// MergeThreshold is unioned; a group's confidence is the minimum over all of
// its pairs, including pairs linked only transitively. Groups are ordered by
// their first member and members keep input order. Singletons get
// confidence 1.0 and never need review.
func (r *Resolver) Resolve(records []LinkageRecord) []ResolvedGroup {
	n := len(records)
	if n == 0 {
		return nil
	}
	start := time.Now()

	uf := newUnionFind(n)
	merged := make(map[pair]float64)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			conf := r.Confidence(&records[i], &records[j])
			if conf >= MergeThreshold {
				uf.union(i, j)
				merged[pair{i, j}] = conf
			}
		}
	}

	var roots []int
	members := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], i)
	}

	groups := make([]ResolvedGroup, 0, len(roots))
	reviews := 0
	for _, root := range roots {
		idx := members[root]
		g := ResolvedGroup{
			GroupID:         uuid.NewString(),
			Records:         make([]LinkageRecord, len(idx)),
			MergeConfidence: SingletonConfidence,
		}
		for k, i := range idx {
			g.Records[k] = records[i]
		}
		if len(idx) > 1 {
			g.MergeConfidence = r.minConfidence(records, idx, merged)
			g.NeedsHumanReview = g.MergeConfidence < ReviewThreshold
		}
		if g.NeedsHumanReview {
			reviews++
		}
		r.metrics.ObserveGroup(g.NeedsHumanReview)
		groups = append(groups, g)
	}

	r.metrics.ObserveResolve(time.Since(start))
	r.logger.Debug("resolved records",
		zap.Int("records", n),
		zap.Int("groups", len(groups)),
		zap.Int("needs_review", reviews),
		zap.Strings("anchors", r.anchors.Names()))
	return groups
}

// minConfidence consults the union-pass cache first and recomputes only the
// pairs that were linked transitively.
func (r *Resolver) minConfidence(records []LinkageRecord, idx []int, merged map[pair]float64) float64 {
	lowest := SingletonConfidence
	for x := 0; x < len(idx); x++ {
		for y := x + 1; y < len(idx); y++ {
			conf, ok := merged[pair{idx[x], idx[y]}]
			if !ok {
				conf = r.Confidence(&records[idx[x]], &records[idx[y]])
			}
			lowest = min(lowest, conf)
		}
	}
	return lowest
}
