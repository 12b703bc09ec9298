// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scoring turns segment text into scored candidate entities. The
// Scorer applies the pattern catalog and an optional general-purpose
// recognizer; the ContextBooster and PositionalBooster refine low-confidence
// and tabular candidates.
package scoring

import (
	"go.uber.org/zap"

	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
)

// MaxScore caps every boosted score.
const MaxScore = 1.0

type options struct {
	logger       *zap.Logger
	metrics      *metrics.Metrics
	recognizer   detector.Recognizer
	contextChars int
}

// Option configures a Scorer or a booster.
type Option func(*options)

// WithLogger sets the logger. Only entity types, scores, layers and pattern or
// header identifiers are ever logged.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRecognizer adds a general-purpose recognizer consulted after the
// catalog. The Scorer owns it; do not share one recognizer between Scorers.
func WithRecognizer(r detector.Recognizer) Option {
	return func(o *options) { o.recognizer = r }
}

// WithContextChars overrides the Layer-2 window size on each side of a match.
func WithContextChars(n int) Option {
	return func(o *options) { o.contextChars = n }
}

func buildOptions(opts []Option) options {
	o := options{contextChars: 100}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
