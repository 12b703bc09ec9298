// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/dedup"
	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
	"pii-linkage/internal/observability"
	"pii-linkage/internal/parallel"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/readers"
	"pii-linkage/internal/resilience"
	"pii-linkage/internal/resolver"
)

// Document is one input file.
type Document struct {
	ID   string
	Path string
}

// DocumentsFromPaths uses each path as its document id.
func DocumentsFromPaths(paths []string) []Document {
	docs := make([]Document, len(paths))
	for i, p := range paths {
		docs[i] = Document{ID: filepath.Clean(p), Path: p}
	}
	return docs
}

// PayloadSink persists storage payloads.
type PayloadSink interface {
	SavePayloads(ctx context.Context, entries []policy.Entry) error
}

// Components are the stages an Engine drives. Readers, Resolver,
// Deduplicator and Policy are required.
type Components struct {
	Readers      *readers.Registry
	Catalog      *catalog.Catalog
	Geographies  []catalog.Geography
	Recognizer   detector.RecognizerFactory
	Resolver     *resolver.Resolver
	Deduplicator *dedup.Deduplicator
	Policy       *policy.Engine
	Payloads     PayloadSink
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of document workers.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithProjector replaces the default Projector.
func WithProjector(p *Projector) Option {
	return func(e *Engine) { e.projector = p }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRetry overrides the retry policy for payload writes.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(e *Engine) { e.retry = cfg }
}

// WithProgress sets a callback invoked as each document finishes.
func WithProgress(cb parallel.ProgressCallback) Option {
	return func(e *Engine) { e.progress = cb }
}

// Engine runs a batch of documents end to end.
type Engine struct {
	c         Components
	projector *Projector
	workers   int
	logger    *zap.Logger
	observer  *observability.StandardObserver
	metrics   *metrics.Metrics
	progress  parallel.ProgressCallback
	retry     resilience.RetryConfig
}

// NewEngine checks the required components and creates an Engine.
func NewEngine(c Components, opts ...Option) (*Engine, error) {
	switch {
	case c.Readers == nil:
		return nil, errors.New("pipeline: readers are required")
	case c.Resolver == nil:
		return nil, errors.New("pipeline: resolver is required")
	case c.Deduplicator == nil:
		return nil, errors.New("pipeline: deduplicator is required")
	case c.Policy == nil:
		return nil, errors.New("pipeline: storage policy is required")
	}
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}
	e := &Engine{
		c:         c,
		projector: NewProjector(),
		workers:   parallel.DefaultWorkers(),
		logger:    zap.NewNop(),
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.observer = observability.NewStandardObserver(e.logger)
	return e, nil
}

// documentResult is what a worker hands back for one document.
type documentResult struct {
	detections  int
	projections []Projection
}

// Run detects, resolves, applies the storage policy and deduplicates a
// batch of documents. A document that cannot be read is reported in the
// Report and does not stop the batch. Store and policy failures do.
func (e *Engine) Run(ctx context.Context, docs []Document) (*Report, error) {
	start := time.Now()
	finishTiming := e.observer.StartTiming("pipeline", "run", "batch")

	results, stats, err := parallel.Process(ctx, e.workers, e.newHandler, docs,
		func(_ int, d Document) string { return d.ID }, e.observer, e.progress)
	if err != nil {
		finishTiming(false, zap.Error(err))
		return nil, err
	}

	report := &Report{Documents: len(docs), Workers: stats.WorkerCount}
	var projections []Projection
	for _, r := range results {
		if r.Err != nil {
			report.Failures = append(report.Failures, DocumentFailure{DocumentID: r.Input.ID, Error: r.Err.Error()})
			continue
		}
		report.Detections += r.Value.detections
		projections = append(projections, r.Value.projections...)
	}
	report.Records = len(projections)

	records := make([]resolver.LinkageRecord, len(projections))
	for i, p := range projections {
		records[i] = p.Record
	}
	groups := e.c.Resolver.Resolve(records)

	// The policy runs before the first store write so a refusal leaves
	// nothing persisted.
	entries, err := e.applyPolicy(projections)
	if err != nil {
		finishTiming(false, zap.Error(err))
		return nil, err
	}
	report.Payloads = entries

	subjects, err := e.c.Deduplicator.BuildSubjects(ctx, groups)
	if err != nil {
		finishTiming(false, zap.Error(err))
		return nil, fmt.Errorf("failed to build subjects: %w", err)
	}
	report.addGroups(groups, subjects)

	if e.c.Payloads != nil && len(entries) > 0 {
		err := resilience.RetryWithBackoff(ctx, e.retry, func(ctx context.Context) error {
			return e.c.Payloads.SavePayloads(ctx, entries)
		})
		if err != nil {
			finishTiming(false, zap.Error(err))
			return nil, fmt.Errorf("failed to save storage payloads: %w", err)
		}
	}

	report.Duration = time.Since(start)
	finishTiming(true,
		zap.Int("documents", report.Documents),
		zap.Int("failed_documents", len(report.Failures)),
		zap.Int("records", report.Records),
		zap.Int("groups", len(report.Groups)),
		zap.Int("subjects", len(report.Subjects)))
	return report, nil
}

// newHandler gives each worker its own Detector and recognizer.
func (e *Engine) newHandler(workerID int) (parallel.Handler[Document, documentResult], error) {
	var rec detector.Recognizer
	if e.c.Recognizer != nil {
		r, err := e.c.Recognizer()
		if err != nil {
			return nil, fmt.Errorf("failed to create recognizer: %w", err)
		}
		rec = r
	}
	det := NewDetector(e.c.Catalog, e.c.Geographies, rec, e.logger.With(zap.Int("worker_id", workerID)), e.metrics)

	return func(ctx context.Context, doc Document) (documentResult, error) {
		start := time.Now()
		sheets, err := e.c.Readers.Read(ctx, doc.Path)
		if err != nil {
			return documentResult{}, err
		}
		var detections []Detection
		for _, sheet := range sheets {
			if err := ctx.Err(); err != nil {
				return documentResult{}, err
			}
			detections = append(detections, det.DetectSheet(sheet.Segments)...)
		}
		e.metrics.ObserveDocument(time.Since(start))
		return documentResult{
			detections:  len(detections),
			projections: e.projector.Project(doc.ID, detections),
		}, nil
	}, nil
}

// applyPolicy builds a payload for every projected record. Any refusal,
// including missing encryption in investigation mode, fails the batch.
func (e *Engine) applyPolicy(projections []Projection) ([]policy.Entry, error) {
	entries := make([]policy.Entry, 0, len(projections))
	for _, p := range projections {
		payload, err := e.c.Policy.Apply(p.Record.EntityType, p.RawValue, p.Record.NormalizedValue)
		if err != nil {
			return nil, fmt.Errorf("storage policy refused record %s: %w", p.Record.RecordID, err)
		}
		entries = append(entries, policy.Entry{
			RecordID:   p.Record.RecordID,
			DocumentID: p.Record.SourceDocumentID,
			Payload:    payload,
		})
	}
	return entries, nil
}
