// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pii-linkage/internal/metrics"
	"pii-linkage/internal/resilience"
	"pii-linkage/internal/resolver"
)

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithLocker replaces the in-process KeyedMutex, e.g. with a distributed lock
// when several processes write to one store.
func WithLocker(l KeyLocker) Option {
	return func(d *Deduplicator) { d.locker = l }
}

// WithLogger sets the logger. Only ids, counts and confidences are logged.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Deduplicator) { d.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Deduplicator) { d.metrics = m }
}

// WithWorkers bounds how many groups are processed at once.
func WithWorkers(n int) Option {
	return func(d *Deduplicator) { d.workers = n }
}

// WithRetry sets the retry policy for store calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(d *Deduplicator) { d.retry = cfg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) { d.now = now }
}

// Deduplicator persists one Subject per resolved group, merging into an
// existing Subject found by canonical email, then by canonical phone.
type Deduplicator struct {
	store   SubjectStore
	locker  KeyLocker
	logger  *zap.Logger
	metrics *metrics.Metrics
	workers int
	retry   resilience.RetryConfig
	now     func() time.Time
}

// New creates a Deduplicator over store.
func New(store SubjectStore, opts ...Option) *Deduplicator {
	d := &Deduplicator{
		store:   store,
		locker:  NewKeyedMutex(),
		logger:  zap.NewNop(),
		workers: runtime.NumCPU(),
		retry:   resilience.DefaultRetryConfig(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.workers < 1 {
		d.workers = 1
	}
	return d
}

// BuildSubjects canonicalizes and upserts every group. Groups are processed
// concurrently; subjects are returned in group order. Work on the same
// email or phone is serialized through the KeyLocker.
func (d *Deduplicator) BuildSubjects(ctx context.Context, groups []resolver.ResolvedGroup) ([]*Subject, error) {
	out := make([]*Subject, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := range groups {
		g.Go(func() error {
			s, _, err := d.Upsert(ctx, Canonicalize(&groups[i]))
			if err != nil {
				return fmt.Errorf("failed to persist group %s: %w", groups[i].GroupID, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert stores incoming, or merges it into the existing Subject that shares
// its canonical email or phone. merged reports which happened. The merge is
// computed in full before a single Update call.
func (d *Deduplicator) Upsert(ctx context.Context, incoming *Subject) (subject *Subject, merged bool, err error) {
	keys := identityKeys(incoming)
	unlock, err := d.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock identity keys: %w", err)
	}
	defer unlock()

	existing, err := d.findExisting(ctx, incoming)
	if err != nil {
		return nil, false, err
	}

	now := d.now().UTC()
	if existing == nil {
		s := incoming.Clone()
		s.CreatedAt, s.UpdatedAt = now, now
		if err := d.write(ctx, func(ctx context.Context) error { return d.store.Insert(ctx, s) }); err != nil {
			return nil, false, fmt.Errorf("failed to insert subject: %w", err)
		}
		d.metrics.ObserveSubject(false)
		d.logger.Debug("subject created",
			zap.String("subject_id", s.SubjectID),
			zap.Strings("pii_types", s.PIITypesFound),
			zap.Float64("merge_confidence", s.MergeConfidence))
		return s, false, nil
	}

	// The subject may also be reachable through a key this call does not
	// hold. The subject lock is always taken last.
	unlockSubject, err := d.locker.Lock(ctx, subjectKey(existing.SubjectID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock subject: %w", err)
	}
	defer unlockSubject()
	current, err := resilience.RetryWithResult(ctx, d.retry, func(ctx context.Context) (*Subject, error) {
		return d.store.Get(ctx, existing.SubjectID)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload subject: %w", err)
	}

	result := current.MergedWith(incoming, now)
	if err := d.write(ctx, func(ctx context.Context) error { return d.store.Update(ctx, result) }); err != nil {
		return nil, false, fmt.Errorf("failed to update subject: %w", err)
	}
	d.metrics.ObserveSubject(true)
	d.logger.Debug("subject merged",
		zap.String("subject_id", result.SubjectID),
		zap.Int("source_records", len(result.SourceRecords)),
		zap.Float64("merge_confidence", result.MergeConfidence))
	return result, true, nil
}

func (d *Deduplicator) findExisting(ctx context.Context, s *Subject) (*Subject, error) {
	lookups := []struct {
		value string
		find  func(context.Context, string) (*Subject, error)
	}{
		{s.CanonicalEmail, d.store.FindByEmail},
		{s.CanonicalPhone, d.store.FindByPhone},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		hit, err := resilience.RetryWithResult(ctx, d.retry, func(ctx context.Context) (*Subject, error) {
			return l.find(ctx, l.value)
		})
		switch {
		case err == nil:
			return hit, nil
		case errors.Is(err, ErrSubjectNotFound):
			continue
		default:
			return nil, fmt.Errorf("failed to look up subject: %w", err)
		}
	}
	return nil, nil
}

func (d *Deduplicator) write(ctx context.Context, op resilience.RetryableOperation) error {
	return resilience.RetryWithBackoff(ctx, d.retry, op)
}

func identityKeys(s *Subject) []string {
	var keys []string
	if s.CanonicalEmail != "" {
		keys = append(keys, IdentityKey("email", s.CanonicalEmail))
	}
	if s.CanonicalPhone != "" {
		keys = append(keys, IdentityKey("phone", s.CanonicalPhone))
	}
	return keys
}

func subjectKey(id string) string { return "subject:" + id }
