// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for detection, resolution and storage policy.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Candidates emitted by entity type and extraction layer
	Candidates *prometheus.CounterVec

	// Score boosts applied by layer
	Boosts *prometheus.CounterVec

	// Resolved groups by review flag
	Groups *prometheus.CounterVec

	// Subjects by outcome: "created" or "merged"
	Subjects *prometheus.CounterVec

	// Storage payloads by policy tag
	Payloads *prometheus.CounterVec

	// Storage policy refusals by reason
	PolicyFailures *prometheus.CounterVec

	DocumentLatency prometheus.Histogram
	ResolveLatency  prometheus.Histogram
}

// New registers all metrics on reg. Passing a fresh registry keeps tests
// independent of the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pii_candidates_total",
			Help: "Candidate entities emitted by entity type and extraction layer",
		}, []string{"entity_type", "layer"}),

		Boosts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pii_score_boosts_total",
			Help: "Score boosts applied by context and positional layers",
		}, []string{"layer"}),

		Groups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pii_resolved_groups_total",
			Help: "Resolved groups by human review flag",
		}, []string{"needs_review"}),

		Subjects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pii_subjects_total",
			Help: "Canonical subjects created or merged into an existing subject",
		}, []string{"outcome"}),

		Payloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pii_storage_payloads_total",
			Help: "Storage payloads built by policy tag",
		}, []string{"policy"}),

		PolicyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pii_storage_policy_failures_total",
			Help: "Storage policy refusals by reason",
		}, []string{"reason"}),

		DocumentLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pii_document_detection_duration_seconds",
			Help:    "Duration of detection over one document",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		ResolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pii_resolve_duration_seconds",
			Help:    "Duration of entity resolution over one batch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
	}
}

// ObserveCandidate counts an emitted candidate.
func (m *Metrics) ObserveCandidate(entityType, layer string) {
	if m != nil {
		m.Candidates.WithLabelValues(entityType, layer).Inc()
	}
}

// ObserveBoost counts a score boost.
func (m *Metrics) ObserveBoost(layer string) {
	if m != nil {
		m.Boosts.WithLabelValues(layer).Inc()
	}
}

// ObserveGroup counts a resolved group.
func (m *Metrics) ObserveGroup(needsReview bool) {
	if m == nil {
		return
	}
	label := "false"
	if needsReview {
		label = "true"
	}
	m.Groups.WithLabelValues(label).Inc()
}

// ObserveSubject counts a subject outcome.
func (m *Metrics) ObserveSubject(merged bool) {
	if m == nil {
		return
	}
	outcome := "created"
	if merged {
		outcome = "merged"
	}
	m.Subjects.WithLabelValues(outcome).Inc()
}

// ObservePayload counts a storage payload.
func (m *Metrics) ObservePayload(policy string) {
	if m != nil {
		m.Payloads.WithLabelValues(policy).Inc()
	}
}

// ObservePolicyFailure counts a policy refusal.
func (m *Metrics) ObservePolicyFailure(reason string) {
	if m != nil {
		m.PolicyFailures.WithLabelValues(reason).Inc()
	}
}

// ObserveDocument records the detection time of one document.
func (m *Metrics) ObserveDocument(d time.Duration) {
	if m != nil {
		m.DocumentLatency.Observe(d.Seconds())
	}
}

// ObserveResolve records the duration of one resolve pass.
func (m *Metrics) ObserveResolve(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}
