// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCandidate("SSN", "layer_1_pattern")
	m.ObserveCandidate("SSN", "layer_1_pattern")
	m.ObserveBoost("layer_2_context")
	m.ObserveGroup(true)
	m.ObserveSubject(true)
	m.ObserveSubject(false)
	m.ObservePayload("hash")
	m.ObservePolicyFailure("encryption_unavailable")
	m.ObserveDocument(20 * time.Millisecond)
	m.ObserveResolve(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Candidates.WithLabelValues("SSN", "layer_1_pattern")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Boosts.WithLabelValues("layer_2_context")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Groups.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subjects.WithLabelValues("merged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subjects.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Payloads.WithLabelValues("hash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyFailures.WithLabelValues("encryption_unavailable")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCandidate("EMAIL", "layer_1_pattern")
		m.ObserveBoost("layer_3_positional")
		m.ObserveGroup(false)
		m.ObserveSubject(false)
		m.ObservePayload("encrypted")
		m.ObservePolicyFailure("empty_value")
		m.ObserveDocument(time.Second)
		m.ObserveResolve(time.Second)
	})
}
