// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pii-linkage/internal/metrics"
	"pii-linkage/internal/normalize"
	"pii-linkage/internal/resilience"
	"pii-linkage/internal/resolver"
)

func TestBestValue(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"empty", nil, ""},
		{"only blanks", []string{"", ""}, ""},
		{"most frequent", []string{"Jon Doe", "John Doe", "Jon Doe"}, "Jon Doe"},
		{"tie goes to longest", []string{"Jon Doe", "John Doe"}, "John Doe"},
		{"tie on length goes to first alphabetically", []string{"bob", "amy"}, "amy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestValue(tt.values))
		})
	}
}

func TestBestAddress(t *testing.T) {
	a := &normalize.Address{Street: "1 main st", Zip: "12345"}
	b := &normalize.Address{Street: "1 main street", Zip: "12345"}
	c := &normalize.Address{Street: "9 oak ave", Zip: "99999"}
	noZip := &normalize.Address{Street: "somewhere"}

	assert.Nil(t, BestAddress(nil))
	assert.Same(t, a, BestAddress([]*normalize.Address{c, a, b}))
	assert.Same(t, noZip, BestAddress([]*normalize.Address{nil, noZip, {City: "x"}}))
	assert.Same(t, c, BestAddress([]*normalize.Address{noZip, c}))
}

func group(confidence float64, review bool, records ...resolver.LinkageRecord) *resolver.ResolvedGroup {
	return &resolver.ResolvedGroup{
		GroupID:          "g",
		Records:          records,
		MergeConfidence:  confidence,
		NeedsHumanReview: review,
	}
}

func TestCanonicalize(t *testing.T) {
	addr := &normalize.Address{Street: "1 main st", Zip: "12345", Country: "US"}
	g := group(0.85, false,
		resolver.LinkageRecord{RecordID: "r1", EntityType: "EMAIL", RawEmail: "J.Doe@Example.com", RawName: "Smith, John"},
		resolver.LinkageRecord{RecordID: "r2", EntityType: "PERSON", RawName: "john smith", RawAddress: addr},
		resolver.LinkageRecord{RecordID: "r3", EntityType: "EMAIL", RawPhone: "+15551234567"},
	)

	s := Canonicalize(g)
	assert.NotEmpty(t, s.SubjectID)
	assert.Equal(t, "John Smith", s.CanonicalName)
	assert.Equal(t, "j.doe@example.com", s.CanonicalEmail)
	assert.Equal(t, "+15551234567", s.CanonicalPhone)
	require.NotNil(t, s.CanonicalAddress)
	assert.Equal(t, "12345", s.CanonicalAddress.Zip)
	assert.NotSame(t, addr, s.CanonicalAddress)
	assert.Equal(t, []string{"EMAIL", "PERSON"}, s.PIITypesFound)
	assert.Equal(t, []string{"r1", "r2", "r3"}, s.SourceRecords)
	assert.Equal(t, 0.85, s.MergeConfidence)
	assert.Equal(t, ReviewAIPending, s.ReviewStatus)
	assert.False(t, s.NotificationRequired)

	flagged := Canonicalize(group(0.40, true, resolver.LinkageRecord{RecordID: "x", EntityType: "SSN"}))
	assert.Equal(t, ReviewHumanReview, flagged.ReviewStatus)
}

func TestSubjectCategories(t *testing.T) {
	s := &Subject{PIITypesFound: []string{"CREDIT_CARD", "EMAIL", "SSN"}}
	assert.Equal(t, []string{"PCI", "PFI", "PII", "SPII"}, s.Categories())
}

func TestMergedWith(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	existing := &Subject{
		SubjectID:       "s1",
		CanonicalEmail:  "a@example.com",
		PIITypesFound:   []string{"EMAIL", "SSN"},
		SourceRecords:   []string{"r1", "r2"},
		MergeConfidence: 0.90,
		ReviewStatus:    ReviewAIPending,
	}
	incoming := &Subject{
		SubjectID:       "s2",
		CanonicalEmail:  "a@example.com",
		CanonicalName:   "Someone Else",
		PIITypesFound:   []string{"PERSON", "EMAIL"},
		SourceRecords:   []string{"r2", "r3"},
		MergeConfidence: 0.70,
		ReviewStatus:    ReviewHumanReview,
	}

	merged := existing.MergedWith(incoming, now)
	assert.Equal(t, "s1", merged.SubjectID)
	assert.Empty(t, merged.CanonicalName, "canonical fields of the existing subject are kept")
	assert.Equal(t, []string{"EMAIL", "PERSON", "SSN"}, merged.PIITypesFound)
	assert.Equal(t, []string{"r1", "r2", "r3"}, merged.SourceRecords)
	assert.Equal(t, 0.70, merged.MergeConfidence)
	assert.Equal(t, ReviewAIPending, merged.ReviewStatus)
	assert.Equal(t, now, merged.UpdatedAt)

	assert.Equal(t, []string{"r1", "r2"}, existing.SourceRecords, "inputs are not modified")
	assert.Equal(t, 0.90, existing.MergeConfidence)

	higher := &Subject{MergeConfidence: 0.99}
	assert.Equal(t, 0.90, existing.MergedWith(higher, now).MergeConfidence, "merging never raises confidence")
}

func newDeduplicator(store SubjectStore, opts ...Option) *Deduplicator {
	fast := resilience.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, Multiplier: 2}
	return New(store, append([]Option{WithRetry(fast)}, opts...)...)
}

func TestUpsertMergesByEmailThenPhone(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	d := newDeduplicator(store, WithMetrics(m))

	first, merged, err := d.Upsert(ctx, &Subject{
		SubjectID: "s1", CanonicalEmail: "a@example.com", CanonicalPhone: "+15550001111",
		PIITypesFound: []string{"EMAIL"}, SourceRecords: []string{"r1"}, MergeConfidence: 0.90,
	})
	require.NoError(t, err)
	assert.False(t, merged)
	assert.False(t, first.CreatedAt.IsZero())

	byEmail, merged, err := d.Upsert(ctx, &Subject{
		SubjectID: "s2", CanonicalEmail: "a@example.com",
		PIITypesFound: []string{"PERSON"}, SourceRecords: []string{"r2"}, MergeConfidence: 0.70,
	})
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, "s1", byEmail.SubjectID)
	assert.Equal(t, 0.70, byEmail.MergeConfidence)

	byPhone, merged, err := d.Upsert(ctx, &Subject{
		SubjectID: "s3", CanonicalEmail: "other@example.com", CanonicalPhone: "+15550001111",
		PIITypesFound: []string{"PHONE_US"}, SourceRecords: []string{"r3", "r1"}, MergeConfidence: 0.95,
	})
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, "s1", byPhone.SubjectID)

	stored, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"EMAIL", "PERSON", "PHONE_US"}, stored.PIITypesFound)
	assert.Equal(t, []string{"r1", "r2", "r3"}, stored.SourceRecords)
	assert.Equal(t, 0.70, stored.MergeConfidence)
	assert.Equal(t, 1, store.Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subjects.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Subjects.WithLabelValues("merged")))
}

func TestUpsertWithoutIdentityKeysInserts(t *testing.T) {
	store := NewMemoryStore()
	d := newDeduplicator(store)
	for i := range 2 {
		_, merged, err := d.Upsert(context.Background(), &Subject{SubjectID: fmt.Sprint(i), CanonicalName: "John Doe"})
		require.NoError(t, err)
		assert.False(t, merged)
	}
	assert.Equal(t, 2, store.Len())
}

func TestBuildSubjectsSerializesSameIdentity(t *testing.T) {
	store := NewMemoryStore()
	d := newDeduplicator(store, WithWorkers(8))

	var groups []resolver.ResolvedGroup
	for i := range 40 {
		conf := 0.95
		if i == 17 {
			conf = 0.61
		}
		groups = append(groups, *group(conf, false, resolver.LinkageRecord{
			RecordID:   fmt.Sprintf("r%02d", i),
			EntityType: "EMAIL",
			RawEmail:   "shared@example.com",
		}))
	}

	subjects, err := d.BuildSubjects(context.Background(), groups)
	require.NoError(t, err)
	require.Len(t, subjects, len(groups))

	require.Equal(t, 1, store.Len(), "one subject per identity")
	s := store.All()[0]
	assert.Len(t, s.SourceRecords, 40)
	assert.Equal(t, 0.61, s.MergeConfidence)
}

type failingStore struct {
	*MemoryStore
	insertErr error
	calls     int
	mu        sync.Mutex
}

func (f *failingStore) Insert(ctx context.Context, s *Subject) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.insertErr
}

func TestUpsertPropagatesStoreErrors(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), insertErr: errors.New("permission denied")}
	d := newDeduplicator(store)

	_, err := d.BuildSubjects(context.Background(), []resolver.ResolvedGroup{
		*group(1, false, resolver.LinkageRecord{RecordID: "r1", EntityType: "EMAIL", RawEmail: "secret@example.com"}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.insertErr)
	assert.NotContains(t, err.Error(), "secret@example.com")
	assert.Equal(t, 1, store.calls, "permanent errors are not retried")
}

func TestUpsertRetriesTransientErrors(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), insertErr: resilience.NewTransientError("connection reset", nil)}
	d := newDeduplicator(store)

	_, _, err := d.Upsert(context.Background(), &Subject{SubjectID: "s", CanonicalEmail: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, 3, store.calls)
}

func TestKeyedMutex(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "b", "a", "a", "")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(short, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := m.Lock(ctx, "c")
	require.NoError(t, err, "unrelated keys do not block")
	other()

	unlock()
	unlock()

	again, err := m.Lock(ctx, "a", "b")
	require.NoError(t, err)
	again()
	assert.Empty(t, m.locks, "released keys are forgotten")
}

func TestIdentityKeyHidesValue(t *testing.T) {
	k := IdentityKey("email", "jane@example.com")
	assert.NotContains(t, k, "jane")
	assert.Equal(t, k, IdentityKey("email", "jane@example.com"))
	assert.NotEqual(t, k, IdentityKey("phone", "jane@example.com"))
}
