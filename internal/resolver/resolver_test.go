// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pii-linkage/internal/metrics"
	"pii-linkage/internal/normalize"
)

func TestParseAnchors(t *testing.T) {
	all, err := ParseAnchors(nil)
	require.NoError(t, err)
	assert.Equal(t, AllAnchors, all)

	all, err = ParseAnchors([]string{})
	require.NoError(t, err)
	assert.Equal(t, AllAnchors, all)

	set, err := ParseAnchors([]string{" EMAIL ", "phone"})
	require.NoError(t, err)
	assert.Equal(t, AnchorEmail|AnchorPhone, set)
	assert.Equal(t, []string{"email", "phone"}, set.Names())

	_, err = ParseAnchors([]string{"email", "retina"})
	require.ErrorIs(t, err, ErrInvalidAnchor)
	assert.Contains(t, err.Error(), "retina")

	_, err = New([]string{"bogus"})
	assert.ErrorIs(t, err, ErrInvalidAnchor)
}

func TestValidAnchorNames(t *testing.T) {
	assert.Equal(t, []string{"email", "name", "name_address", "name_dob", "phone", "ssn"}, ValidAnchorNames())
}

func TestGovernmentIDKind(t *testing.T) {
	assert.Equal(t, "SSN", GovernmentIDKind("SSN_NODASH"))
	assert.Equal(t, "SSN", GovernmentIDKind("us_ssn"))
	assert.Equal(t, "PASSPORT", GovernmentIDKind("PASSPORT_UK"))
	assert.Empty(t, GovernmentIDKind("EMAIL"))
}

func TestBuildConfidence(t *testing.T) {
	addr := &normalize.Address{Street: "1 main st", Zip: "12345", Country: "US"}
	otherAddr := &normalize.Address{Street: "9 oak ave", Zip: "99999", Country: "US"}

	tests := []struct {
		name    string
		a, b    LinkageRecord
		anchors Anchor
		want    float64
	}{
		{
			name: "no signal",
			a:    LinkageRecord{EntityType: "EMAIL", RawEmail: "a@example.com"},
			b:    LinkageRecord{EntityType: "EMAIL", RawEmail: "b@example.com"},
			want: 0,
		},
		{
			name: "email normalizes equal",
			a:    LinkageRecord{RawEmail: "J.Doe@Example.com"},
			b:    LinkageRecord{RawEmail: " j.doe@example.com"},
			want: WeightEmail,
		},
		{
			name: "phone exact",
			a:    LinkageRecord{RawPhone: "+15551234567"},
			b:    LinkageRecord{RawPhone: "+15551234567"},
			want: WeightPhone,
		},
		{
			name: "government id across shapes",
			a:    LinkageRecord{EntityType: "SSN", NormalizedValue: "123456789"},
			b:    LinkageRecord{EntityType: "SSN_NODASH", NormalizedValue: "123456789"},
			want: WeightGovernmentID,
		},
		{
			name: "government id one misread",
			a:    LinkageRecord{EntityType: "SSN", NormalizedValue: "123456789"},
			b:    LinkageRecord{EntityType: "SSN", NormalizedValue: "123456780"},
			want: WeightGovernmentID,
		},
		{
			name: "government id different kinds",
			a:    LinkageRecord{EntityType: "SSN", NormalizedValue: "123456789"},
			b:    LinkageRecord{EntityType: "PASSPORT_UK", NormalizedValue: "123456789"},
			want: 0,
		},
		{
			name: "same value but not a government id",
			a:    LinkageRecord{EntityType: "IPV4", NormalizedValue: "10.0.0.1"},
			b:    LinkageRecord{EntityType: "IPV4", NormalizedValue: "10.0.0.1"},
			want: 0,
		},
		{
			name: "name alone",
			a:    LinkageRecord{RawName: "John Doe"},
			b:    LinkageRecord{RawName: "Jon Doe"},
			want: WeightName,
		},
		{
			name: "name and dob",
			a:    LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15"},
			b:    LinkageRecord{RawName: "John Doe", RawDOB: "03/15/1990"},
			want: WeightNameDOB + WeightName,
		},
		{
			name: "dob and address are exclusive",
			a:    LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15", RawAddress: addr},
			b:    LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15", RawAddress: addr},
			want: WeightNameDOB + WeightName,
		},
		{
			name: "address when dob disagrees",
			a:    LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15", RawAddress: addr},
			b:    LinkageRecord{RawName: "John Doe", RawDOB: "1991-03-15", RawAddress: addr},
			want: WeightNameAddress + WeightName,
		},
		{
			name: "address mismatch",
			a:    LinkageRecord{RawName: "John Doe", RawAddress: addr},
			b:    LinkageRecord{RawName: "John Doe", RawAddress: otherAddr},
			want: WeightName,
		},
		{
			name: "dob without name match",
			a:    LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15"},
			b:    LinkageRecord{RawName: "Mary Major", RawDOB: "1990-03-15"},
			want: 0,
		},
		{
			name: "capped",
			a: LinkageRecord{EntityType: "SSN", NormalizedValue: "123456789", RawEmail: "a@x.io",
				RawPhone: "+15551234567", RawName: "John Doe", RawDOB: "1990-03-15"},
			b: LinkageRecord{EntityType: "SSN", NormalizedValue: "123456789", RawEmail: "a@x.io",
				RawPhone: "+15551234567", RawName: "John Doe", RawDOB: "1990-03-15"},
			want: 1.0,
		},
		{
			name: "anchors restrict signals",
			a: LinkageRecord{RawEmail: "a@x.io", RawPhone: "+15551234567",
				RawName: "John Doe", RawDOB: "1990-03-15"},
			b: LinkageRecord{RawEmail: "a@x.io", RawPhone: "+15551234567",
				RawName: "John Doe", RawDOB: "1990-03-15"},
			anchors: AnchorEmail | AnchorName,
			want:    WeightEmail + WeightName,
		},
		{
			name:    "name_dob without name anchor",
			a:       LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15"},
			b:       LinkageRecord{RawName: "John Doe", RawDOB: "1990-03-15"},
			anchors: AnchorNameDOB,
			want:    WeightNameDOB,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchors := tt.anchors
			if anchors == 0 {
				anchors = AllAnchors
			}
			got := BuildConfidence(&tt.a, &tt.b, anchors)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, got, BuildConfidence(&tt.b, &tt.a, anchors), 1e-9, "symmetric")
		})
	}
}

func newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(nil, opts...)
	require.NoError(t, err)
	return r
}

func TestResolveEmpty(t *testing.T) {
	assert.Empty(t, newResolver(t).Resolve(nil))
}

func TestResolveEndToEnd(t *testing.T) {
	records := []LinkageRecord{
		{RecordID: "r1", EntityType: "EMAIL", RawEmail: "j.doe@example.com", RawName: "John Doe", RawDOB: "1990-03-15"},
		{RecordID: "r2", EntityType: "PERSON", RawEmail: "j.doe@example.com", RawName: "Jon Doe", RawDOB: "03/15/1990"},
		{RecordID: "r3", EntityType: "PHONE_US", RawPhone: "+15550000000"},
	}
	r := newResolver(t)
	assert.GreaterOrEqual(t, r.Confidence(&records[0], &records[1]), 0.85)

	groups := r.Resolve(records)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"r1", "r2"}, groups[0].RecordIDs())
	assert.GreaterOrEqual(t, groups[0].MergeConfidence, 0.85)
	assert.False(t, groups[0].NeedsHumanReview)
	assert.NotEmpty(t, groups[0].GroupID)

	assert.Equal(t, []string{"r3"}, groups[1].RecordIDs())
	assert.Equal(t, SingletonConfidence, groups[1].MergeConfidence)
	assert.False(t, groups[1].NeedsHumanReview)
	assert.NotEqual(t, groups[0].GroupID, groups[1].GroupID)
}

func TestResolveReviewFlag(t *testing.T) {
	records := []LinkageRecord{
		{RecordID: "a", RawEmail: "x@example.com"},
		{RecordID: "b", RawEmail: "x@example.com"},
	}
	groups := newResolver(t).Resolve(records)
	require.Len(t, groups, 1)
	assert.InDelta(t, WeightEmail, groups[0].MergeConfidence, 1e-9)
	assert.True(t, groups[0].NeedsHumanReview)
}

func TestResolveTransitiveMinimum(t *testing.T) {
	// a-b share an email, b-c share a phone, a and c share nothing.
	records := []LinkageRecord{
		{RecordID: "a", RawEmail: "x@example.com"},
		{RecordID: "b", RawEmail: "x@example.com", RawPhone: "+15551112222"},
		{RecordID: "c", RawPhone: "+15551112222"},
	}
	groups := newResolver(t).Resolve(records)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a", "b", "c"}, groups[0].RecordIDs())
	assert.Equal(t, 0.0, groups[0].MergeConfidence)
	assert.True(t, groups[0].NeedsHumanReview)
}

func TestResolveBelowThreshold(t *testing.T) {
	records := []LinkageRecord{
		{RecordID: "a", RawName: "John Doe"},
		{RecordID: "b", RawName: "John Doe"},
	}
	groups := newResolver(t).Resolve(records)
	require.Len(t, groups, 2, "a name match alone does not reach the merge threshold")
}

func fingerprint(groups []ResolvedGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		ids := g.RecordIDs()
		sort.Strings(ids)
		out = append(out, fmt.Sprintf("%s@%.4f/%t", strings.Join(ids, ","), g.MergeConfidence, g.NeedsHumanReview))
	}
	sort.Strings(out)
	return out
}

func TestResolveOrderIndependent(t *testing.T) {
	addr := &normalize.Address{Street: "1 main st", Zip: "12345", Country: "US"}
	records := []LinkageRecord{
		{RecordID: "1", EntityType: "SSN", NormalizedValue: "123456789", RawName: "John Doe"},
		{RecordID: "2", EntityType: "SSN_NODASH", NormalizedValue: "123456789", RawEmail: "jd@example.com"},
		{RecordID: "3", EntityType: "EMAIL", RawEmail: "JD@example.com", RawName: "John Doe", RawAddress: addr},
		{RecordID: "4", EntityType: "PERSON", RawName: "Jon Doe", RawAddress: addr, RawPhone: "+15559990000"},
		{RecordID: "5", EntityType: "PHONE_US", RawPhone: "+15559990000"},
		{RecordID: "6", EntityType: "PERSON", RawName: "Mary Major"},
		{RecordID: "7", EntityType: "EMAIL", RawEmail: "mm@example.com", RawName: "Mary Major"},
	}
	r := newResolver(t)
	want := fingerprint(r.Resolve(records))

	orders := [][]int{
		{6, 5, 4, 3, 2, 1, 0},
		{3, 0, 6, 1, 5, 2, 4},
		{1, 3, 5, 0, 2, 4, 6},
	}
	for _, order := range orders {
		shuffled := make([]LinkageRecord, len(order))
		for i, j := range order {
			shuffled[i] = records[j]
		}
		assert.Equal(t, want, fingerprint(r.Resolve(shuffled)), "order %v", order)
	}
	assert.Equal(t, want, fingerprint(r.Resolve(records)), "repeatable")
}

func TestResolveRecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := newResolver(t, WithMetrics(m))
	r.Resolve([]LinkageRecord{
		{RecordID: "a", RawEmail: "x@example.com"},
		{RecordID: "b", RawEmail: "x@example.com"},
		{RecordID: "c"},
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Groups.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Groups.WithLabelValues("false")))
}
