// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package dedup turns resolved groups into canonical Subjects and merges
// them with Subjects already persisted for the same email or phone.
package dedup

import (
	"slices"
	"sort"
	"time"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/normalize"
)

// ReviewStatus tracks a Subject through the review workflow.
type ReviewStatus string

const (
	ReviewAIPending   ReviewStatus = "AI_PENDING"
	ReviewHumanReview ReviewStatus = "HUMAN_REVIEW"
	ReviewApproved    ReviewStatus = "APPROVED"
	ReviewRejected    ReviewStatus = "REJECTED"
)

// Subject is the canonical record for one individual. Canonical fields hold
// raw PII and are never logged. PIITypesFound is a sorted set and
// SourceRecords keeps first-seen order without duplicates.
type Subject struct {
	SubjectID            string             `json:"subject_id" yaml:"subject_id"`
	CanonicalName        string             `json:"canonical_name,omitempty" yaml:"canonical_name,omitempty"`
	CanonicalEmail       string             `json:"canonical_email,omitempty" yaml:"canonical_email,omitempty"`
	CanonicalPhone       string             `json:"canonical_phone,omitempty" yaml:"canonical_phone,omitempty"`
	CanonicalAddress     *normalize.Address `json:"canonical_address,omitempty" yaml:"canonical_address,omitempty"`
	PIITypesFound        []string           `json:"pii_types_found" yaml:"pii_types_found"`
	SourceRecords        []string           `json:"source_records" yaml:"source_records"`
	MergeConfidence      float64            `json:"merge_confidence" yaml:"merge_confidence"`
	ReviewStatus         ReviewStatus       `json:"review_status" yaml:"review_status"`
	NotificationRequired bool               `json:"notification_required" yaml:"notification_required"`
	CreatedAt            time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" yaml:"updated_at"`
}

// Categories returns the sorted union of the sensitivity categories of every
// PII type found for the subject.
func (s *Subject) Categories() []string {
	seen := make(map[string]bool)
	for _, t := range s.PIITypesFound {
		for _, c := range catalog.Categories(t) {
			seen[c] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (s *Subject) Clone() *Subject {
	c := *s
	c.PIITypesFound = slices.Clone(s.PIITypesFound)
	c.SourceRecords = slices.Clone(s.SourceRecords)
	if s.CanonicalAddress != nil {
		addr := *s.CanonicalAddress
		c.CanonicalAddress = &addr
	}
	return &c
}

// MergedWith returns a copy of s with incoming folded in: PII types are
// unioned, new source records appended and the lower of the two
// confidences kept. Canonical fields and review state of s are unchanged.
// Neither input is modified, so the result can be written in one step.
func (s *Subject) MergedWith(incoming *Subject, now time.Time) *Subject {
	out := s.Clone()
	out.PIITypesFound = unionSorted(s.PIITypesFound, incoming.PIITypesFound)
	out.SourceRecords = appendMissing(out.SourceRecords, incoming.SourceRecords)
	out.MergeConfidence = min(s.MergeConfidence, incoming.MergeConfidence)
	out.UpdatedAt = now
	return out
}

func unionSorted(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func appendMissing(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range src {
		if !seen[v] {
			dst = append(dst, v)
			seen[v] = true
		}
	}
	return dst
}
