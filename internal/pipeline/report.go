// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"slices"
	"time"

	"pii-linkage/internal/dedup"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/resolver"
)

// DocumentFailure records a document that could not be processed.
type DocumentFailure struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Error      string `json:"error" yaml:"error"`
}

// GroupSummary describes a resolved group without its raw values.
type GroupSummary struct {
	GroupID          string   `json:"group_id" yaml:"group_id"`
	SubjectID        string   `json:"subject_id" yaml:"subject_id"`
	RecordIDs        []string `json:"record_ids" yaml:"record_ids"`
	EntityTypes      []string `json:"entity_types" yaml:"entity_types"`
	Documents        []string `json:"documents" yaml:"documents"`
	MergeConfidence  float64  `json:"merge_confidence" yaml:"merge_confidence"`
	NeedsHumanReview bool     `json:"needs_human_review" yaml:"needs_human_review"`
}

// Report is the outcome of one Run. Subjects carry canonical raw values and
// Payloads may carry normalized ones; render them through a masking view.
type Report struct {
	Documents  int               `json:"documents" yaml:"documents"`
	Workers    int               `json:"workers" yaml:"workers"`
	Failures   []DocumentFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Detections int               `json:"detections" yaml:"detections"`
	Records    int               `json:"records" yaml:"records"`
	Groups     []GroupSummary    `json:"groups" yaml:"groups"`
	Subjects   []*dedup.Subject  `json:"-" yaml:"-"`
	Payloads   []policy.Entry    `json:"-" yaml:"-"`
	Duration   time.Duration     `json:"duration_ns" yaml:"duration_ns"`
}

// ReviewCount returns how many groups need human review.
func (r *Report) ReviewCount() int {
	n := 0
	for _, g := range r.Groups {
		if g.NeedsHumanReview {
			n++
		}
	}
	return n
}

// PayloadsByPolicy counts payloads per storage policy tag.
func (r *Report) PayloadsByPolicy() map[string]int {
	out := make(map[string]int)
	for _, p := range r.Payloads {
		out[p.StoragePolicy]++
	}
	return out
}

// addGroups summarizes groups; subjects[i] is the subject of groups[i].
// Subjects merged into the same stored subject are listed once.
func (r *Report) addGroups(groups []resolver.ResolvedGroup, subjects []*dedup.Subject) {
	seen := make(map[string]int)
	for i := range groups {
		g := &groups[i]
		s := subjects[i]
		var types, docs []string
		for _, rec := range g.Records {
			types = append(types, rec.EntityType)
			docs = append(docs, rec.SourceDocumentID)
		}
		slices.Sort(types)
		slices.Sort(docs)
		r.Groups = append(r.Groups, GroupSummary{
			GroupID:          g.GroupID,
			SubjectID:        s.SubjectID,
			RecordIDs:        g.RecordIDs(),
			EntityTypes:      slices.Compact(types),
			Documents:        slices.Compact(docs),
			MergeConfidence:  g.MergeConfidence,
			NeedsHumanReview: g.NeedsHumanReview,
		})
		if j, ok := seen[s.SubjectID]; ok {
			r.Subjects[j] = s
			continue
		}
		seen[s.SubjectID] = len(r.Subjects)
		r.Subjects = append(r.Subjects, s)
	}
}
