// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"sort"
	"strings"

	"pii-linkage/internal/dedup"
	"pii-linkage/internal/formatters"
	"pii-linkage/internal/normalize"
	"pii-linkage/internal/pipeline"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/resolver"
)

// Response is the document rendered by the JSON and YAML formatters.
type Response struct {
	Summary  Summary                    `json:"summary" yaml:"summary"`
	Subjects []SubjectView              `json:"subjects" yaml:"subjects"`
	Groups   []pipeline.GroupSummary    `json:"groups,omitempty" yaml:"groups,omitempty"`
	Failures []pipeline.DocumentFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Summary holds the batch counters.
type Summary struct {
	Documents        int            `json:"documents" yaml:"documents"`
	FailedDocuments  int            `json:"failed_documents" yaml:"failed_documents"`
	Detections       int            `json:"detections" yaml:"detections"`
	Records          int            `json:"records" yaml:"records"`
	Groups           int            `json:"groups" yaml:"groups"`
	NeedsReview      int            `json:"needs_review" yaml:"needs_review"`
	Subjects         int            `json:"subjects" yaml:"subjects"`
	PayloadsByPolicy map[string]int `json:"payloads_by_policy" yaml:"payloads_by_policy"`
	DurationMS       int64          `json:"duration_ms" yaml:"duration_ms"`
}

// SubjectView is a subject with its canonical values masked.
type SubjectView struct {
	SubjectID            string   `json:"subject_id" yaml:"subject_id"`
	Name                 string   `json:"name,omitempty" yaml:"name,omitempty"`
	Email                string   `json:"email,omitempty" yaml:"email,omitempty"`
	Phone                string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address              string   `json:"address,omitempty" yaml:"address,omitempty"`
	PIITypes             []string `json:"pii_types" yaml:"pii_types"`
	Categories           []string `json:"categories" yaml:"categories"`
	SourceRecords        int      `json:"source_records" yaml:"source_records"`
	MergeConfidence      float64  `json:"merge_confidence" yaml:"merge_confidence"`
	ConfidenceLevel      string   `json:"confidence_level" yaml:"confidence_level"`
	ReviewStatus         string   `json:"review_status" yaml:"review_status"`
	NotificationRequired bool     `json:"notification_required" yaml:"notification_required"`
}

// Present replaces a value when masking is turned off entirely.
const Present = "[PRESENT]"

// GetConfidenceLevel returns the confidence level of a merge as a string
func GetConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= resolver.ReviewThreshold:
		return "HIGH"
	case confidence >= resolver.MergeThreshold:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// ConvertReport builds the masked view of a report.
func ConvertReport(report *pipeline.Report, options formatters.FormatterOptions) Response {
	resp := Response{
		Summary: Summary{
			Documents:        report.Documents,
			FailedDocuments:  len(report.Failures),
			Detections:       report.Detections,
			Records:          report.Records,
			Groups:           len(report.Groups),
			NeedsReview:      report.ReviewCount(),
			Subjects:         len(report.Subjects),
			PayloadsByPolicy: report.PayloadsByPolicy(),
			DurationMS:       report.Duration.Milliseconds(),
		},
		Subjects: make([]SubjectView, 0, len(report.Subjects)),
		Failures: report.Failures,
	}
	for _, s := range report.Subjects {
		resp.Subjects = append(resp.Subjects, ConvertSubject(s, options))
	}
	sort.SliceStable(resp.Subjects, func(i, j int) bool {
		return resp.Subjects[i].SubjectID < resp.Subjects[j].SubjectID
	})
	if options.Verbose {
		resp.Groups = report.Groups
	}
	return resp
}

// ConvertSubject masks one subject.
func ConvertSubject(s *dedup.Subject, options formatters.FormatterOptions) SubjectView {
	hide := func(v string) string {
		switch {
		case v == "":
			return ""
		case options.Mask:
			return policy.Mask(v)
		default:
			return Present
		}
	}
	return SubjectView{
		SubjectID:            s.SubjectID,
		Name:                 hide(s.CanonicalName),
		Email:                hide(s.CanonicalEmail),
		Phone:                hide(s.CanonicalPhone),
		Address:              hide(FormatAddress(s.CanonicalAddress)),
		PIITypes:             s.PIITypesFound,
		Categories:           s.Categories(),
		SourceRecords:        len(s.SourceRecords),
		MergeConfidence:      s.MergeConfidence,
		ConfidenceLevel:      GetConfidenceLevel(s.MergeConfidence),
		ReviewStatus:         string(s.ReviewStatus),
		NotificationRequired: s.NotificationRequired,
	}
}

// FormatAddress joins the present address parts.
func FormatAddress(a *normalize.Address) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.Zip, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
