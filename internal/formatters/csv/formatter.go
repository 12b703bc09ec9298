// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"pii-linkage/internal/formatters"
	"pii-linkage/internal/formatters/shared"
	"pii-linkage/internal/pipeline"
)

// Formatter implements CSV output formatting, one row per subject
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated subjects for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

var headers = []string{
	"Subject ID", "Name", "Email", "Phone", "Address", "PII Types", "Categories",
	"Source Records", "Merge Confidence", "Confidence Level", "Review Status", "Notification Required",
}

func (f *Formatter) Format(report *pipeline.Report, options formatters.FormatterOptions) (string, error) {
	response := shared.ConvertReport(report, options)

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, s := range response.Subjects {
		row := []string{
			s.SubjectID,
			s.Name,
			s.Email,
			s.Phone,
			s.Address,
			strings.Join(s.PIITypes, ";"),
			strings.Join(s.Categories, ";"),
			strconv.Itoa(s.SourceRecords),
			strconv.FormatFloat(s.MergeConfidence, 'f', 2, 64),
			s.ConfidenceLevel,
			s.ReviewStatus,
			strconv.FormatBool(s.NotificationRequired),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error formatting CSV: %w", err)
	}
	return b.String(), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
