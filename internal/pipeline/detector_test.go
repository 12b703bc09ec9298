// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/detector"
)

// regexRecognizer reports every match of re as entityType.
type regexRecognizer struct {
	re         *regexp.Regexp
	entityType string
	score      float64
}

func (r *regexRecognizer) Name() string { return "regex" }

func (r *regexRecognizer) Recognize(text string) ([]detector.Hit, error) {
	var hits []detector.Hit
	for _, loc := range r.re.FindAllStringIndex(text, -1) {
		hits = append(hits, detector.Hit{EntityType: r.entityType, Start: loc[0], End: loc[1], Score: r.score})
	}
	return hits, nil
}

func personRecognizer() detector.Recognizer {
	return &regexRecognizer{re: regexp.MustCompile(`Jane\s+Doe`), entityType: "PERSON", score: 0.85}
}

func ofType(dets []Detection, entityType string) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Candidate.EntityType() == entityType {
			out = append(out, d)
		}
	}
	return out
}

func TestDetectSheetDropsTailDuplicates(t *testing.T) {
	d := NewDetector(catalog.Default(), []catalog.Geography{}, nil, nil, nil)
	dets := d.DetectSheet([]detector.TextSegment{
		{Text: "mail jane.doe@example.com", Page: 0, FileType: "txt"},
		{Text: "nothing to see on this page", Page: 1, FileType: "txt"},
	})

	emails := ofType(dets, "EMAIL")
	require.Len(t, emails, 1)
	assert.Equal(t, "jane.doe@example.com", emails[0].Value)
	assert.False(t, emails[0].Spanning)
	assert.Equal(t, 0, emails[0].PageFrom)
	assert.Equal(t, 0, emails[0].PageTo)
}

func TestDetectSheetMarksSpanningEntities(t *testing.T) {
	d := NewDetector(catalog.Default(), []catalog.Geography{}, personRecognizer(), nil, nil)
	dets := d.DetectSheet([]detector.TextSegment{
		{Text: "Patient Jane", Page: 3, FileType: "pdf"},
		{Text: "Doe was admitted", Page: 4, FileType: "pdf"},
	})

	people := ofType(dets, "PERSON")
	require.Len(t, people, 1)
	p := people[0]
	assert.True(t, p.Spanning)
	assert.Equal(t, 3, p.PageFrom)
	assert.Equal(t, 4, p.PageTo)
	assert.Equal(t, "Jane\nDoe", p.Value)
}

func TestDetectSheetResetsBetweenSheets(t *testing.T) {
	d := NewDetector(catalog.Default(), []catalog.Geography{}, personRecognizer(), nil, nil)
	d.DetectSheet([]detector.TextSegment{{Text: "Patient Jane", FileType: "pdf"}})

	dets := d.DetectSheet([]detector.TextSegment{{Text: "Doe was admitted", FileType: "pdf"}})
	assert.Empty(t, ofType(dets, "PERSON"))
}

func TestDetectSheetTableCells(t *testing.T) {
	d := NewDetector(catalog.Default(), []catalog.Geography{}, nil, nil, nil)
	dets := d.DetectSheet([]detector.TextSegment{
		{Text: "1990-01-15", Sheet: "people.csv", ColumnHeader: "Date of Birth", Row: 1, FileType: "csv"},
		{Text: "1991-02-16", Sheet: "people.csv", ColumnHeader: "Date of Birth", Row: 2, FileType: "csv"},
	})

	dates := ofType(dets, "DATE_TIME")
	require.Len(t, dates, 2, "cells are not stitched, so the second date is not dropped")
	for _, dt := range dates {
		assert.Equal(t, detector.LayerPositional, dt.Candidate.Layer())
		assert.Equal(t, "header:date of birth", dt.Candidate.PatternUsed())
		assert.InDelta(t, 0.85, dt.Candidate.Score(), 1e-9)
		assert.False(t, dt.Spanning)
	}
	assert.Equal(t, "1990-01-15", dates[0].Value)
}

func TestDetectSheetAppliesContextLayer(t *testing.T) {
	d := NewDetector(catalog.Default(), []catalog.Geography{catalog.GeographyUS}, nil, nil, nil)
	dets := d.DetectSheet([]detector.TextSegment{{Text: "SSN 123456789 on file", FileType: "txt"}})

	ssn := ofType(dets, "SSN_NODASH")
	require.Len(t, ssn, 1)
	assert.Equal(t, detector.LayerContext, ssn[0].Candidate.Layer())
	assert.InDelta(t, 0.80, ssn[0].Candidate.Score(), 1e-9)
}

func TestDetectSheetNeverLogsValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDetector(catalog.Default(), []catalog.Geography{}, personRecognizer(), zap.New(core), nil)
	d.DetectSheet([]detector.TextSegment{{Text: "Jane Doe <jane.doe@example.com>", FileType: "txt"}})

	require.NotZero(t, logs.Len())
	for _, e := range logs.All() {
		assert.NotContains(t, e.Message, "jane")
		for _, v := range e.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), "jane.doe@example.com")
			assert.NotContains(t, fmt.Sprint(v), "Jane Doe")
		}
	}
}
