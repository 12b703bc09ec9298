// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateNeedsLayer2(t *testing.T) {
	seg := &TextSegment{Text: "SSN 123-45-6789"}
	tests := []struct {
		score float64
		want  bool
	}{
		{0.0, true},
		{0.60, true},
		{0.7499, true},
		{0.75, false},
		{0.90, false},
		{1.0, false},
	}
	for _, tt := range tests {
		c := NewCandidate(seg, CandidateSpec{EntityType: "SSN", Start: 4, End: 15, Score: tt.score})
		assert.Equal(t, tt.want, c.NeedsLayer2(), "score %v", tt.score)
	}
}

func TestCandidateRescoreKeepsInvariant(t *testing.T) {
	seg := &TextSegment{Text: "dob 01/02/1990"}
	c := NewCandidate(seg, CandidateSpec{EntityType: "DATE_OF_BIRTH_MDY", Start: 4, End: 14, Score: 0.70})
	require.True(t, c.NeedsLayer2())
	assert.Equal(t, LayerPattern, c.Layer())

	boosted := c.Rescore(0.90, LayerContext)
	assert.False(t, boosted.NeedsLayer2())
	assert.Equal(t, LayerContext, boosted.Layer())

	// original is untouched
	assert.Equal(t, 0.70, c.Score())
	assert.True(t, c.NeedsLayer2())
}

func TestCandidateClampsScore(t *testing.T) {
	seg := &TextSegment{Text: "x"}
	assert.Equal(t, 1.0, NewCandidate(seg, CandidateSpec{Score: 1.3}).Score())
	assert.Equal(t, 0.0, NewCandidate(seg, CandidateSpec{Score: -0.2}).Score())
}

func TestCandidateValue(t *testing.T) {
	seg := &TextSegment{Text: "mail j.doe@example.com now"}
	c := NewCandidate(seg, CandidateSpec{EntityType: "EMAIL", Start: 5, End: 22, Score: 0.85})
	assert.Equal(t, "j.doe@example.com", c.Value())

	bad := NewCandidate(seg, CandidateSpec{Start: 10, End: 400})
	assert.Equal(t, "", bad.Value())
}

func TestCandidateJSONOmitsValue(t *testing.T) {
	seg := &TextSegment{Text: "SSN 123-45-6789", Page: 2, FileType: "pdf"}
	c := NewCandidate(seg, CandidateSpec{EntityType: "SSN", Start: 4, End: 15, Score: 0.9, PatternUsed: "ssn_us", Geography: "US"})

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "123-45-6789")

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "SSN", out["entity_type"])
	assert.Equal(t, false, out["needs_layer2"])
	assert.Equal(t, float64(2), out["page"])
}

func TestContextExtractorWindow(t *testing.T) {
	ce := NewContextExtractor().WithContextChars(5)

	text := "Patient SSN: 123-45-6789 on file"
	start := 13
	end := 24
	assert.Equal(t, "ssn: 123-45-6789 on f", ce.Window(text, start, end))

	// clamps at both ends
	assert.Equal(t, "abc", ce.Window("ABC", 0, 3))
	assert.Equal(t, "", ce.Window("", 0, 0))
}

func TestContextExtractorWindowRuneBoundary(t *testing.T) {
	ce := NewContextExtractor().WithContextChars(1)
	text := "é123"
	// byte 1 is inside "é"; the window widens back to its first byte
	got := ce.Window(text, 2, 3)
	assert.Equal(t, "é12", got)
}
