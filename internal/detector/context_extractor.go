// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"unicode/utf8"
)

// ContextExtractor cuts the text surrounding a match
type ContextExtractor struct {
	// Number of bytes before and after the match to consider
	ContextChars int
}

// NewContextExtractor creates a new context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{
		ContextChars: 100,
	}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	ce.ContextChars = chars
	return ce
}

// Window returns the lowercased text from start-ContextChars to
// end+ContextChars, clamped to the text and widened to rune boundaries.
func (ce *ContextExtractor) Window(text string, start, end int) string {
	lo := max(0, start-ce.ContextChars)
	hi := min(len(text), end+ce.ContextChars)
	if lo >= hi {
		return ""
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.ToLower(text[lo:hi])
}
