// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package normalize converts raw identity values into the canonical forms the
// resolver compares. Malformed input yields a zero value, never an error.
// Nothing in this package logs.
package normalize

import "unicode"

// nonLatin covers scripts whose names must not be title-cased or reordered.
// Latin Extended letters (é, ñ, ü) are deliberately absent.
var nonLatin = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1}, // Arabic
		{Lo: 0x0900, Hi: 0x097F, Stride: 1}, // Devanagari
		{Lo: 0x0E00, Hi: 0x0E7F, Stride: 1}, // Thai
		{Lo: 0x3040, Hi: 0x30FF, Stride: 1}, // Hiragana, Katakana
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}, // CJK Unified Ideographs
		{Lo: 0xAC00, Hi: 0xD7AF, Stride: 1}, // Hangul syllables
	},
}

// HasNonLatin reports whether s contains a character from a non-Latin
// script.
func HasNonLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(nonLatin, r) {
			return true
		}
	}
	return false
}
