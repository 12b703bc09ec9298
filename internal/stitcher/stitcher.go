// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package stitcher joins consecutive pages so an entity split across a page
// boundary is detected once.
package stitcher

import (
	"strings"
	"unicode/utf8"
)

// TailLines is the number of trailing lines carried into the next segment.
const TailLines = 5

// Stitcher holds the tail of the previously processed segment. It is not
// safe for concurrent use; keep one per in-flight document or worksheet.
type Stitcher struct {
	tail []string
}

// New returns an empty Stitcher.
func New() *Stitcher {
	return &Stitcher{}
}

// Stitch prepends the previous tail to text and returns the stitched text and
// the tail length in bytes, excluding the joining newline. A match starting
// before tailLen spans the boundary. The tail is then replaced by the last
// TailLines lines of text.
func (s *Stitcher) Stitch(text string) (stitched string, tailLen int) {
	tailText := strings.Join(s.tail, "\n")
	tailLen = len(tailText)

	stitched = text
	if len(s.tail) > 0 {
		stitched = tailText + "\n" + text
	}

	lines := splitLines(text)
	if len(lines) > TailLines {
		lines = lines[len(lines)-TailLines:]
	}
	s.tail = lines
	return stitched, tailLen
}

// Spanning reports whether a match at start crossed from the previous tail.
func Spanning(start, tailLen int) bool {
	return start < tailLen
}

// Reset clears the tail. Call it between documents and between worksheets.
func (s *Stitcher) Reset() {
	s.tail = nil
}

// Tail returns a copy of the buffered lines.
func (s *Stitcher) Tail() []string {
	return append([]string(nil), s.tail...)
}

// splitLines splits on the Unicode line boundaries: \n, \r, \r\n, \v, \f,
// the file, group and record separators (\x1c-\x1e), NEL (U+0085) and the
// line and paragraph separators (U+2028, U+2029). A trailing terminator does
// not produce an empty final line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				size++
			}
			start = i + size
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, text[start:i])
			start = i + size
		}
		i += size
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
