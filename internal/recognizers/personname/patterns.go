// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package personname

import (
	"regexp"
	"strings"
)

// NamePattern is a compiled name shape
type NamePattern struct {
	Pattern  *regexp.Regexp
	Name     string
	Priority int // higher = more specific
}

const (
	upper = `[A-ZÀ-Þ]`
	lower = `[a-zß-ÿ]`
	word  = upper + lower + `{1,29}`
)

var namePatterns = func() []NamePattern {
	defs := []struct {
		name     string
		pattern  string
		priority int
	}{
		{"basic_western_name", `\b` + word + `\s+` + word + `\b`, 5},
		{"name_with_middle_initial", `\b` + word + `\s+` + upper + `\.\s+` + word + `\b`, 7},
		{"name_with_title", `\b(?:Mr|Ms|Mrs|Dr|Prof|Sir|Dame|Lord|Lady)\.?\s+` + word + `\s+` + word + `\b`, 8},
		{"name_with_suffix", `\b` + word + `\s+` + word + `\s+(?:Jr\.?|Sr\.?|III|IV|PhD|MD|Esq\.?)`, 8},
		{"three_part_name", `\b` + word + `\s+` + word + `\s+` + word + `\b`, 6},
		{"hyphenated_last_name", `\b` + word + `\s+` + word + `-` + word + `\b`, 7},
		{"name_with_apostrophe_last", `\b` + word + `\s+` + upper + lower + `*'` + word + `\b`, 7},
		{"last_comma_first", `\b` + word + `,\s+` + word + `\b`, 8},
	}
	out := make([]NamePattern, len(defs))
	for i, d := range defs {
		out[i] = NamePattern{Pattern: regexp.MustCompile(d.pattern), Name: d.name, Priority: d.priority}
	}
	return out
}()

// PatternMatch is one regex hit with byte offsets into the scanned text
type PatternMatch struct {
	Text       string
	Pattern    NamePattern
	StartIndex int
	EndIndex   int
}

// FindMatches returns every pattern hit in text. Each pattern is retried from
// the word after the previous hit's start, so "Patient John Smith" yields
// both "Patient John" and "John Smith".
func FindMatches(text string) []PatternMatch {
	var matches []PatternMatch
	for _, p := range namePatterns {
		for pos := 0; pos < len(text); {
			loc := p.Pattern.FindStringIndex(text[pos:])
			if loc == nil {
				break
			}
			start, end := pos+loc[0], pos+loc[1]
			matches = append(matches, PatternMatch{
				Text:       text[start:end],
				Pattern:    p,
				StartIndex: start,
				EndIndex:   end,
			})
			pos = nextWordStart(text, start)
		}
	}
	return matches
}

func nextWordStart(text string, from int) int {
	i := from
	for i < len(text) && !isSpace(text[i]) {
		i++
	}
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// NameComponents is the parsed form of a matched name
type NameComponents struct {
	Title      string
	FirstName  string
	MiddleName string
	LastName   string
	Suffix     string
}

// ParseNameComponents splits a matched name according to the pattern that
// found it.
func ParseNameComponents(nameText string, pattern NamePattern) NameComponents {
	if pattern.Name == "last_comma_first" {
		last, first, _ := strings.Cut(nameText, ",")
		return NameComponents{LastName: strings.TrimSpace(last), FirstName: strings.TrimSpace(first)}
	}

	var c NameComponents
	tokens := strings.Fields(nameText)
	for len(tokens) > 0 && isTitle(tokens[0]) {
		c.Title = strings.TrimSpace(c.Title + " " + tokens[0])
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && isSuffix(tokens[len(tokens)-1]) {
		c.Suffix = strings.TrimSpace(tokens[len(tokens)-1] + " " + c.Suffix)
		tokens = tokens[:len(tokens)-1]
	}

	switch len(tokens) {
	case 0:
	case 1:
		c.FirstName = tokens[0]
	default:
		c.FirstName = tokens[0]
		c.LastName = tokens[len(tokens)-1]
		c.MiddleName = strings.Join(tokens[1:len(tokens)-1], " ")
	}
	return c
}

func isTitle(token string) bool {
	switch strings.TrimSuffix(token, ".") {
	case "Mr", "Ms", "Mrs", "Dr", "Prof", "Sir", "Dame", "Lord", "Lady":
		return true
	}
	return false
}

func isSuffix(token string) bool {
	switch strings.TrimSuffix(token, ".") {
	case "Jr", "Sr", "III", "IV", "PhD", "MD", "Esq":
		return true
	}
	return false
}
