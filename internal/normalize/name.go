// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// honorificRe matches one leading honorific. Alternatives are ordered so a
// longer form wins ("miss" before "ms"); French "M." needs its period so a
// first initial is not stripped.
var honorificRe = regexp.MustCompile(`(?i)^(?:` +
	`miss|mrs|mr|ms|prof|rev|dr|sir|lord|lady|jr|sr|` + // English
	`shri|kumari|smt|sri|` + // Indian
	`herr|frau|` + // German
	`mme|mlle|m\.|` + // French
	`srta|sra` + // Spanish
	`)\.?\s+`)

// geoTokens disqualify "Last, First" reordering when either side matches.
var geoTokens = map[string]bool{
	"india": true, "united states": true, "united kingdom": true, "uk": true, "us": true, "usa": true,
	"canada": true, "australia": true, "germany": true, "france": true, "china": true, "japan": true,
	"brazil": true, "mexico": true, "italy": true, "spain": true, "russia": true, "pakistan": true,
	"bangladesh": true, "nigeria": true, "egypt": true, "indonesia": true, "iran": true, "turkey": true,
	"ukraine": true, "poland": true, "netherlands": true, "belgium": true, "sweden": true, "norway": true,
	"denmark": true, "finland": true, "switzerland": true, "austria": true, "portugal": true, "greece": true,
	"mumbai": true, "delhi": true, "kolkata": true, "chennai": true, "bangalore": true, "hyderabad": true,
	"london": true, "paris": true, "berlin": true, "rome": true, "madrid": true,
	"beijing": true, "shanghai": true, "tokyo": true, "dubai": true, "singapore": true,
	"maharashtra": true, "karnataka": true, "gujarat": true, "rajasthan": true, "punjab": true,
	"kerala": true, "tamilnadu": true, "tamil nadu": true, "andhra pradesh": true, "telangana": true,
	"uttar pradesh": true, "west bengal": true, "bihar": true, "odisha": true,
}

var lowerCaser = cases.Lower(language.Und)

// IsWesternReversed reports whether raw looks like "Last, First": exactly one
// comma, no digits, Latin script only, and neither side a place name.
func IsWesternReversed(raw string) bool {
	if strings.Count(raw, ",") != 1 {
		return false
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || HasNonLatin(part) || geoTokens[strings.ToLower(part)] {
			return false
		}
		if strings.IndexFunc(part, unicode.IsDigit) >= 0 {
			return false
		}
	}
	return true
}

// Name returns raw in canonical "First Last" title case, or "" for blank
// input. Non-Latin names only have their whitespace collapsed.
func Name(raw string) string {
	text := strings.TrimSpace(norm.NFC.String(raw))
	if text == "" {
		return ""
	}
	if HasNonLatin(text) {
		return strings.Join(strings.Fields(text), " ")
	}

	text = strings.TrimSpace(honorificRe.ReplaceAllString(text, ""))
	if IsWesternReversed(text) {
		last, first, _ := strings.Cut(text, ",")
		first = strings.TrimSpace(honorificRe.ReplaceAllString(strings.TrimSpace(first), ""))
		text = first + " " + strings.TrimSpace(last)
	}
	return titleCase(strings.Join(strings.Fields(text), " "))
}

// titleCase upper-cases every letter that follows a non-letter and lowers the
// rest, so "o'brien" becomes "O'Brien" and "mary-jane" becomes "Mary-Jane".
func titleCase(s string) string {
	lowered := []rune(lowerCaser.String(s))
	prevLetter := false
	for i, r := range lowered {
		if unicode.IsLetter(r) {
			if !prevLetter {
				lowered[i] = unicode.ToTitle(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(lowered)
}
