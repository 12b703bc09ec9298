// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// Address is a structured postal address. Street and City are lowercase;
// State is a US two-letter abbreviation; Country is ISO-3166-1 alpha-2.
// Empty fields are absent.
type Address struct {
	Street  string `json:"street,omitempty" yaml:"street,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip     string `json:"zip,omitempty" yaml:"zip,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

var streetNumberRe = regexp.MustCompile(`\b\d+\s+\w`)

type postalRule struct {
	re        *regexp.Regexp
	normalize func(string) string
}

func asIs(s string) string { return s }

func compact(s string) string { return strings.ToUpper(strings.ReplaceAll(s, " ", "")) }

var postalRules = map[string]postalRule{
	"US": {regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`), asIs},
	"GB": {regexp.MustCompile(`(?i)\b([A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2})\b`), compact},
	"IN": {regexp.MustCompile(`\b([1-9]\d{5})\b`), asIs},
	"CA": {regexp.MustCompile(`(?i)\b([A-Z]\d[A-Z]\s*\d[A-Z]\d)\b`), compact},
	"AU": {regexp.MustCompile(`\b(\d{4})\b`), asIs},
	"EU": {regexp.MustCompile(`\b(\d{4,5})\b`), asIs},
}

func init() {
	postalRules["DE"] = postalRules["EU"]
	postalRules["FR"] = postalRules["EU"]
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI",
	"minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND",
	"ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
	"district of columbia": "DC",
}

type stateRule struct {
	name     string
	abbrev   string
	anywhere *regexp.Regexp // whole-word presence
	trailing *regexp.Regexp // state at the end of the text
}

var (
	stateAbbrevs = func() map[string]bool {
		m := make(map[string]bool, len(stateNames))
		for _, a := range stateNames {
			m[a] = true
		}
		return m
	}()

	// stateRules is ordered longest name first so "west virginia" wins over
	// "virginia".
	stateRules = func() []stateRule {
		names := make([]string, 0, len(stateNames))
		for n := range stateNames {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			if len(names[i]) != len(names[j]) {
				return len(names[i]) > len(names[j])
			}
			return names[i] < names[j]
		})
		rules := make([]stateRule, len(names))
		for i, n := range names {
			q := regexp.QuoteMeta(n)
			rules[i] = stateRule{
				name:     n,
				abbrev:   stateNames[n],
				anywhere: regexp.MustCompile(`(?i)\b` + q + `\b`),
				trailing: regexp.MustCompile(`(?i)(?:^|[,\s]+)` + q + `\s*$`),
			}
		}
		return rules
	}()

	upperPairRe       = regexp.MustCompile(`\b([A-Z]{2})\b`)
	trailingAbbrevRe  = regexp.MustCompile(`(?:^|[,\s]+)([A-Za-z]{2})\s*$`)
	usZipPresenceRe   = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	countryKeywordSet = []struct {
		re   *regexp.Regexp
		code string
	}{
		{regexp.MustCompile(`(?i)\b(?:india|bharat)\b`), "IN"},
		{regexp.MustCompile(`(?i)\b(?:united\s+kingdom|u\.k\.|uk|england|scotland|wales|great\s+britain)\b`), "GB"},
		{regexp.MustCompile(`(?i)\bcanada\b`), "CA"},
		{regexp.MustCompile(`(?i)\baustralia\b`), "AU"},
		{regexp.MustCompile(`(?i)\b(?:germany|deutschland)\b`), "DE"},
		{regexp.MustCompile(`(?i)\bfrance\b`), "FR"},
		{regexp.MustCompile(`(?i)\b(?:united\s+states|u\.s\.a\.|u\.s\.|usa)\b`), "US"},
	}
)

// DetectCountry returns the ISO country code signalled by raw, or "" when
// there is no signal. Country keywords win, then UK, Indian and Canadian
// postal shapes, then US state names, abbreviations and ZIP codes.
func DetectCountry(raw string) string {
	for _, k := range countryKeywordSet {
		if k.re.MatchString(raw) {
			return k.code
		}
	}
	for _, code := range []string{"GB", "IN", "CA"} {
		if postalRules[code].re.MatchString(raw) {
			return code
		}
	}
	for _, s := range stateRules {
		if s.anywhere.MatchString(raw) {
			return "US"
		}
	}
	for _, m := range upperPairRe.FindAllStringSubmatch(raw, -1) {
		if stateAbbrevs[m[1]] {
			return "US"
		}
	}
	if usZipPresenceRe.MatchString(raw) {
		return "US"
	}
	return ""
}

// extractState removes a trailing US state from text.
func extractState(text string) (abbrev, rest string) {
	for _, s := range stateRules {
		if loc := s.trailing.FindStringIndex(text); loc != nil {
			return s.abbrev, strings.TrimRight(text[:loc[0]], ", ")
		}
	}
	if m := trailingAbbrevRe.FindStringSubmatchIndex(text); m != nil {
		a := strings.ToUpper(text[m[2]:m[3]])
		if stateAbbrevs[a] {
			return a, strings.TrimRight(text[:m[0]], ", ")
		}
	}
	return "", text
}

// ParseAddress structures a free-text address. ok is false when raw has
// neither a street number nor a postal code. Without a country signal the
// address is taken to be US.
func ParseAddress(raw string) (*Address, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	country := DetectCountry(text)
	if country == "" {
		country = "US"
	}
	rule, ok := postalRules[country]
	if !ok {
		rule = postalRules["US"]
	}
	zipLoc := rule.re.FindStringSubmatchIndex(text)
	if zipLoc == nil && !streetNumberRe.MatchString(text) {
		return nil, false
	}

	addr := &Address{Country: country}
	preZip := text
	if zipLoc != nil {
		addr.Zip = rule.normalize(text[zipLoc[2]:zipLoc[3]])
		preZip = strings.TrimRight(text[:zipLoc[0]], ", ")
	}

	preState := preZip
	if country == "US" {
		addr.State, preState = extractState(preZip)
	}

	var parts []string
	for _, p := range strings.Split(preState, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		addr.Street = strings.ToLower(parts[0])
	}
	if len(parts) > 1 {
		addr.City = strings.ToLower(parts[1])
	}
	return addr, true
}

// NormalizedZip strips spaces and uppercases a postal code for comparison.
func NormalizedZip(zip string) string {
	return compact(zip)
}
