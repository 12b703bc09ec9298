// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DOBConfidence is returned when two dates of birth agree.
const DOBConfidence = 0.95

// DefaultDOBCountry is used when a record carries no country.
const DefaultDOBCountry = "US"

// monthFirstCountries read an ambiguous n/n/y date as month/day.
var monthFirstCountries = map[string]bool{"US": true, "PH": true}

var namedMonthLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var dateSeparators = regexp.MustCompile(`[-./]`)

// NormalizeDOB parses a free-text date of birth and returns it as
// YYYY-MM-DD. ISO-8601 is tried first, then named-month forms, then numeric
// forms with any of - . / as separator. ok is false for anything that does
// not parse to a real calendar date.
func NormalizeDOB(raw, country string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}
	if country == "" {
		country = DefaultDOBCountry
	}

	if t, err := time.Parse("2006-01-02", text); err == nil {
		return iso(t.Year(), int(t.Month()), t.Day())
	}
	for _, layout := range namedMonthLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return iso(t.Year(), int(t.Month()), t.Day())
		}
	}

	parts := strings.Split(dateSeparators.ReplaceAllString(text, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	p0, p1, p2 := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])

	if len(p0) == 4 && allDigits(p0) {
		y, errY := strconv.Atoi(p0)
		m, errM := strconv.Atoi(p1)
		d, errD := strconv.Atoi(p2)
		if errY != nil || errM != nil || errD != nil {
			return "", false
		}
		return iso(y, m, d)
	}

	dayStr, monthStr := p0, p1
	if monthFirstCountries[strings.ToUpper(country)] {
		dayStr, monthStr = p1, p0
	}
	y, errY := strconv.Atoi(p2)
	m, errM := strconv.Atoi(monthStr)
	d, errD := strconv.Atoi(dayStr)
	if errY != nil || errM != nil || errD != nil {
		return "", false
	}
	if len(p2) == 2 {
		if y < 30 {
			y += 2000
		} else {
			y += 1900
		}
	}
	return iso(y, m, d)
}

// DOBsMatch reports whether two raw dates of birth denote the same day.
// Unparseable input on either side is no match.
func DOBsMatch(raw1, country1, raw2, country2 string) (bool, float64) {
	a, ok1 := NormalizeDOB(raw1, country1)
	b, ok2 := NormalizeDOB(raw2, country2)
	if !ok1 || !ok2 || a != b {
		return false, 0
	}
	return true, DOBConfidence
}

func iso(y, m, d int) (string, bool) {
	if y < 1 || y > 9999 || m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
