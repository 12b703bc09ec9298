// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import (
	"math"
	"strings"

	"pii-linkage/internal/normalize"
)

// Name match thresholds.
const (
	NonLatinThreshold = 0.88
	NameThreshold     = 0.92
	SoundexThreshold  = 0.80
)

// Address match confidences.
const (
	AddressExactStreet  = 0.90
	AddressFuzzyStreet  = 0.75
	AddressPostalOnly   = 0.60
	StreetJWThreshold   = 0.85
	GovernmentIDExact   = 0.95
	GovernmentIDOneEdit = 0.75
)

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// NamesMatch compares two canonical names. Non-Latin names use Jaro-Winkler
// alone; Latin names match on exact equality, on high Jaro-Winkler, or on a
// shared Soundex code with moderate Jaro-Winkler. The similarity is returned
// whether or not the names match.
func NamesMatch(a, b string) (bool, float64) {
	if a == "" || b == "" {
		return false, 0
	}
	jw := JaroWinkler(a, b)

	if normalize.HasNonLatin(a) || normalize.HasNonLatin(b) {
		return jw >= NonLatinThreshold, round4(jw)
	}
	if strings.EqualFold(a, b) {
		return true, 1
	}
	if jw >= NameThreshold {
		return true, round4(jw)
	}
	if Soundex(a) == Soundex(b) && jw >= SoundexThreshold {
		return true, round4(jw)
	}
	return false, round4(jw)
}

// AddressesMatch compares two structured addresses. Postal codes must agree;
// the street then decides the confidence.
func AddressesMatch(a, b *normalize.Address) (bool, float64) {
	if a == nil || b == nil {
		return false, 0
	}
	if a.Country != "" && b.Country != "" && !strings.EqualFold(a.Country, b.Country) {
		return false, 0
	}

	za, zb := normalize.NormalizedZip(a.Zip), normalize.NormalizedZip(b.Zip)
	if za == "" || zb == "" || za != zb {
		return false, 0
	}

	if a.Street == "" || b.Street == "" {
		return true, AddressPostalOnly
	}
	if strings.EqualFold(a.Street, b.Street) {
		return true, AddressExactStreet
	}
	if JaroWinkler(a.Street, b.Street) >= StreetJWThreshold {
		return true, AddressFuzzyStreet
	}
	return false, 0
}

// GovernmentIDsMatch compares two identifiers of the same kind. A single
// substitution, insertion or deletion is accepted at lower confidence as an
// OCR misread.
func GovernmentIDsMatch(type1, value1, type2, value2 string) (bool, float64) {
	if type1 == "" || type2 == "" || !strings.EqualFold(type1, type2) {
		return false, 0
	}
	v1, v2 := strings.TrimSpace(value1), strings.TrimSpace(value2)
	if v1 == v2 {
		return true, GovernmentIDExact
	}
	if editDistanceOne(v1, v2) {
		return true, GovernmentIDOneEdit
	}
	return false, 0
}
