// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package personname is a dictionary-backed general-purpose recognizer for
// person names. It plugs into the Layer-1 scorer as a detector.Recognizer.
package personname

import (
	"sort"
	"strings"

	"pii-linkage/internal/detector"
)

// EntityType is the generic type emitted for names.
const EntityType = "PERSON"

const (
	bothKnownScore = 0.90
	formalBonus    = 0.05
	oneKnownScore  = 0.65
	minScore       = 0.50
)

var (
	businessSuffixes = []string{"inc", "llc", "ltd", "corp", "corporation", "company", "enterprises", "industries"}
	technicalPhrases = []string{
		"first name", "last name", "full name", "user name", "customer name", "contact name",
		"credit card", "card number", "account number", "phone number", "social security",
		"date of birth", "birth date", "email address", "mailing address", "billing address",
		"zip code", "postal code", "state province", "country region",
	}
)

// Recognizer finds person names by shape and confirms them against the
// embedded first and last name lists.
type Recognizer struct {
	firstNames map[string]bool
	lastNames  map[string]bool
}

var _ detector.Recognizer = (*Recognizer)(nil)

// New loads the name lists and returns a recognizer.
func New() (*Recognizer, error) {
	db, err := LoadNameDatabases()
	if err != nil {
		return nil, err
	}
	return &Recognizer{firstNames: db.FirstNames, lastNames: db.LastNames}, nil
}

// Factory adapts New to detector.RecognizerFactory.
func Factory() (detector.Recognizer, error) {
	return New()
}

// Name implements detector.Recognizer.
func (r *Recognizer) Name() string { return "personname" }

// Recognize implements detector.Recognizer. Overlapping hits are resolved in
// favour of the higher-scoring, then longer, span.
func (r *Recognizer) Recognize(text string) ([]detector.Hit, error) {
	var hits []detector.Hit
	for _, m := range FindMatches(text) {
		score := r.confidence(m, text)
		if score < minScore {
			continue
		}
		hits = append(hits, detector.Hit{
			EntityType: EntityType,
			Start:      m.StartIndex,
			End:        m.EndIndex,
			Score:      score,
		})
	}
	return deduplicate(hits), nil
}

func (r *Recognizer) confidence(m PatternMatch, text string) float64 {
	lowerText := strings.ToLower(m.Text)
	for _, phrase := range technicalPhrases {
		if strings.Contains(lowerText, phrase) {
			return 0
		}
	}
	if followedByBusinessSuffix(text, m.EndIndex) {
		return 0
	}

	c := ParseNameComponents(m.Text, m.Pattern)
	knownFirst := c.FirstName != "" && r.firstNames[strings.ToLower(c.FirstName)]
	knownLast := c.LastName != "" && r.lastNames[strings.ToLower(c.LastName)]

	switch {
	case knownFirst && knownLast:
		score := bothKnownScore
		if m.Pattern.Priority >= 8 {
			score += formalBonus
		}
		return score
	case knownFirst || knownLast:
		return oneKnownScore
	default:
		return 0
	}
}

func followedByBusinessSuffix(text string, end int) bool {
	rest := strings.TrimLeft(text[end:], " ,")
	next, _, _ := strings.Cut(rest, " ")
	next = strings.ToLower(strings.TrimRight(next, ".,;"))
	for _, s := range businessSuffixes {
		if next == s {
			return true
		}
	}
	return false
}

func deduplicate(hits []detector.Hit) []detector.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].End-hits[i].Start > hits[j].End-hits[j].Start
	})
	var kept []detector.Hit
	for _, h := range hits {
		overlaps := false
		for _, k := range kept {
			if h.Start < k.End && k.Start < h.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, h)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
