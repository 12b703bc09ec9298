// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scoring

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
)

// PositionalBoost is added when a column header corroborates a candidate.
const PositionalBoost = 0.15

// ReviewPrefix is put on headers that a reader flagged for manual review.
const ReviewPrefix = "[review] "

// headerKeyword maps a lowercase column header keyword to an entity type.
type headerKeyword struct {
	keyword    string
	entityType string
}

// headerKeywords is in priority order for keywords of equal length.
var headerKeywords = []headerKeyword{
	{"ssn", "SSN"},
	{"social security", "SSN"},
	{"sin", "SSN"},
	{"full name", "PERSON"},
	{"first name", "PERSON"},
	{"last name", "PERSON"},
	{"name", "PERSON"},
	{"email address", "EMAIL_ADDRESS"},
	{"e-mail address", "EMAIL_ADDRESS"},
	{"e-mail", "EMAIL_ADDRESS"},
	{"email", "EMAIL_ADDRESS"},
	{"telephone", "PHONE_NUMBER"},
	{"mobile", "PHONE_NUMBER"},
	{"cell", "PHONE_NUMBER"},
	{"phone", "PHONE_NUMBER"},
	{"postal code", "LOCATION"},
	{"zip code", "LOCATION"},
	{"postal", "LOCATION"},
	{"address", "LOCATION"},
	{"addr", "LOCATION"},
	{"city", "LOCATION"},
	{"zip", "LOCATION"},
	{"date of birth", "DATE_TIME"},
	{"dob", "DATE_TIME"},
	{"birth", "DATE_TIME"},
	{"hired", "DATE_TIME"},
	{"date", "DATE_TIME"},
	{"iban", "FINANCIAL_ACCOUNT"},
	{"routing", "FINANCIAL_ACCOUNT"},
	{"account number", "FINANCIAL_ACCOUNT"},
	{"account", "FINANCIAL_ACCOUNT"},
	{"acct", "FINANCIAL_ACCOUNT"},
	{"policy number", "POLICY_NUMBER"},
	{"policy", "POLICY_NUMBER"},
	{"passport", "PASSPORT"},
	{"driver license", "DRIVER_LICENSE_US"},
	{"driver licence", "DRIVER_LICENSE_US"},
	{"license", "DRIVER_LICENSE_US"},
	{"licence", "DRIVER_LICENSE_US"},
	{"aadhaar", "AADHAAR"},
	{"aadhar", "AADHAAR"},
	{"pan number", "PAN_IN"},
	{"pan", "PAN_IN"},
	{"national insurance", "NI_UK"},
	{"nino", "NI_UK"},
	{"ni number", "NI_UK"},
	{"ip address", "IP_ADDRESS"},
	{"ip", "IP_ADDRESS"},
}

// orderedKeywords is headerKeywords sorted longest first, so "date of birth"
// is tried before "date". The sort is stable and ties keep table order.
var orderedKeywords = func() []headerKeyword {
	keys := append([]headerKeyword(nil), headerKeywords...)
	sort.SliceStable(keys, func(i, j int) bool {
		return len(keys[i].keyword) > len(keys[j].keyword)
	})
	return keys
}()

// MatchHeader returns the keyword and entity type a column header maps to.
func MatchHeader(header string) (keyword, entityType string, ok bool) {
	h := strings.TrimSpace(strings.ToLower(header))
	h = strings.TrimPrefix(h, ReviewPrefix)
	if h == "" {
		return "", "", false
	}
	for _, kw := range orderedKeywords {
		if strings.Contains(h, kw.keyword) {
			return kw.keyword, kw.entityType, true
		}
	}
	return "", "", false
}

// PositionalBooster is the Layer-3 stage for tabular cells. It never creates
// a candidate; it only corroborates one that Layer 1 or 2 produced.
type PositionalBooster struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewPositionalBooster creates a Layer-3 booster.
func NewPositionalBooster(opts ...Option) *PositionalBooster {
	o := buildOptions(opts)
	return &PositionalBooster{logger: o.logger, metrics: o.metrics}
}

// Infer returns a reclassified copy of the candidate when its segment's
// column header matches a keyword. ok is false when the segment has no header
// or no keyword matches.
func (p *PositionalBooster) Infer(c detector.CandidateEntity) (detector.CandidateEntity, bool) {
	seg := c.Segment()
	if !seg.Tabular() {
		return detector.CandidateEntity{}, false
	}
	kw, entityType, ok := MatchHeader(seg.ColumnHeader)
	if !ok {
		return detector.CandidateEntity{}, false
	}
	score := min(MaxScore, c.Score()+PositionalBoost)
	p.metrics.ObserveBoost(detector.LayerPositional)

	// Header labels are structural metadata, not values.
	p.logger.Debug("layer3 positional",
		zap.String("header_keyword", kw),
		zap.String("inferred_entity_type", entityType),
		zap.Float64("new_score", score))

	return c.Reclassify(entityType, score, detector.LayerPositional, "header:"+kw), true
}
