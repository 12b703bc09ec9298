// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scoring

import (
	"strings"

	"go.uber.org/zap"

	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
)

// ContextBoost is added to a candidate's score when a corroborating keyword
// appears near it.
const ContextBoost = 0.20

// contextSignals lists keywords that corroborate an entity type when found
// in the window around a match. Recognizer types and catalog types that
// describe the same thing share a list.
var contextSignals = func() map[string][]string {
	var (
		ssn      = []string{"ssn", "social security", "sin", "tax id", "tin"}
		person   = []string{"name", "employee", "patient", "client", "staff", "person"}
		email    = []string{"email", "e-mail", "contact", "mailto"}
		phone    = []string{"phone", "tel", "telephone", "call", "fax", "mobile", "cell"}
		location = []string{"address", "addr", "city", "state", "zip", "postal", "street"}
		date     = []string{"date", "dob", "born", "birth", "hired", "since"}
		card     = []string{"card", "visa", "mastercard", "amex", "cc", "credit", "payment"}
		account  = []string{"account", "acct", "iban", "routing", "bank", "swift"}
		ip       = []string{"ip address", "host", "server", "network"}
		license  = []string{"license", "licence", "dl", "driver", "dmv"}
		passport = []string{"passport", "travel document"}
		aadhaar  = []string{"aadhaar", "aadhar", "uid"}
		pan      = []string{"pan", "permanent account"}
		nino     = []string{"national insurance", "nino"}
	)
	return map[string][]string{
		"SSN":                    ssn,
		"SSN_NODASH":             ssn,
		"PERSON":                 person,
		"EMAIL_ADDRESS":          email,
		"EMAIL":                  email,
		"PHONE_NUMBER":           phone,
		"PHONE_US":               phone,
		"PHONE_INTL":             phone,
		"MOBILE_IN":              phone,
		"LOCATION":               location,
		"DATE_TIME":              date,
		"DATE_OF_BIRTH_ISO":      date,
		"DATE_OF_BIRTH_DMY":      date,
		"DATE_OF_BIRTH_MDY":      date,
		"CREDIT_CARD":            card,
		"FINANCIAL_ACCOUNT":      account,
		"FINANCIAL_ACCOUNT_PAIR": account,
		"IBAN":                   account,
		"BANK_ROUTING_US":        account,
		"IP_ADDRESS":             ip,
		"IPV4":                   ip,
		"IPV6":                   ip,
		"DRIVER_LICENSE_US":      license,
		"DRIVER_LICENSE_IN":      license,
		"PASSPORT":               passport,
		"PASSPORT_ICAO":          passport,
		"PASSPORT_UK":            passport,
		"PASSPORT_IN":            passport,
		"PASSPORT_CA":            passport,
		"PASSPORT_AU":            passport,
		"AADHAAR":                aadhaar,
		"PAN_IN":                 pan,
		"PAN":                    pan,
		"NI_UK":                  nino,
		"NATIONAL_INSURANCE_UK":  nino,
	}
}()

// ContextSignals returns a copy of the keyword list for an entity type.
func ContextSignals(entityType string) []string {
	return append([]string(nil), contextSignals[entityType]...)
}

// ContextBooster is the Layer-2 stage. It holds no mutable state and may be
// shared between goroutines.
type ContextBooster struct {
	extractor *detector.ContextExtractor
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewContextBooster creates a Layer-2 booster with a 100-byte window.
func NewContextBooster(opts ...Option) *ContextBooster {
	o := buildOptions(opts)
	return &ContextBooster{
		extractor: detector.NewContextExtractor().WithContextChars(o.contextChars),
		logger:    o.logger,
		metrics:   o.metrics,
	}
}

// Boost examines the window around the candidate in text and returns a copy
// stamped layer_2_context. The score rises by ContextBoost, capped at
// MaxScore, when a keyword for the candidate's type is present; entity types
// without keywords keep their score.
func (b *ContextBooster) Boost(c detector.CandidateEntity, text string) detector.CandidateEntity {
	score := c.Score()
	signals := contextSignals[c.EntityType()]
	found := false
	if len(signals) > 0 {
		window := b.extractor.Window(text, c.Start(), c.End())
		for _, s := range signals {
			if strings.Contains(window, s) {
				found = true
				break
			}
		}
	}
	if found {
		score = min(MaxScore, score+ContextBoost)
		b.metrics.ObserveBoost(detector.LayerContext)
	}

	b.logger.Debug("layer2 context",
		zap.String("entity_type", c.EntityType()),
		zap.Float64("old_score", c.Score()),
		zap.Float64("new_score", score),
		zap.Bool("signal_found", found))

	return c.Rescore(score, detector.LayerContext)
}
