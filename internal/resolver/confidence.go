// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"pii-linkage/internal/fuzzy"
	"pii-linkage/internal/normalize"
)

// Signal weights added to a pair's confidence.
const (
	WeightGovernmentID = 0.50
	WeightEmail        = 0.40
	WeightPhone        = 0.35
	WeightNameDOB      = 0.35
	WeightNameAddress  = 0.25
	WeightName         = 0.10
)

// BuildConfidence returns the merge confidence for two records using the
// enabled anchors. Signals add up and the total is capped at 1.0. The DOB
// and address signals need a name match and at most one of them fires per
// pair, DOB first.
func BuildConfidence(a, b *LinkageRecord, anchors Anchor) float64 {
	if anchors == 0 {
		anchors = AllAnchors
	}
	score := 0.0

	if anchors.Has(AnchorSSN) {
		ka, kb := GovernmentIDKind(a.EntityType), GovernmentIDKind(b.EntityType)
		if ka != "" && kb != "" {
			if ok, _ := fuzzy.GovernmentIDsMatch(ka, a.NormalizedValue, kb, b.NormalizedValue); ok {
				score += WeightGovernmentID
			}
		}
	}

	if anchors.Has(AnchorEmail) && a.RawEmail != "" && b.RawEmail != "" {
		ea, eb := normalize.Email(a.RawEmail), normalize.Email(b.RawEmail)
		if ea != "" && ea == eb {
			score += WeightEmail
		}
	}

	if anchors.Has(AnchorPhone) && a.RawPhone != "" && a.RawPhone == b.RawPhone {
		score += WeightPhone
	}

	if anchors.hasAny(nameAnchors) && a.RawName != "" && b.RawName != "" {
		if ok, _ := fuzzy.NamesMatch(a.RawName, b.RawName); ok {
			score += nameBonus(a, b, anchors)
		}
	}

	return min(score, 1.0)
}

func nameBonus(a, b *LinkageRecord, anchors Anchor) float64 {
	bonus := 0.0
	switch {
	case anchors.Has(AnchorNameDOB) && a.RawDOB != "" && b.RawDOB != "" && dobsMatch(a, b):
		bonus += WeightNameDOB
	case anchors.Has(AnchorNameAddress) && a.RawAddress != nil && b.RawAddress != nil && addressesMatch(a, b):
		bonus += WeightNameAddress
	}
	if anchors.Has(AnchorName) {
		bonus += WeightName
	}
	return bonus
}

func dobsMatch(a, b *LinkageRecord) bool {
	ok, _ := fuzzy.DOBsMatch(a.RawDOB, a.country(), b.RawDOB, b.country())
	return ok
}

func addressesMatch(a, b *LinkageRecord) bool {
	ok, _ := fuzzy.AddressesMatch(a.RawAddress, b.RawAddress)
	return ok
}
