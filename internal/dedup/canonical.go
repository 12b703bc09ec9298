// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"sort"

	"github.com/google/uuid"

	"pii-linkage/internal/normalize"
	"pii-linkage/internal/resolver"
)

// BestValue picks the canonical value among the non-empty values: most
// frequent first, then longest, then lexicographically first. It returns ""
// when there is no value.
func BestValue(values []string) string {
	counts := make(map[string]int)
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	candidates := make([]string, 0, len(counts))
	for v := range counts {
		candidates = append(candidates, v)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return candidates[0]
}

// BestAddress picks the first address carrying the best postal code, chosen
// with the BestValue rule. Without any postal code the first address wins.
func BestAddress(addresses []*normalize.Address) *normalize.Address {
	var valid []*normalize.Address
	zips := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a == nil {
			continue
		}
		valid = append(valid, a)
		zips = append(zips, a.Zip)
	}
	if len(valid) == 0 {
		return nil
	}
	best := BestValue(zips)
	if best == "" {
		return valid[0]
	}
	for _, a := range valid {
		if a.Zip == best {
			return a
		}
	}
	return valid[0]
}

// Canonicalize builds a new, unsaved Subject from a resolved group. It is a
// pure function of the group apart from the generated subject id.
func Canonicalize(group *resolver.ResolvedGroup) *Subject {
	var names, emails, phones []string
	var addresses []*normalize.Address
	types := make(map[string]bool)

	for i := range group.Records {
		r := &group.Records[i]
		if r.RawName != "" {
			names = append(names, normalize.Name(r.RawName))
		}
		if r.RawEmail != "" {
			emails = append(emails, normalize.Email(r.RawEmail))
		}
		if r.RawPhone != "" {
			phones = append(phones, r.RawPhone)
		}
		if r.RawAddress != nil {
			addresses = append(addresses, r.RawAddress)
		}
		types[r.EntityType] = true
	}

	piiTypes := make([]string, 0, len(types))
	for t := range types {
		piiTypes = append(piiTypes, t)
	}
	sort.Strings(piiTypes)

	status := ReviewAIPending
	if group.NeedsHumanReview {
		status = ReviewHumanReview
	}

	s := &Subject{
		SubjectID:       uuid.NewString(),
		CanonicalName:   BestValue(names),
		CanonicalEmail:  BestValue(emails),
		CanonicalPhone:  BestValue(phones),
		PIITypesFound:   piiTypes,
		SourceRecords:   appendMissing(nil, group.RecordIDs()),
		MergeConfidence: group.MergeConfidence,
		ReviewStatus:    status,
	}
	if addr := BestAddress(addresses); addr != nil {
		cp := *addr
		s.CanonicalAddress = &cp
	}
	return s
}
