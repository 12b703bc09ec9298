// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidAnchor is returned for an anchor name outside the known set.
var ErrInvalidAnchor = errors.New("invalid dedup anchor")

// Anchor selects one family of matching signals.
type Anchor uint8

const (
	AnchorSSN Anchor = 1 << iota
	AnchorEmail
	AnchorPhone
	AnchorNameDOB
	AnchorNameAddress
	AnchorName
)

// AllAnchors enables every signal.
const AllAnchors = AnchorSSN | AnchorEmail | AnchorPhone | AnchorNameDOB | AnchorNameAddress | AnchorName

const nameAnchors = AnchorNameDOB | AnchorNameAddress | AnchorName

var anchorNames = map[string]Anchor{
	"ssn":          AnchorSSN,
	"email":        AnchorEmail,
	"phone":        AnchorPhone,
	"name_dob":     AnchorNameDOB,
	"name_address": AnchorNameAddress,
	"name":         AnchorName,
}

// Has reports whether every anchor in a is enabled.
func (a Anchor) Has(b Anchor) bool { return a&b == b }

func (a Anchor) hasAny(b Anchor) bool { return a&b != 0 }

// Names returns the enabled anchor names, sorted.
func (a Anchor) Names() []string {
	var out []string
	for name, bit := range anchorNames {
		if a.Has(bit) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ValidAnchorNames lists every accepted anchor name.
func ValidAnchorNames() []string { return AllAnchors.Names() }

// ParseAnchors turns anchor names into a set. Names are trimmed and
// case-insensitive. A nil or empty list enables every anchor.
func ParseAnchors(names []string) (Anchor, error) {
	var set Anchor
	var invalid []string
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		bit, ok := anchorNames[key]
		if !ok {
			invalid = append(invalid, key)
			continue
		}
		set |= bit
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrInvalidAnchor, invalid, strings.Join(ValidAnchorNames(), ", "))
	}
	if set == 0 {
		return AllAnchors, nil
	}
	return set, nil
}
