// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed when a phone number has no international prefix.
const DefaultRegion = "US"

// Phone returns raw in E.164 form. ok is false when raw is blank, cannot be
// parsed or is not a valid number for its region.
func Phone(raw, region string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
