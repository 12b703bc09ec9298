// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import "strings"

// gmailDomains ignore dots in the local part.
var gmailDomains = map[string]bool{"gmail.com": true, "googlemail.com": true}

// Email lowercases and trims raw. For Gmail addresses the dots in the local
// part are dropped; sub-address tags are kept.
func Email(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		return s
	}
	if gmailDomains[domain] {
		local = strings.ReplaceAll(local, ".", "")
	}
	return local + "@" + domain
}
