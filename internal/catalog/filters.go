// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"unicode"
	"unicode/utf8"
)

// LuhnCheck reports whether the digits of s pass the Mod-10 check.
// Non-digit characters are ignored so spaced or dashed card numbers work.
func LuhnCheck(s string) bool {
	digits := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) == 0 {
		return false
	}

	sum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func luhnFilter(text string, start, end int) bool {
	return LuhnCheck(text[start:end])
}

// ssnNoDashFilter rejects area numbers 000, 666 and 9xx, group 00 and serial 0000.
func ssnNoDashFilter(text string, start, end int) bool {
	m := text[start:end]
	if len(m) != 9 {
		return false
	}
	area, group, serial := m[:3], m[3:5], m[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return group != "00" && serial != "0000"
}

// wordBoundedFilter requires that the match is not glued to a word
// character on either side.
func wordBoundedFilter(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

var ninoBlockedPrefixes = map[string]bool{
	"BG": true, "GB": true, "NK": true, "KN": true, "TN": true, "NT": true, "ZZ": true,
}

func ninoFilter(text string, start, end int) bool {
	if end-start < 2 {
		return false
	}
	return !ninoBlockedPrefixes[text[start:start+2]]
}
