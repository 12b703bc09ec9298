// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy holds the approximate matching primitives used by the entity
// resolver: Soundex, Jaro and Jaro-Winkler similarity, and typed checks for
// names, addresses, dates of birth and government identifiers. All checks
// are pure and case-insensitive, and none of them log.
package fuzzy

import (
	"strings"
	"unicode"
)

// ZeroSoundex is returned for empty or non-alphabetic input.
const ZeroSoundex = "0000"

var soundexCodes = map[rune]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// Soundex returns the American Soundex code of name: one letter and three
// digits. Only ASCII letters are considered. Vowels and h, w, y separate
// letters so a repeated code on either side of them counts twice.
func Soundex(name string) string {
	letters := make([]rune, 0, len(name))
	for _, r := range name {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			letters = append(letters, unicode.ToLower(r))
		}
	}
	if len(letters) == 0 {
		return ZeroSoundex
	}

	code := []byte{byte(unicode.ToUpper(letters[0]))}
	prev := soundexCodes[letters[0]]
	for _, r := range letters[1:] {
		if strings.ContainsRune("aeiouyhw", r) {
			prev = 0
			continue
		}
		digit := soundexCodes[r]
		if digit != 0 && digit != prev {
			code = append(code, digit)
			if len(code) == 4 {
				break
			}
		}
		prev = digit
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// Jaro returns the Jaro similarity of a and b, compared case-insensitively
// by code point.
func Jaro(a, b string) float64 {
	s1 := []rune(strings.ToLower(a))
	s2 := []rune(strings.ToLower(b))
	if string(s1) == string(s2) {
		return 1
	}
	l1, l2 := len(s1), len(s2)
	if l1 == 0 || l2 == 0 {
		return 0
	}

	matchDist := max(max(l1, l2)/2-1, 0)
	m1 := make([]bool, l1)
	m2 := make([]bool, l2)
	matches := 0
	for i := 0; i < l1; i++ {
		lo := max(0, i-matchDist)
		hi := min(i+matchDist+1, l2)
		for j := lo; j < hi; j++ {
			if m2[j] || s1[i] != s2[j] {
				continue
			}
			m1[i], m2[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < l1; i++ {
		if !m1[i] {
			continue
		}
		for !m2[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(l1) + m/float64(l2) + (m-t)/m) / 3
}

// WinklerScale is the standard Jaro-Winkler prefix scaling factor.
const WinklerScale = 0.1

// JaroWinkler returns the Jaro similarity boosted by up to four shared
// leading characters, clamped to [0,1].
func JaroWinkler(a, b string) float64 {
	j := Jaro(a, b)
	p1 := []rune(strings.ToLower(a))
	p2 := []rune(strings.ToLower(b))
	prefix := 0
	for prefix < 4 && prefix < len(p1) && prefix < len(p2) && p1[prefix] == p2[prefix] {
		prefix++
	}
	return min(1, j+float64(prefix)*WinklerScale*(1-j))
}

// editDistanceOne reports whether a and b differ by exactly one substitution,
// insertion or deletion.
func editDistanceOne(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la-lb > 1 || lb-la > 1 {
		return false
	}
	if la == lb {
		diffs := 0
		for i := range ra {
			if ra[i] != rb[i] {
				diffs++
			}
		}
		return diffs == 1
	}
	if la > lb {
		ra, rb = rb, ra
		la, lb = lb, la
	}
	i := 0
	skipped := false
	for j := 0; j < lb; j++ {
		switch {
		case i < la && ra[i] == rb[j]:
			i++
		case skipped:
			return false
		default:
			skipped = true
		}
	}
	return true
}
