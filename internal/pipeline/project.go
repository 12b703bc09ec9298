// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"pii-linkage/internal/fuzzy"
	"pii-linkage/internal/normalize"
	"pii-linkage/internal/resolver"
)

// DefaultAcceptanceThreshold is the lowest final score projected onto a
// linkage record.
const DefaultAcceptanceThreshold = 0.50

// Identity attribute families an entity type can fill.
const (
	kindOther = iota
	kindEmail
	kindPhone
	kindName
	kindDOB
	kindAddress
)

var entityKinds = map[string]int{
	"EMAIL":             kindEmail,
	"EMAIL_ADDRESS":     kindEmail,
	"PHONE_US":          kindPhone,
	"PHONE_INTL":        kindPhone,
	"PHONE_NUMBER":      kindPhone,
	"MOBILE_IN":         kindPhone,
	"PERSON":            kindName,
	"DATE_OF_BIRTH_ISO": kindDOB,
	"DATE_OF_BIRTH_DMY": kindDOB,
	"DATE_OF_BIRTH_MDY": kindDOB,
	"LOCATION":          kindAddress,
}

// Header keywords that turn a generic date into a date of birth.
var dobHeaders = map[string]bool{
	"header:dob":           true,
	"header:date of birth": true,
	"header:birth":         true,
}

// geographyCountries maps catalog geographies to ISO country codes.
var geographyCountries = map[string]string{
	"US": "US",
	"UK": "GB",
	"IN": "IN",
	"CA": "CA",
	"AU": "AU",
}

// Projection is a linkage record plus the raw text it was built from.
type Projection struct {
	Record   resolver.LinkageRecord
	RawValue string
}

// Projector turns detections into linkage records.
type Projector struct {
	AcceptanceThreshold float64
	DefaultCountry      string
	newID               func() string
}

// NewProjector returns a Projector with the default threshold and country.
func NewProjector() *Projector {
	return &Projector{
		AcceptanceThreshold: DefaultAcceptanceThreshold,
		DefaultCountry:      resolver.DefaultCountry,
		newID:               uuid.NewString,
	}
}

// Project builds one record per accepted detection of a document. Records
// taken from the same table row also receive the row's other identity
// attributes, since a row describes one individual.
func (p *Projector) Project(docID string, detections []Detection) []Projection {
	var out []Projection
	rows := make(map[string][]int)

	for _, d := range detections {
		c := d.Candidate
		if c.Score() < p.AcceptanceThreshold || strings.TrimSpace(d.Value) == "" {
			continue
		}
		rec := resolver.LinkageRecord{
			RecordID:         p.newID(),
			EntityType:       c.EntityType(),
			Country:          p.country(c.Geography()),
			SourceDocumentID: docID,
		}
		seg := c.Segment()
		if seg != nil && seg.Sheet != "" {
			rec.PageOrSheet = seg.Sheet
		} else {
			rec.PageOrSheet = strconv.Itoa(d.PageFrom)
		}
		if !p.fill(&rec, d, c.PatternUsed()) {
			continue
		}

		out = append(out, Projection{Record: rec, RawValue: d.Value})
		if seg != nil && seg.Row > 0 {
			key := seg.Sheet + "\x00" + strconv.Itoa(seg.Row)
			rows[key] = append(rows[key], len(out)-1)
		}
	}

	for _, idx := range rows {
		shareRow(out, idx)
	}
	return out
}

// fill sets the typed raw field and the normalized value. It returns false
// when nothing usable remains after normalization.
func (p *Projector) fill(rec *resolver.LinkageRecord, d Detection, pattern string) bool {
	value := strings.TrimSpace(d.Value)
	kind := entityKinds[rec.EntityType]
	if rec.EntityType == "DATE_TIME" && dobHeaders[pattern] {
		kind = kindDOB
	}

	switch kind {
	case kindEmail:
		rec.RawEmail = value
		rec.NormalizedValue = normalize.Email(value)
	case kindPhone:
		phone, ok := normalize.Phone(value, rec.Country)
		if !ok {
			phone = value
		}
		rec.RawPhone = phone
		rec.NormalizedValue = phone
	case kindName:
		rec.RawName = value
		rec.NormalizedValue = normalize.Name(value)
	case kindDOB:
		rec.RawDOB = value
		rec.NormalizedValue = value
		if iso, ok := fuzzy.NormalizeDOB(value, rec.Country); ok {
			rec.NormalizedValue = iso
		}
	case kindAddress:
		addr, ok := normalize.ParseAddress(value)
		if !ok {
			rec.NormalizedValue = value
			break
		}
		rec.RawAddress = addr
		if addr.Country != "" {
			rec.Country = addr.Country
		}
		rec.NormalizedValue = formatAddress(addr)
	default:
		if resolver.GovernmentIDKind(rec.EntityType) != "" {
			rec.NormalizedValue = compactID(value)
		} else {
			rec.NormalizedValue = value
		}
	}
	return rec.NormalizedValue != ""
}

func (p *Projector) country(geography string) string {
	if c, ok := geographyCountries[geography]; ok {
		return c
	}
	if p.DefaultCountry != "" {
		return p.DefaultCountry
	}
	return resolver.DefaultCountry
}

// shareRow copies the first name, email, phone, DOB and address found in a
// row onto every record of the row that lacks them.
func shareRow(projections []Projection, idx []int) {
	var shared resolver.LinkageRecord
	for _, i := range idx {
		r := &projections[i].Record
		shared.RawName = first(shared.RawName, r.RawName)
		shared.RawEmail = first(shared.RawEmail, r.RawEmail)
		shared.RawPhone = first(shared.RawPhone, r.RawPhone)
		shared.RawDOB = first(shared.RawDOB, r.RawDOB)
		if shared.RawAddress == nil {
			shared.RawAddress = r.RawAddress
		}
	}
	for _, i := range idx {
		r := &projections[i].Record
		r.RawName = first(r.RawName, shared.RawName)
		r.RawEmail = first(r.RawEmail, shared.RawEmail)
		r.RawPhone = first(r.RawPhone, shared.RawPhone)
		r.RawDOB = first(r.RawDOB, shared.RawDOB)
		if r.RawAddress == nil && shared.RawAddress != nil {
			addr := *shared.RawAddress
			r.RawAddress = &addr
		}
	}
}

func first(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// compactID drops separators from an identifier and upper-cases it, so
// 123-45-6789 and 123456789 compare equal.
func compactID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func formatAddress(a *normalize.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.Zip, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
