// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resolver links LinkageRecords that describe the same individual.
// Pairwise confidence is built from exact and fuzzy identity signals and
// records are grouped transitively with a union-find.
package resolver

import (
	"strings"

	"pii-linkage/internal/normalize"
)

// DefaultCountry is assumed for records that carry no country.
const DefaultCountry = "US"

// LinkageRecord is one accepted detection projected onto the identity
// attributes available for it. Raw fields are empty when absent. Records
// hold raw values and must never be logged.
type LinkageRecord struct {
	RecordID         string
	EntityType       string
	NormalizedValue  string
	RawName          string
	RawAddress       *normalize.Address
	RawPhone         string
	RawEmail         string
	RawDOB           string
	Country          string
	SourceDocumentID string
	PageOrSheet      string
}

func (r *LinkageRecord) country() string {
	if r.Country == "" {
		return DefaultCountry
	}
	return r.Country
}

// ResolvedGroup is a set of records believed to be one individual.
// MergeConfidence is the lowest pairwise confidence inside the group.
type ResolvedGroup struct {
	GroupID          string
	Records          []LinkageRecord
	MergeConfidence  float64
	NeedsHumanReview bool
}

// RecordIDs returns the member record identifiers in group order.
func (g *ResolvedGroup) RecordIDs() []string {
	ids := make([]string, len(g.Records))
	for i, r := range g.Records {
		ids[i] = r.RecordID
	}
	return ids
}

// govIDKinds maps entity types that denote government-issued identifiers to
// the kind compared by GovernmentIDsMatch. Types that denote the same
// identifier in different shapes share a kind.
var govIDKinds = map[string]string{
	"SSN":                   "SSN",
	"SSN_NODASH":            "SSN",
	"US_SSN":                "SSN",
	"PASSPORT":              "PASSPORT",
	"US_PASSPORT":           "PASSPORT",
	"PASSPORT_ICAO":         "PASSPORT",
	"PASSPORT_UK":           "PASSPORT",
	"PASSPORT_IN":           "PASSPORT",
	"PASSPORT_CA":           "PASSPORT",
	"PASSPORT_AU":           "PASSPORT",
	"DRIVER_LICENSE":        "DRIVER_LICENSE",
	"US_DRIVER_LICENSE":     "DRIVER_LICENSE",
	"DRIVER_LICENSE_US":     "DRIVER_LICENSE",
	"DRIVER_LICENSE_IN":     "DRIVER_LICENSE_IN",
	"UK_NHS":                "NHS",
	"NHS_NUMBER":            "NHS",
	"UK_NINO":               "NINO",
	"NATIONAL_INSURANCE_UK": "NINO",
	"NI_UK":                 "NINO",
	"AU_TFN":                "TFN",
	"TAX_FILE_NUMBER_AU":    "TFN",
	"AU_MEDICARE":           "MEDICARE_AU",
	"MEDICARE_AU":           "MEDICARE_AU",
	"IN_AADHAAR":            "AADHAAR",
	"AADHAAR":               "AADHAAR",
	"IN_PAN":                "PAN",
	"PAN":                   "PAN",
	"PAN_IN":                "PAN",
	"SIN_CA":                "SIN_CA",
	"NATIONAL_ID_DE":        "NATIONAL_ID_DE",
	"DNI_NIE_ES":            "DNI_NIE_ES",
	"CODICE_FISCALE_IT":     "CODICE_FISCALE_IT",
	"INSEE_FR":              "INSEE_FR",
	"VOTER_ID_IN":           "VOTER_ID_IN",
	"GOVERNMENT_ID":         "GOVERNMENT_ID",
}

// GovernmentIDKind returns the identifier kind for an entity type, or ""
// when the type is not a government identifier.
func GovernmentIDKind(entityType string) string {
	return govIDKinds[strings.ToUpper(entityType)]
}
