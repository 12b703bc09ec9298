// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package catalog

// Score bands:
//
//	>= 0.85  very specific format
//	   0.80  high confidence
//	   0.75  moderate, context may help
//	   0.70  ambiguous, Layer-2 required
//	 < 0.70  low, Layer-2 or Layer-3 mandatory
func builtinPatterns() []Pattern {
	return []Pattern{
		// GLOBAL, active for every jurisdiction
		{
			Name:                "email",
			EntityType:          "EMAIL",
			Expr:                `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
			Score:               0.85,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA/PIPEDA",
		},
		{
			Name:                "phone_international",
			EntityType:          "PHONE_INTL",
			Expr:                `\+\d{1,3}[\s\-]?\(?\d{1,4}\)?[\s\-]?\d{1,4}[\s\-]?\d{1,9}`,
			Score:               0.75,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GLOBAL",
		},
		// Luhn post-filter drops digit runs that are not card numbers.
		{
			Name:                "credit_card",
			EntityType:          "CREDIT_CARD",
			Expr:                `\b(?:\d[ \-]?){13,18}\d\b`,
			Score:               0.80,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "PCI-DSS",
			filter:              luhnFilter,
		},
		{
			Name:                "iban",
			EntityType:          "IBAN",
			Expr:                `\b[A-Z]{2}\d{2}[A-Z0-9]{4,30}\b`,
			Score:               0.85,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/PCI-DSS",
		},
		{
			Name:                "ipv4",
			EntityType:          "IPV4",
			Expr:                `\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`,
			Score:               0.80,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA",
		},
		{
			Name:                "ipv6",
			EntityType:          "IPV6",
			Expr:                `\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`,
			Score:               0.80,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA",
		},
		// Dates overlap with ordinary dates; context decides.
		{
			Name:                "date_of_birth_dmy",
			EntityType:          "DATE_OF_BIRTH_DMY",
			Expr:                `\b(?:0?[1-9]|[12]\d|3[01])/(?:0?[1-9]|1[0-2])/(?:19|20)\d{2}\b`,
			Score:               0.70,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA/PIPEDA",
		},
		{
			Name:                "date_of_birth_mdy",
			EntityType:          "DATE_OF_BIRTH_MDY",
			Expr:                `\b(?:0?[1-9]|1[0-2])/(?:0?[1-9]|[12]\d|3[01])/(?:19|20)\d{2}\b`,
			Score:               0.70,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA/PIPEDA",
		},
		{
			Name:                "date_of_birth_iso",
			EntityType:          "DATE_OF_BIRTH_ISO",
			Expr:                `\b(?:19|20)\d{2}-(?:0[1-9]|1[0-2])-(?:0[1-9]|[12]\d|3[01])\b`,
			Score:               0.70,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA/PIPEDA",
		},
		{
			Name:                "gps_coordinates",
			EntityType:          "GPS_COORDINATES",
			Expr:                `\b-?(?:[1-8]?\d(?:\.\d+)?|90(?:\.0+)?),\s*-?(?:1[0-7]\d(?:\.\d+)?|[1-9]?\d(?:\.\d+)?|180(?:\.0+)?)\b`,
			Score:               0.75,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GDPR/CCPA",
		},
		// Needs a "passport" keyword nearby.
		{
			Name:                "passport_icao",
			EntityType:          "PASSPORT_ICAO",
			Expr:                `\b[A-Z]{1,2}[0-9]{6,9}\b`,
			Score:               0.70,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "GLOBAL",
		},

		// United States
		{
			Name:                "ssn_us",
			EntityType:          "SSN",
			Expr:                `\b\d{3}-\d{2}-\d{4}\b`,
			Score:               0.90,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA/CCPA",
		},
		// Invalid area/group/serial values are rejected by the post-filter.
		{
			Name:                "ssn_us_nodash",
			EntityType:          "SSN_NODASH",
			Expr:                `\b\d{9}\b`,
			Score:               0.60,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA/CCPA",
			filter:              ssnNoDashFilter,
		},
		// Must not be glued to a word character on either side.
		{
			Name:                "phone_us",
			EntityType:          "PHONE_US",
			Expr:                `(?:1[\s\-.])?(?:\(\d{3}\)|\d{3})[\s\-.]?\d{3}[\s\-.]?\d{4}`,
			Score:               0.80,
			Geography:           GeographyUS,
			RegulatoryFramework: "TCPA/CCPA",
			filter:              wordBoundedFilter,
		},
		// State formats vary widely.
		{
			Name:                "driver_license_us",
			EntityType:          "DRIVER_LICENSE_US",
			Expr:                `\b[A-Z]{0,2}\d{6,8}\b`,
			Score:               0.65,
			Geography:           GeographyUS,
			RegulatoryFramework: "DPPA/CCPA",
		},
		{
			Name:                "ein_us",
			EntityType:          "EIN",
			Expr:                `\b\d{2}-\d{7}\b`,
			Score:               0.80,
			Geography:           GeographyUS,
			RegulatoryFramework: "IRS/CCPA",
		},
		{
			Name:                "bank_routing_us",
			EntityType:          "BANK_ROUTING_US",
			Expr:                `\b(?:0[0-9]|1[0-2]|2[1-9]|3[0-2])\d{7}\b`,
			Score:               0.75,
			Geography:           GeographyUS,
			RegulatoryFramework: "GLBA",
		},
		{
			Name:                "medicare_beneficiary_id",
			EntityType:          "MEDICARE_BENEFICIARY_ID",
			Expr:                `\b[1-9][A-Z][A-Z0-9]\d[A-Z][A-Z0-9]\d[A-Z]{2}\d{2}\b`,
			Score:               0.85,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},

		// India
		// First digit is 2-9; 0 and 1 are never issued.
		{
			Name:                "aadhaar",
			EntityType:          "AADHAAR",
			Expr:                `\b[2-9]\d{3}[\s\-]?\d{4}[\s\-]?\d{4}\b`,
			Score:               0.85,
			Geography:           GeographyIN,
			RegulatoryFramework: "DPDP/IT-Act",
		},
		// 4th character encodes the taxpayer type.
		{
			Name:                "pan_card",
			EntityType:          "PAN",
			Expr:                `\b[A-Z]{3}[ABCFGHLJPTF][A-Z]\d{4}[A-Z]\b`,
			Score:               0.95,
			Geography:           GeographyIN,
			RegulatoryFramework: "IT-Act/DPDP",
		},
		{
			Name:                "passport_in",
			EntityType:          "PASSPORT_IN",
			Expr:                `\b[A-Z][1-9]\d{6}\b`,
			Score:               0.80,
			Geography:           GeographyIN,
			RegulatoryFramework: "DPDP",
		},
		{
			Name:                "mobile_in",
			EntityType:          "MOBILE_IN",
			Expr:                `\b(?:\+91[\s\-]?)?[6-9]\d{9}\b`,
			Score:               0.85,
			Geography:           GeographyIN,
			RegulatoryFramework: "DPDP/TRAI",
		},
		{
			Name:                "voter_id_in",
			EntityType:          "VOTER_ID_IN",
			Expr:                `\b[A-Z]{3}\d{7}\b`,
			Score:               0.75,
			Geography:           GeographyIN,
			RegulatoryFramework: "DPDP",
		},
		{
			Name:                "driver_license_in",
			EntityType:          "DRIVER_LICENSE_IN",
			Expr:                `\b[A-Z]{2}\d{2}\s?\d{11}\b`,
			Score:               0.75,
			Geography:           GeographyIN,
			RegulatoryFramework: "DPDP",
		},
		{
			Name:                "gst_in",
			EntityType:          "GST_NUMBER",
			Expr:                `\b\d{2}[A-Z]{5}\d{4}[A-Z]\d[Z][A-Z\d]\b`,
			Score:               0.90,
			Geography:           GeographyIN,
			RegulatoryFramework: "GST-Act",
		},

		// United Kingdom
		// Administrative prefixes BG GB NK KN TN NT ZZ are never issued.
		{
			Name:                "national_insurance_uk",
			EntityType:          "NATIONAL_INSURANCE_UK",
			Expr:                `\b[A-CEGHJ-PR-TW-Z]{2}\d{6}[ABCD]\b`,
			Score:               0.95,
			Geography:           GeographyUK,
			RegulatoryFramework: "UK-GDPR",
			filter:              ninoFilter,
		},
		// Modulus 11 is not enforced; overlaps with phone numbers.
		{
			Name:                "nhs_number",
			EntityType:          "NHS_NUMBER",
			Expr:                `\b\d{3}[\s\-]?\d{3}[\s\-]?\d{4}\b`,
			Score:               0.70,
			Geography:           GeographyUK,
			RegulatoryFramework: "UK-GDPR/DSPT",
		},
		// Nine bare digits.
		{
			Name:                "passport_uk",
			EntityType:          "PASSPORT_UK",
			Expr:                `\b\d{9}\b`,
			Score:               0.60,
			Geography:           GeographyUK,
			RegulatoryFramework: "UK-GDPR",
		},
		{
			Name:                "sort_code_uk",
			EntityType:          "SORT_CODE_UK",
			Expr:                `\b\d{2}-\d{2}-\d{2}\b`,
			Score:               0.75,
			Geography:           GeographyUK,
			RegulatoryFramework: "UK-GDPR/PSD2",
		},
		{
			Name:                "company_number_uk",
			EntityType:          "COMPANY_NUMBER_UK",
			Expr:                `\b(?:OC|NI|SC|NL|LP|R|IP|SP|RS|FC|GE|GS|IC|CE|CS|AC|SA|NA|SL|[A-Z]{2})?\d{6,8}\b`,
			Score:               0.70,
			Geography:           GeographyUK,
			RegulatoryFramework: "UK-GDPR",
		},

		// European Union
		{
			Name:                "vat_eu",
			EntityType:          "VAT_EU",
			Expr:                `\b[A-Z]{2}[\dA-Z]{8,12}\b`,
			Score:               0.75,
			Geography:           GeographyEU,
			RegulatoryFramework: "GDPR/VAT-Directive",
		},
		{
			Name:                "personalausweis_de",
			EntityType:          "NATIONAL_ID_DE",
			Expr:                `\b[LMNPRTVWXY][A-Z0-9]{3}\d{5}[A-Z0-9]\b`,
			Score:               0.85,
			Geography:           GeographyEU,
			RegulatoryFramework: "GDPR/BDSG",
		},
		{
			Name:                "insee_fr",
			EntityType:          "INSEE_FR",
			Expr:                `\b[12]\s?\d{2}\s?\d{2}\s?\d{2}\s?\d{3}\s?\d{3}\s?\d{2}\b`,
			Score:               0.85,
			Geography:           GeographyEU,
			RegulatoryFramework: "GDPR/CNIL",
		},
		{
			Name:                "dni_nie_es",
			EntityType:          "DNI_NIE_ES",
			Expr:                `\b(?:\d{8}[A-HJ-NP-TV-Z]|[XYZ]\d{7}[A-HJ-NP-TV-Z])\b`,
			Score:               0.90,
			Geography:           GeographyEU,
			RegulatoryFramework: "GDPR/LOPDGDD",
		},
		{
			Name:                "codice_fiscale_it",
			EntityType:          "CODICE_FISCALE_IT",
			Expr:                `\b[A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z]\b`,
			Score:               0.90,
			Geography:           GeographyEU,
			RegulatoryFramework: "GDPR/Codice-Privacy",
		},

		// Canada
		// Overlaps with phone numbers.
		{
			Name:                "sin_ca",
			EntityType:          "SIN_CA",
			Expr:                `\b\d{3}[\s\-]?\d{3}[\s\-]?\d{3}\b`,
			Score:               0.80,
			Geography:           GeographyCA,
			RegulatoryFramework: "PIPEDA",
		},
		{
			Name:                "passport_ca",
			EntityType:          "PASSPORT_CA",
			Expr:                `\b[A-Z]{2}\d{6}\b`,
			Score:               0.80,
			Geography:           GeographyCA,
			RegulatoryFramework: "PIPEDA",
		},
		{
			Name:                "health_card_ca",
			EntityType:          "HEALTH_CARD_CA",
			Expr:                `\b\d{10}\b`,
			Score:               0.60,
			Geography:           GeographyCA,
			RegulatoryFramework: "PHIPA/PIPEDA",
		},

		// Australia
		{
			Name:                "tfn_au",
			EntityType:          "TAX_FILE_NUMBER_AU",
			Expr:                `\b\d{3}[\s\-]?\d{3}[\s\-]?\d{2,3}\b`,
			Score:               0.75,
			Geography:           GeographyAU,
			RegulatoryFramework: "Privacy-Act-AU",
		},
		{
			Name:                "medicare_au",
			EntityType:          "MEDICARE_AU",
			Expr:                `\b\d{10}[\-/]\d\b`,
			Score:               0.90,
			Geography:           GeographyAU,
			RegulatoryFramework: "Privacy-Act-AU/My-Health-Records-Act",
		},
		{
			Name:                "abn_au",
			EntityType:          "ABN_AU",
			Expr:                `\b\d{2}\s?\d{3}\s?\d{3}\s?\d{3}\b`,
			Score:               0.85,
			Geography:           GeographyAU,
			RegulatoryFramework: "Privacy-Act-AU",
		},
		{
			Name:                "passport_au",
			EntityType:          "PASSPORT_AU",
			Expr:                `\b[A-Z]\d{8}\b`,
			Score:               0.80,
			Geography:           GeographyAU,
			RegulatoryFramework: "Privacy-Act-AU",
		},

		// Protected health information (US / HIPAA)
		// Requires the MRN label.
		{
			Name:                "mrn",
			EntityType:          "MRN",
			Expr:                `\bMRN[:\s#]*\d{5,10}\b`,
			Score:               0.70,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},
		// Ten bare digits; needs a provider keyword nearby.
		{
			Name:                "npi",
			EntityType:          "NPI",
			Expr:                `\b\d{10}\b`,
			Score:               0.65,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},
		{
			Name:                "dea_number",
			EntityType:          "DEA_NUMBER",
			Expr:                `\b[A-Z]{2}\d{7}\b`,
			Score:               0.80,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},
		{
			Name:                "hicn",
			EntityType:          "HICN",
			Expr:                `\b\d{9}[A-Z]\b`,
			Score:               0.75,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},
		{
			Name:                "health_plan_beneficiary",
			EntityType:          "HEALTH_PLAN_BENEFICIARY",
			Expr:                `\bHP[A-Z0-9]{8,12}\b`,
			Score:               0.70,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},
		// Needs a diagnosis keyword nearby.
		{
			Name:                "icd10_code",
			EntityType:          "ICD10_CODE",
			Expr:                `\b[A-Z]\d{2}(?:\.\d{1,4})?\b`,
			Score:               0.60,
			Geography:           GeographyUS,
			RegulatoryFramework: "HIPAA",
		},

		// Student records (FERPA)
		{
			Name:                "student_id",
			EntityType:          "STUDENT_ID",
			Expr:                `\b(?:STU|SID|S)[A-Z0-9\-]{4,12}\b`,
			Score:               0.65,
			Geography:           GeographyUS,
			RegulatoryFramework: "FERPA",
		},

		// Sensitive personal information
		{
			Name:                "biometric_identifier",
			EntityType:          "BIOMETRIC_IDENTIFIER",
			Expr:                `\b(?:fingerprint|retinal|iris|biometric)\s+(?:id|identifier|scan|record)\b`,
			Score:               0.60,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "CCPA/GDPR",
		},
		// Routing number followed within ~20 chars by an account number.
		{
			Name:                "financial_account_pair",
			EntityType:          "FINANCIAL_ACCOUNT_PAIR",
			Expr:                `\b\d{9}\b.{0,20}\b\d{8,17}\b`,
			Score:               0.70,
			Geography:           GeographyGlobal,
			RegulatoryFramework: "CCPA/GDPR",
		},

		// Pupil rights (PPRA)
		// Never acted on without a header corroboration.
		{
			Name:                "survey_response",
			EntityType:          "SURVEY_RESPONSE",
			Expr:                `\b(?:survey|questionnaire|response|answer)\b`,
			Score:               0.55,
			Geography:           GeographyUS,
			RegulatoryFramework: "PPRA",
		},
	}
}
