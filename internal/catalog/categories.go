// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package catalog

import "strings"

// Data categories an entity type can belong to.
const (
	CategoryPII         = "PII"
	CategorySPII        = "SPII"
	CategoryPHI         = "PHI"
	CategoryPFI         = "PFI"
	CategoryPCI         = "PCI"
	CategoryNPI         = "NPI"
	CategoryFTI         = "FTI"
	CategoryCredentials = "CREDENTIALS"
)

var entityCategories = map[string][]string{
	"EMAIL":                   {CategoryPII},
	"PHONE_INTL":              {CategoryPII},
	"CREDIT_CARD":             {CategoryPFI, CategoryPCI},
	"IBAN":                    {CategoryPFI, CategoryNPI},
	"IPV4":                    {CategoryPII},
	"IPV6":                    {CategoryPII},
	"DATE_OF_BIRTH_DMY":       {CategoryPII, CategorySPII},
	"DATE_OF_BIRTH_MDY":       {CategoryPII, CategorySPII},
	"DATE_OF_BIRTH_ISO":       {CategoryPII, CategorySPII},
	"GPS_COORDINATES":         {CategoryPII},
	"PASSPORT_ICAO":           {CategoryPII, CategorySPII},
	"SSN":                     {CategoryPII, CategorySPII},
	"SSN_NODASH":              {CategoryPII, CategorySPII},
	"PHONE_US":                {CategoryPII},
	"DRIVER_LICENSE_US":       {CategoryPII, CategorySPII},
	"EIN":                     {CategoryPII, CategoryFTI},
	"BANK_ROUTING_US":         {CategoryPFI, CategoryNPI},
	"MEDICARE_BENEFICIARY_ID": {CategoryPHI},
	"AADHAAR":                 {CategoryPII, CategorySPII},
	"PAN":                     {CategoryPII, CategoryFTI},
	"PASSPORT_IN":             {CategoryPII, CategorySPII},
	"MOBILE_IN":               {CategoryPII},
	"VOTER_ID_IN":             {CategoryPII, CategorySPII},
	"DRIVER_LICENSE_IN":       {CategoryPII, CategorySPII},
	"GST_NUMBER":              {CategoryPII, CategoryFTI},
	"NATIONAL_INSURANCE_UK":   {CategoryPII, CategorySPII},
	"NHS_NUMBER":              {CategoryPHI},
	"PASSPORT_UK":             {CategoryPII, CategorySPII},
	"SORT_CODE_UK":            {CategoryPFI, CategoryNPI},
	"COMPANY_NUMBER_UK":       {CategoryPII},
	"VAT_EU":                  {CategoryPII},
	"NATIONAL_ID_DE":          {CategoryPII, CategorySPII},
	"INSEE_FR":                {CategoryPII, CategorySPII},
	"DNI_NIE_ES":              {CategoryPII, CategorySPII},
	"CODICE_FISCALE_IT":       {CategoryPII, CategorySPII, CategoryFTI},
	"SIN_CA":                  {CategoryPII, CategorySPII},
	"PASSPORT_CA":             {CategoryPII, CategorySPII},
	"HEALTH_CARD_CA":          {CategoryPHI},
	"TAX_FILE_NUMBER_AU":      {CategoryPII, CategoryFTI},
	"MEDICARE_AU":             {CategoryPHI},
	"ABN_AU":                  {CategoryPII},
	"PASSPORT_AU":             {CategoryPII, CategorySPII},
	"MRN":                     {CategoryPHI},
	"NPI":                     {CategoryPHI},
	"DEA_NUMBER":              {CategoryPHI},
	"HICN":                    {CategoryPHI},
	"HEALTH_PLAN_BENEFICIARY": {CategoryPHI},
	"ICD10_CODE":              {CategoryPHI},
	"STUDENT_ID":              {CategoryPII, CategorySPII},
	"BIOMETRIC_IDENTIFIER":    {CategoryPII, CategorySPII},
	"FINANCIAL_ACCOUNT_PAIR":  {CategoryPFI, CategoryNPI},
	"SURVEY_RESPONSE":         {CategoryPII},
	"EMAIL_ADDRESS":           {CategoryPII},
	"PHONE_NUMBER":            {CategoryPII},
	"PERSON":                  {CategoryPII},
	"LOCATION":                {CategoryPII},
	"DATE_TIME":               {CategoryPII},
	"NRP":                     {CategoryPII, CategorySPII},
	"URL":                     {CategoryPII},
	"IP_ADDRESS":              {CategoryPII},
	"CRYPTO":                  {CategoryPFI},
	"MEDICAL_LICENSE":         {CategoryPHI},
	"US_SSN":                  {CategoryPII, CategorySPII},
	"US_BANK_NUMBER":          {CategoryPFI, CategoryNPI},
	"US_DRIVER_LICENSE":       {CategoryPII, CategorySPII},
	"US_ITIN":                 {CategoryPII, CategoryFTI},
	"US_PASSPORT":             {CategoryPII, CategorySPII},
	"UK_NHS":                  {CategoryPHI},
	"PASSWORD":                {CategoryCredentials},
	"API_KEY":                 {CategoryCredentials},
	"AWS_ACCESS_KEY":          {CategoryCredentials},
	"AZURE_KEY":               {CategoryCredentials},
}

// Categories returns the data categories for an entity type. Lookup is
// exact first, then case-insensitive. Unmapped types are plain PII.
func Categories(entityType string) []string {
	if cats, ok := entityCategories[entityType]; ok {
		return append([]string(nil), cats...)
	}
	upper := strings.ToUpper(entityType)
	if cats, ok := entityCategories[upper]; ok {
		return append([]string(nil), cats...)
	}
	return []string{CategoryPII}
}
