package model

import (
	"fmt"
	"strings"
)

// Severity represents the compliance risk of a detected entity.
//
// Design decision: We use iota-based constants rather than string constants
// so severities can be compared and sorted directly. The String() method
// provides human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates data that is rarely sensitive on its own.
	// Examples: dates, ages.
	SeverityInfo Severity = iota

	// SeverityLow indicates data that only identifies a person in combination.
	// Examples: organization names, locations.
	SeverityLow

	// SeverityMedium indicates direct identifiers with limited misuse potential.
	// Examples: person names, usernames.
	SeverityMedium

	// SeverityHigh indicates contact and personal data covered by privacy law.
	// Examples: phone numbers, email addresses, postal addresses, dates of birth.
	SeverityHigh

	// SeverityCritical indicates data enabling fraud or violating PCI/HIPAA.
	// Examples: social security numbers, card numbers, health information.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a severity name (case-insensitive) to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, nil
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// CategoryInfo contains metadata about an entity category including severity,
// impact description, and remediation recommendation.
type CategoryInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// categoryInfoMapping maps normalized entity categories to their metadata.
// Keys are produced by NormalizeCategory, so "Credit Card", "credit-card" and
// "CREDIT_CARD" share one entry.
var categoryInfoMapping = map[string]CategoryInfo{
	// CRITICAL
	"ssn": {
		Severity:       SeverityCritical,
		Impact:         "A social security number enables identity theft and account takeover.",
		Recommendation: "Redact before storage and restrict access to the original recording.",
	},
	"credit_card": {
		Severity:       SeverityCritical,
		Impact:         "Card numbers in recordings put the call center in PCI DSS scope.",
		Recommendation: "Pause recording during payment capture and purge the audio segment.",
	},
	"credit_card_number": {
		Severity:       SeverityCritical,
		Impact:         "Card numbers in recordings put the call center in PCI DSS scope.",
		Recommendation: "Pause recording during payment capture and purge the audio segment.",
	},
	"cvv": {
		Severity:       SeverityCritical,
		Impact:         "Card verification codes must never be stored after authorization.",
		Recommendation: "Delete the recording segment and review the payment script.",
	},
	"bank_account": {
		Severity:       SeverityCritical,
		Impact:         "Bank account numbers enable direct debit fraud.",
		Recommendation: "Redact the transcript and limit retention of the audio.",
	},
	"passport_number": {
		Severity:       SeverityCritical,
		Impact:         "Passport numbers are government identifiers usable for identity fraud.",
		Recommendation: "Redact before storage and verify the legal basis for collection.",
	},
	"drivers_license": {
		Severity:       SeverityCritical,
		Impact:         "Driver's license numbers are government identifiers usable for identity fraud.",
		Recommendation: "Redact before storage and verify the legal basis for collection.",
	},
	"password": {
		Severity:       SeverityCritical,
		Impact:         "A spoken credential gives anyone with the recording account access.",
		Recommendation: "Force a credential reset and train agents never to ask for passwords.",
	},
	"health": {
		Severity:       SeverityCritical,
		Impact:         "Health information is protected health information under HIPAA.",
		Recommendation: "Store the recording in a HIPAA-compliant system or purge it.",
	},
	"medical_condition": {
		Severity:       SeverityCritical,
		Impact:         "Medical conditions are special-category data under GDPR and PHI under HIPAA.",
		Recommendation: "Store the recording in a HIPAA-compliant system or purge it.",
	},

	// HIGH
	"phone": {
		Severity:       SeverityHigh,
		Impact:         "Phone numbers directly identify and allow contacting the customer.",
		Recommendation: "Redact in shared transcripts and mask in analytics exports.",
	},
	"phone_number": {
		Severity:       SeverityHigh,
		Impact:         "Phone numbers directly identify and allow contacting the customer.",
		Recommendation: "Redact in shared transcripts and mask in analytics exports.",
	},
	"email": {
		Severity:       SeverityHigh,
		Impact:         "Email addresses identify the customer across services.",
		Recommendation: "Redact in shared transcripts and mask in analytics exports.",
	},
	"email_address": {
		Severity:       SeverityHigh,
		Impact:         "Email addresses identify the customer across services.",
		Recommendation: "Redact in shared transcripts and mask in analytics exports.",
	},
	"address": {
		Severity:       SeverityHigh,
		Impact:         "Postal addresses reveal where the customer lives.",
		Recommendation: "Redact in shared transcripts.",
	},
	"date_of_birth": {
		Severity:       SeverityHigh,
		Impact:         "Date of birth is a common knowledge-based authentication factor.",
		Recommendation: "Redact and avoid using date of birth for caller verification.",
	},
	"account_number": {
		Severity:       SeverityHigh,
		Impact:         "Customer account numbers can be used in social engineering attacks.",
		Recommendation: "Redact in shared transcripts.",
	},
	"ip_address": {
		Severity:       SeverityHigh,
		Impact:         "IP addresses are personal data under GDPR.",
		Recommendation: "Redact in shared transcripts.",
	},

	// MEDIUM
	"name": {
		Severity:       SeverityMedium,
		Impact:         "Names identify the speaker or a third party.",
		Recommendation: "Redact when sharing transcripts outside the support team.",
	},
	"person": {
		Severity:       SeverityMedium,
		Impact:         "Names identify the speaker or a third party.",
		Recommendation: "Redact when sharing transcripts outside the support team.",
	},
	"username": {
		Severity:       SeverityMedium,
		Impact:         "Usernames link the call to an online account.",
		Recommendation: "Redact when sharing transcripts outside the support team.",
	},

	// LOW
	"location": {
		Severity:       SeverityLow,
		Impact:         "Locations narrow down the customer's identity in combination with other data.",
		Recommendation: "Review whether the location is needed for the record.",
	},
	"organization": {
		Severity:       SeverityLow,
		Impact:         "Employer or organization names narrow down the customer's identity.",
		Recommendation: "Review whether the organization is needed for the record.",
	},

	// INFO
	"date": {
		Severity:       SeverityInfo,
		Impact:         "Dates are rarely sensitive on their own.",
		Recommendation: "No action needed unless combined with other identifiers.",
	},
	"age": {
		Severity:       SeverityInfo,
		Impact:         "Ages are rarely sensitive on their own.",
		Recommendation: "No action needed unless combined with other identifiers.",
	},
}

// unknownCategoryInfo is returned for categories missing from the mapping.
// An unknown label from the detection service is still sensitive by
// definition, so it is not ranked below MEDIUM.
var unknownCategoryInfo = CategoryInfo{
	Severity:       SeverityMedium,
	Impact:         "Unknown entity category. Review manually.",
	Recommendation: "Investigate the entity and assess risk.",
}

// NormalizeCategory lower-cases a category label and joins words with
// underscores.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(c)
}

// GetSeverity returns the severity level for an entity category.
func GetSeverity(category string) Severity {
	return GetCategoryInfo(category).Severity
}

// GetCategoryInfo returns the full information for an entity category.
// Returns a MEDIUM "review manually" entry if the category is unknown.
func GetCategoryInfo(category string) CategoryInfo {
	if info, ok := categoryInfoMapping[NormalizeCategory(category)]; ok {
		return info
	}
	return unknownCategoryInfo
}

// SeverityOverrides changes the severity of selected categories.
// Keys are category labels in any spelling accepted by NormalizeCategory.
type SeverityOverrides map[string]Severity

// Lookup returns the category information with any override applied.
func (o SeverityOverrides) Lookup(category string) CategoryInfo {
	info := GetCategoryInfo(category)
	want := NormalizeCategory(category)
	for k, sev := range o {
		if NormalizeCategory(k) == want {
			info.Severity = sev
			break
		}
	}
	return info
}
