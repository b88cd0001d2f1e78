package model

import "fmt"

// Reason identifies why a lead was excluded from the pipeline.
type Reason string

const (
	ReasonNoEmail           Reason = "no_email"
	ReasonCompanyTooLarge   Reason = "company_too_large"
	ReasonWrongIndustry     Reason = "wrong_industry"
	ReasonDisallowedKeyword Reason = "disallowed_keyword"
	ReasonWrongCountry      Reason = "wrong_country"
	ReasonNoSignal          Reason = "no_signal"

	ReasonDuplicateExisting Reason = "duplicate_existing"
	ReasonDuplicateInBatch  Reason = "duplicate_in_batch"
)

// Rejection carries a typed reason plus the matched detail (keyword,
// industry, country) for the audit trail. Discarded leads are never
// dropped silently; every one carries a Rejection.
type Rejection struct {
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (r Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s:%s", r.Reason, r.Detail)
}
