package lead

import (
	"strings"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// Qualify applies the rejection rules to a canonical lead. It is a pure
// function: the returned Rejection is nil when the lead is accepted.
// Rules are checked in a fixed priority order and the first match wins:
//
//  1. no_email
//  2. company_too_large (parseable sizes only)
//  3. wrong_industry (unless the job title is on the good-titles list)
//  4. disallowed_keyword
//  5. wrong_country
//  6. no_signal (only when rules.RequirePositiveSignal is set)
func Qualify(l model.Lead, rules Rules) *model.Rejection {
	if !model.ValidEmail(l.Email) {
		return &model.Rejection{Reason: model.ReasonNoEmail}
	}

	if size := l.Size(); size.Known && size.N > rules.MaxCompanySize {
		return &model.Rejection{Reason: model.ReasonCompanyTooLarge, Detail: l.CompanySize}
	}

	industry := strings.ToLower(strings.TrimSpace(l.Industry))
	if industry != "" && !containsAny(industry, rules.IndustryAllow) {
		title := strings.ToLower(l.JobTitle)
		if !containsAny(title, rules.GoodTitles) {
			return &model.Rejection{Reason: model.ReasonWrongIndustry, Detail: industry}
		}
	}

	// The deny-list reads the company fields only, never the job title.
	companyText := l.CompanyText()
	for _, kw := range rules.RejectKeywords {
		if strings.Contains(companyText, kw) {
			return &model.Rejection{Reason: model.ReasonDisallowedKeyword, Detail: kw}
		}
	}

	country := strings.TrimSpace(l.Country)
	if country != "" && country != rules.TargetCountry {
		return &model.Rejection{Reason: model.ReasonWrongCountry, Detail: country}
	}

	if rules.RequirePositiveSignal {
		if matched := MatchSignals(l, rules); len(matched) == 0 {
			return &model.Rejection{Reason: model.ReasonNoSignal}
		}
	}

	return nil
}

// MatchSignals returns the positive-signal substrings present in the
// lead's text fields, in rule order, for the audit trail.
func MatchSignals(l model.Lead, rules Rules) []string {
	combined := l.CombinedText()
	var matched []string
	for _, signal := range rules.PositiveSignals {
		if strings.Contains(combined, signal) {
			matched = append(matched, signal)
		}
	}
	return matched
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
