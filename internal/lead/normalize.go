package lead

import (
	"fmt"
	"strings"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// Normalize maps a raw scraper record with unpredictable key casing and
// nullability into a canonical Lead. It never fails: fields that cannot
// be parsed degrade to their trimmed string form, and missing values
// become empty strings.
func Normalize(raw map[string]any, platform string) model.Lead {
	get := newFieldReader(raw)

	return model.Lead{
		Email:              strings.ToLower(get("email")),
		FirstName:          get("first_name", "firstName"),
		LastName:           get("last_name", "lastName"),
		CompanyName:        get("company_name", "companyName", "organization_name"),
		Website:            get("company_website", "website", "companyWebsite"),
		LinkedIn:           get("linkedin", "linkedin_url", "linkedinUrl"),
		JobTitle:           get("job_title", "jobTitle", "title"),
		City:               get("city"),
		State:              get("state"),
		Country:            get("country"),
		CompanySize:        get("company_size", "companySize", "size"),
		Industry:           get("industry", "company_industry"),
		Headline:           get("headline"),
		CompanyDescription: get("company_description", "companyDescription", "description"),
		Keywords:           get("keywords"),
		Platform:           platform,
		OutreachStatus:     model.OutreachNotContacted,
	}
}

// newFieldReader builds a lookup over raw with case-insensitive keys.
// The returned func tries each alias in order and returns the first
// non-empty cleaned value.
func newFieldReader(raw map[string]any) func(aliases ...string) string {
	lowered := make(map[string]any, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}

	return func(aliases ...string) string {
		for _, a := range aliases {
			if v, ok := lowered[strings.ToLower(a)]; ok {
				if s := cleanValue(v); s != "" {
					return s
				}
			}
		}
		return ""
	}
}

// cleanValue renders a raw field value as a trimmed string. nil and the
// literal texts "null"/"None" map to empty; numbers render without an
// exponent so integer sizes survive JSON decoding as float64.
func cleanValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return ""
		}
		return s
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
