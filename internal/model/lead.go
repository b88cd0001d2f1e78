package model

import (
	"strconv"
	"strings"
	"time"
)

// OnlineStatus classifies how likely a lead runs an online coaching
// business rather than an in-person one.
type OnlineStatus string

const (
	OnlineLikely   OnlineStatus = "likely_online"
	OnlineMaybe    OnlineStatus = "maybe_online"
	OnlineInPerson OnlineStatus = "likely_inperson"
)

// Segment is the messaging segment used to pick an outreach variant.
type Segment string

const (
	SegmentNutrition   Segment = "nutrition_coach"
	SegmentTool        Segment = "tool_frustrated"
	SegmentScaling     Segment = "scaling_coach"
	SegmentPremium     Segment = "premium_coach"
	SegmentSpreadsheet Segment = "spreadsheet_coach"
	SegmentGeneral     Segment = "general_coach"
)

// OutreachStatus tracks a lead's position in the outreach funnel.
type OutreachStatus string

const (
	OutreachNotContacted OutreachStatus = "not_contacted"
	OutreachPushed       OutreachStatus = "pushed_to_instantly"
)

// Lead is the canonical email-identity lead record. Identity fields
// (Email) are written once by normalization and never overwritten by
// later pipeline stages.
type Lead struct {
	ID    int64  `json:"id,omitempty"`
	Email string `json:"email"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
	LinkedIn    string `json:"linkedin"`
	JobTitle    string `json:"job_title"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CompanySize string `json:"company_size"`
	Industry    string `json:"industry"`

	Headline           string `json:"headline,omitempty"`
	CompanyDescription string `json:"company_description,omitempty"`
	Keywords           string `json:"keywords,omitempty"`

	Platform string `json:"platform"`

	// Derived by the scoring stage.
	OnlineStatus   OnlineStatus `json:"online_status,omitempty"`
	Segment        Segment      `json:"segment,omitempty"`
	MatchedSignals []string     `json:"matched_signals,omitempty"`

	// Written by the website-scrape stage.
	OffersOnlineCoaching bool       `json:"offers_online_coaching,omitempty"`
	CoachingServices     string     `json:"coaching_services,omitempty"`
	PricingVisible       bool       `json:"pricing_visible,omitempty"`
	PricingDetails       string     `json:"pricing_details,omitempty"`
	ToolsDetected        string     `json:"tools_detected,omitempty"`
	WebsiteDescription   string     `json:"website_description,omitempty"`
	SocialLinks          string     `json:"social_links,omitempty"`
	ScrapedAt            *time.Time `json:"scraped_at,omitempty"`

	// Written by the AI-enrichment stage.
	OpeningLine      string     `json:"ai_opening_line,omitempty"`
	PainPoint        string     `json:"ai_pain_point,omitempty"`
	EstimatedClients string     `json:"ai_estimated_clients,omitempty"`
	ConfidenceScore  int        `json:"ai_confidence_score,omitempty"`
	SkipReason       string     `json:"ai_skip_reason,omitempty"`
	EnrichedAt       *time.Time `json:"enriched_at,omitempty"`

	OutreachStatus OutreachStatus `json:"outreach_status,omitempty"`
}

// DedupKey returns the normalized identity key used for deduplication.
func (l Lead) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}

// Size parses CompanySize. An unparsable size is reported as unknown,
// never as zero, so size-dependent rules can distinguish the two.
func (l Lead) Size() SizeValue {
	return ParseSize(l.CompanySize)
}

// CombinedText concatenates the free-text fields used by keyword rules,
// lower-cased. Field order matches the qualification contract:
// description, keywords, company name, headline, job title.
func (l Lead) CombinedText() string {
	return strings.ToLower(strings.Join([]string{
		l.CompanyDescription, l.Keywords, l.CompanyName, l.Headline, l.JobTitle,
	}, " "))
}

// CompanyText concatenates only the company-facing text fields:
// description, keywords, company name, headline. The deny-list runs
// over this; the job title stays out of it so a disqualifying service
// named in someone's title does not reject a business that is in scope.
func (l Lead) CompanyText() string {
	return strings.ToLower(strings.Join([]string{
		l.CompanyDescription, l.Keywords, l.CompanyName, l.Headline,
	}, " "))
}

// SizeValue is the result of parsing an organization size field.
// Known is false when the raw value was empty or not an integer.
type SizeValue struct {
	N     int
	Known bool
}

// ParseSize parses an organization size string defensively.
func ParseSize(raw string) SizeValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SizeValue{}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return SizeValue{}
	}
	return SizeValue{N: n, Known: true}
}

// ValidEmail reports whether email passes the basic syntax check used
// for identity: exactly one '@', at least one '.' after it, and no
// whitespace. The literal strings "null" and "None" count as absent.
func ValidEmail(email string) bool {
	e := strings.TrimSpace(email)
	if e == "" || strings.EqualFold(e, "null") || strings.EqualFold(e, "none") {
		return false
	}
	if strings.ContainsAny(e, " \t\n\r") {
		return false
	}
	at := strings.Index(e, "@")
	if at <= 0 || at != strings.LastIndex(e, "@") || at == len(e)-1 {
		return false
	}
	domain := e[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
