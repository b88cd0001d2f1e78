package enrich

import (
	"fmt"
	"strings"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// DataTier classifies how much descriptive data a lead carries, which
// drives the prompt strategy: rich data gets an instruction to cite a
// specific detail, sparse data gets an instruction to avoid fabricated
// specificity.
type DataTier string

const (
	TierRich     DataTier = "RICH"
	TierModerate DataTier = "MODERATE"
	TierSparse   DataTier = "SPARSE"
)

// optionalFields are the scrape-derived fields counted for tier
// classification.
func optionalFields(l model.Lead) []string {
	return []string{l.CoachingServices, l.ToolsDetected, l.PricingDetails, l.WebsiteDescription}
}

// ClassifyTier counts populated optional fields: 2+ is RICH, exactly 1
// is MODERATE, 0 is SPARSE.
func ClassifyTier(l model.Lead) DataTier {
	populated := 0
	for _, f := range optionalFields(l) {
		if strings.TrimSpace(f) != "" {
			populated++
		}
	}
	switch {
	case populated >= 2:
		return TierRich
	case populated == 1:
		return TierModerate
	default:
		return TierSparse
	}
}

// SystemPrompt is the style contract sent with every enrichment call.
const SystemPrompt = `You write cold email opening lines for FitCore, a company building custom client dashboards for fitness coaches.

Your goal: write an opening line that makes the coach think "this person actually looked at my business."

HARD RULES:
1. Opening line: ONE conversational sentence, 8-20 words. Must sound like a real person typed it.
2. Pain point: ONE different sentence about a specific operational problem they likely have, max 20 words, a DIFFERENT angle than the opening line.
3. ABSOLUTELY BANNED openers: "Love", "Love your", "Love how", "Love that", "I checked", "I looked at", "I saw", "I noticed", "I came across", "I see", "Impressive", "Great to see", "Congrats".
   Also banned: "must keep you busy", "that's no small feat", "sounds like", "curious how", "how do you currently", ending with "right?" or "no?".
   Never use em-dashes. Use commas, periods, or "..." instead.
   Never paste program names in ALL CAPS or exactly as they appear on the website. Paraphrase naturally.
   No flattery or compliments about their business. Statements are stronger than questions.

TONE: casual colleague, not copywriter. Short, no hype.

WHAT TO FOCUS ON, in priority order: a specific program or service they offer, a specific tool and its limitation, their niche described casually, their business model. If you truly have nothing specific, make an honest observation about their type of business.

CONFIDENCE SCORING, BE STRICT. Default to 5, go up only with strong evidence:
- 9-10 = perfect fit: solo or small ONLINE coach, 20-50 clients, no CRM. Very few leads deserve this.
- 7-8 = good fit: small team (1-5), online coaching or strong online signals, fitness-specific.
- 5-6 = unclear, not enough data. This is your default when data is ambiguous.
- 3-4 = probably not: big gym or studio, wrong niche, in-person only with large team.
- 1-2 = definitely not: MLM, not fitness, corporate wellness, spa, medical practice.
HARD CAPS: team 6-10 = 5 max. Team 11-19 = 4 max. Team 20+ = 3 max. Life/career/business coach = not fitness, score 1-3. If the only data is company name + team size, score 5 max.

Respond with valid JSON only.`

// BuildPrompt assembles the user prompt for one lead, including the
// tier note and any size-based score-cap reminder.
func BuildPrompt(l model.Lead) (string, DataTier) {
	tier := ClassifyTier(l)

	var parts []string
	if l.FirstName != "" {
		parts = append(parts, "First name: "+l.FirstName)
	}
	company := l.CompanyName
	if company == "" {
		company = "unknown"
	}
	parts = append(parts, "Company: "+company)
	parts = append(parts, "Title: "+l.JobTitle)
	parts = append(parts, fmt.Sprintf("Location: %s, %s", l.City, l.State))
	parts = append(parts, "Team size: "+l.CompanySize)

	if cap := scoreCapNote(l.Size()); cap != "" {
		parts = append(parts, cap)
	}

	website := l.Website
	if website == "" {
		website = "none"
	}
	parts = append(parts, "Website: "+website)
	parts = append(parts, "Segment: "+string(l.Segment))
	parts = append(parts, "Online status: "+string(l.OnlineStatus))
	parts = append(parts, fmt.Sprintf("Online coaching: %t", l.OffersOnlineCoaching))

	for _, f := range []struct{ label, val string }{
		{"Services", l.CoachingServices},
		{"Pricing", l.PricingDetails},
		{"Tools on site", l.ToolsDetected},
		{"Site info", l.WebsiteDescription},
		{"Social", l.SocialLinks},
	} {
		if strings.TrimSpace(f.val) != "" {
			parts = append(parts, f.label+": "+f.val)
		}
	}

	var b strings.Builder
	b.WriteString("Write a cold email opening line and pain point for this lead.\n\nLEAD DATA:\n")
	for _, p := range parts {
		b.WriteString("- " + p + "\n")
	}
	b.WriteString("\nDATA QUALITY: " + string(tier) + "\n")
	b.WriteString(tierNote(tier))
	b.WriteString(`
Return JSON:
{
    "opening_line": "ONE sentence, 8-18 words, specific detail, varied style",
    "pain_point": "ONE blunt sentence about what they're doing manually",
    "estimated_clients": "Best guess: '10-20', '20-40', '40-60', '60+'",
    "confidence_score": "1-10, be strict (see scoring rules)",
    "skip_reason": "If confidence < 4, explain why. Otherwise empty string."
}`)
	return b.String(), tier
}

func scoreCapNote(size model.SizeValue) string {
	if !size.Known {
		return ""
	}
	switch {
	case size.N >= 20:
		return "*** SCORE CAP: Team 20+ = score 3 MAX ***"
	case size.N >= 11:
		return "*** SCORE CAP: Team 11-19 = score 4 MAX ***"
	case size.N >= 6:
		return "*** SCORE CAP: Team 6-10 = score 5 MAX ***"
	default:
		return ""
	}
}

func tierNote(tier DataTier) string {
	switch tier {
	case TierSparse:
		return "\nDATA IS SPARSE: focus on the JOB TITLE and COMPANY NAME, they often reveal the niche. Do NOT default to generic 'managing things through DMs and spreadsheets'. Find the ONE interesting thing about this lead and highlight it.\n"
	case TierModerate:
		return "\nDATA IS MODERATE: build the line around the ONE specific detail you have (a service, a tool, or something from their site description).\n"
	default:
		return "\nDATA IS RICH: cite one specific detail from the fields above, paraphrased naturally.\n"
	}
}
