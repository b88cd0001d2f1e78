package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// DMSystemPrompt is the style contract for Instagram DM openers sent to
// engaged social leads. The draft starts a conversation; it never
// pitches.
const DMSystemPrompt = `You write personalized Instagram DMs for FitCore outreach to fitness coaches.

CONTEXT: We build custom client management dashboards for fitness coaches. The DM starts a conversation. It is NOT a pitch; you are warming them up.

HARD RULES:
1. Under 3 sentences total. Coaches get 50+ DMs a day and skip long messages.
2. Make it about THEM, not you. Reference their coaching, their content, their niche.
3. End with a casual question, not a pitch.
4. No links. Instagram suppresses DMs with links.
5. Must feel hand-typed by a real person, not templated.
6. Use their first name naturally.
7. No emojis. No exclamation marks. Lowercase-feeling energy.
8. NEVER mention "dashboard", "FitCore", "product", "tool", or "software". This is a conversation starter, not a sales pitch.

BANNED PHRASES: "I noticed", "I saw", "I came across", "I checked out", "Love your", "Love how", "Love that", "Impressive", "Amazing", "Incredible", "Great to see", "Quick question", "Reaching out because", and any mention of our product or what we do.

VARY between these styles, picking one per lead based on the data available:

Style A, curiosity opener: reference something specific about their coaching, then ask how they handle client management.
Style B, observation opener: comment on their niche or a post topic, then ask about their systems.
Style C, pain-based opener: reference a scaling signal (growing, busy, many clients), then empathize with the admin burden.
Style D, compliment plus question: a genuine note about their results or approach, then ask about the client experience.

OUTPUT: Return ONLY the DM text. No quotes, no JSON, no explanation.`

// BuildDMPrompt assembles the user prompt for one engaged social lead.
func BuildDMPrompt(sl model.SocialLead) string {
	parts := []string{
		"First name: " + sl.FirstName(),
		"Instagram: @" + sl.DedupKey(),
	}
	if strings.TrimSpace(sl.Bio) != "" {
		parts = append(parts, "Bio: "+sl.Bio)
	}
	if sl.FollowerCount > 0 {
		parts = append(parts, fmt.Sprintf("Followers: %d", sl.FollowerCount))
	}
	if sl.Website != "" {
		parts = append(parts, "Website: "+sl.Website)
	}
	if sl.BusinessCategory != "" {
		parts = append(parts, "Business category: "+sl.BusinessCategory)
	}
	parts = append(parts, fmt.Sprintf("Business account: %t", sl.IsBusinessAccount))
	parts = append(parts, fmt.Sprintf("Lead score: %d/10", sl.Score))

	var b strings.Builder
	b.WriteString("Write a personalized Instagram DM for this fitness coach lead.\n\nLEAD DATA:\n")
	for _, p := range parts {
		b.WriteString("- " + p + "\n")
	}
	b.WriteString("\nPick the style that works best given the data. If the bio is rich, use their specific niche or services. If it is sparse, keep it general but still personal.\n\nRemember: just the DM text, nothing else.")
	return b.String()
}

// dmBannedPhrases mark a draft as templated wherever they appear, not
// only at the start.
var dmBannedPhrases = []string{
	"i noticed", "i saw", "i came across", "i checked out",
	"love your", "love how", "love that",
	"impressive", "amazing", "incredible", "great to see",
	"quick question", "reaching out",
}

// CheckDMViolation returns the banned phrase the draft contains, or ""
// when the draft is clean. Matching is case-insensitive.
func CheckDMViolation(text string) string {
	lowered := strings.ToLower(text)
	for _, p := range dmBannedPhrases {
		if strings.Contains(lowered, p) {
			return p
		}
	}
	return ""
}

// DraftDM generates a DM opener for one engaged social lead, following
// the same generate, validate, retry-once machine as email enrichment.
// A draft that violates the style contract twice is an error; the lead
// keeps its empty draft and a human writes that one.
func (e *Enricher) DraftDM(ctx context.Context, sl model.SocialLead) (string, error) {
	prompt := BuildDMPrompt(sl)

	draft, err := e.generateDM(ctx, prompt)
	if err != nil {
		return "", err
	}
	violation := CheckDMViolation(draft)
	if violation == "" {
		return draft, nil
	}

	zap.L().Debug("enrich: dm style violation, regenerating",
		zap.String("handle", sl.Handle),
		zap.String("violation", violation),
	)
	retry, retryErr := e.generateDM(ctx, prompt)
	if retryErr == nil && CheckDMViolation(retry) == "" {
		return retry, nil
	}
	return "", eris.Errorf("enrich: dm draft for %s violates style (%s)", sl.Handle, violation)
}

func (e *Enricher) generateDM(ctx context.Context, prompt string) (string, error) {
	raw, err := e.llm.ChatText(ctx, DMSystemPrompt, prompt)
	if err != nil {
		return "", eris.Wrap(err, "enrich: generate dm")
	}

	draft := strings.TrimSpace(raw)
	draft = strings.Trim(draft, `"`)
	draft = Sanitize(draft)
	if draft == "" {
		return "", eris.New("enrich: empty dm draft")
	}
	return truncate(draft, 500), nil
}
