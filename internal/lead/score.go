package lead

import (
	"sort"
	"strings"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// ClassifyOnline counts online-keyword matches in the lead's text and
// maps the count to a three-level classification. The matched keywords
// are returned for explainability.
func ClassifyOnline(l model.Lead, rules Rules) (model.OnlineStatus, []string) {
	matched := matchKeywords(l.CombinedText(), rules.OnlineKeywords)

	switch {
	case len(matched) >= 2:
		return model.OnlineLikely, matched
	case len(matched) == 1:
		return model.OnlineMaybe, matched
	default:
		return model.OnlineInPerson, nil
	}
}

// matchKeywords reports which keywords appear in text, counting each
// stretch of text at most once. Longer keywords claim their spans
// first, so "online coaching" never also registers as "online coach".
func matchKeywords(text string, keywords []string) []string {
	byLength := make([]string, len(keywords))
	copy(byLength, keywords)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i]) > len(byLength[j])
	})

	type span struct{ start, end int }
	var claimed []span
	overlaps := func(start, end int) bool {
		for _, s := range claimed {
			if start < s.end && end > s.start {
				return true
			}
		}
		return false
	}

	hit := make(map[string]bool, len(keywords))
	for _, kw := range byLength {
		for from := 0; ; {
			i := strings.Index(text[from:], kw)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(kw)
			from = start + 1
			if overlaps(start, end) {
				continue
			}
			claimed = append(claimed, span{start, end})
			hit[kw] = true
			break
		}
	}

	// Report in rule order regardless of match order.
	var matched []string
	for _, kw := range keywords {
		if hit[kw] {
			matched = append(matched, kw)
		}
	}
	return matched
}

// ClassifySegment evaluates the segment rules in a fixed order and
// returns the first match. The order is a designed tie-break: nutrition
// beats tool mentions beats size, and general_coach is the default so
// every accepted lead gets exactly one label.
func ClassifySegment(l model.Lead, rules Rules) model.Segment {
	combined := l.CombinedText()

	if containsAny(combined, rules.NutritionKeywords) {
		return model.SegmentNutrition
	}
	if containsAny(combined, rules.ToolKeywords) {
		return model.SegmentTool
	}
	if size := l.Size(); size.Known && size.N >= rules.ScalingSizeMin {
		return model.SegmentScaling
	}
	if containsAny(combined, rules.PremiumKeywords) {
		return model.SegmentPremium
	}
	if containsAny(combined, rules.SpreadsheetKeywords) {
		return model.SegmentSpreadsheet
	}
	return model.SegmentGeneral
}

// Social-profile scoring signals. The follower sweet spot is the range
// where an account is established but still small enough to be the
// operator's own business.
const (
	socialSweetSpotMin = 5000
	socialSweetSpotMax = 30000
)

var socialUrgencyPhrases = []string{"1:1", "1-on-1", "apply", "dm me", "clients"}

// usIndicators flags bios/locations that suggest a US-based account:
// state abbreviations (space-prefixed to avoid substring noise), large
// city names, and timezone references.
var usIndicators = []string{
	" al", " ak", " az", " ar", " ca", " co", " ct", " de", " fl", " ga",
	" hi", " id", " il", " in", " ia", " ks", " ky", " la", " me", " md",
	" ma", " mi", " mn", " ms", " mo", " mt", " ne", " nv", " nh", " nj",
	" nm", " ny", " nc", " nd", " oh", " ok", " or", " pa", " ri", " sc",
	" sd", " tn", " tx", " ut", " vt", " va", " wa", " wv", " wi", " wy",
	"usa", "united states", "new york", "los angeles", "chicago", "houston",
	"phoenix", "philadelphia", "san antonio", "san diego", "dallas", "austin",
	"miami", "atlanta", "denver", "seattle", "boston", "nashville", "portland",
	"las vegas", "charlotte", "san francisco", "tampa", "orlando", "minneapolis",
	"est", "cst", "mst", "pst", "eastern", "central", "pacific",
}

// LikelyUS reports whether the combined bio + location text contains a
// US indicator.
func LikelyUS(bio, location string) bool {
	combined := strings.ToLower(bio) + " " + strings.ToLower(location)
	for _, ind := range usIndicators {
		if strings.Contains(combined, ind) {
			return true
		}
	}
	return false
}

// ScoreSocial computes the additive 0-10 lead score for a social
// profile. The score orders leads for outreach; it is not a probability.
func ScoreSocial(s model.SocialLead) int {
	bio := strings.ToLower(s.Bio)

	score := 0
	if s.IsBusinessAccount {
		score += 2
	}
	if s.Website != "" {
		score += 2
	}
	if strings.Contains(bio, "online") {
		score += 2
	}
	if containsAny(bio, socialUrgencyPhrases) {
		score += 2
	}
	if s.FollowerCount >= socialSweetSpotMin && s.FollowerCount <= socialSweetSpotMax {
		score++
	}
	if s.LikelyUS {
		score++
	}
	return score
}
