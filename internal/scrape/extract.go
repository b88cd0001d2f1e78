package scrape

import (
	"regexp"
	"sort"
	"strings"
)

// Findings holds everything the scraper learned about one website,
// shaped to slot straight into the lead record.
type Findings struct {
	OffersOnlineCoaching bool
	WebsiteDescription   string
	CoachingServices     string
	PricingVisible       bool
	PricingDetails       string
	ToolsDetected        string
	SocialLinks          string
}

// onlineSignals mark a site as offering remote coaching.
var onlineSignals = []string{
	"online coaching", "online training", "virtual training",
	"remote coaching", "online program", "online client",
	"work with me online", "train from anywhere",
	"online personal training", "virtual session",
	"zoom training", "zoom coaching",
}

// serviceKeywords maps a lowercase trigger phrase to the canonical
// service label recorded on the lead.
var serviceKeywords = map[string]string{
	"personal training":    "personal training",
	"group training":       "group training",
	"nutrition coaching":   "nutrition coaching",
	"meal plan":            "meal planning",
	"macro coaching":       "macro coaching",
	"online coaching":      "online coaching",
	"transformation":       "transformation programs",
	"weight loss":          "weight loss",
	"strength training":    "strength training",
	"1-on-1":               "1-on-1 coaching",
	"one-on-one":           "1-on-1 coaching",
	"small group":          "small group training",
	"bootcamp":             "bootcamp",
	"hiit":                 "HIIT",
	"yoga":                 "yoga",
	"pilates":              "pilates",
	"crossfit":             "crossfit",
	"body composition":     "body composition",
	"contest prep":         "contest prep",
	"athletic performance": "athletic performance",
	"sports massage":       "sports massage",
	"corporate wellness":   "corporate wellness",
	"posture":              "posture correction",
	"flexibility":          "flexibility training",
	"rehab":                "rehabilitation",
	"functional training":  "functional training",
}

// toolKeywords maps a lowercase trigger to the tool's display name.
// Detecting a scheduling or payment tool, but no coaching platform, is
// the strongest buying signal this pipeline has.
var toolKeywords = map[string]string{
	"trainerize":      "Trainerize",
	"truecoach":       "TrueCoach",
	"mindbody":        "MindBody",
	"ptminder":        "PTminder",
	"zen planner":     "Zen Planner",
	"wodify":          "Wodify",
	"pushpress":       "PushPress",
	"gymdesk":         "GymDesk",
	"calendly":        "Calendly",
	"acuity":          "Acuity Scheduling",
	"stripe":          "Stripe",
	"paypal":          "PayPal",
	"my pt hub":       "My PT Hub",
	"exercise.com":    "Exercise.com",
	"google calendar": "Google Calendar",
	"square":          "Square",
	"wix bookings":    "Wix Bookings",
	"vagaro":          "Vagaro",
	"glofox":          "Glofox",
}

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\d+[\d,.]*\s*/?\s*(?:month|mo|session|week|program)`),
	regexp.MustCompile(`\$\d+[\d,.]*`),
	regexp.MustCompile(`\d+\s*(?:dollars|usd)\s*/?\s*(?:month|mo|session)`),
}

var socialPatterns = []struct {
	platform string
	re       *regexp.Regexp
}{
	{"instagram", regexp.MustCompile(`(?:instagram\.com|instagr\.am)/([a-zA-Z0-9_.]+)`)},
	{"facebook", regexp.MustCompile(`facebook\.com/([a-zA-Z0-9_.]+)`)},
	{"tiktok", regexp.MustCompile(`tiktok\.com/@([a-zA-Z0-9_.]+)`)},
	{"youtube", regexp.MustCompile(`youtube\.com/(?:c/|channel/|@)([a-zA-Z0-9_.]+)`)},
	{"twitter", regexp.MustCompile(`(?:twitter\.com|x\.com)/([a-zA-Z0-9_.]+)`)},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Extract runs the keyword pass over page text and returns the
// findings. It is pure and deterministic; the AI pass layers on top.
func Extract(text string) Findings {
	lowered := strings.ToLower(text)
	clean := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))

	var f Findings

	for _, signal := range onlineSignals {
		if strings.Contains(lowered, signal) {
			f.OffersOnlineCoaching = true
			break
		}
	}

	f.CoachingServices = joinMatches(lowered, serviceKeywords)
	f.ToolsDetected = joinMatches(lowered, toolKeywords)

	var prices []string
	for _, re := range pricePatterns {
		matches := re.FindAllString(lowered, 3)
		prices = append(prices, matches...)
	}
	if len(prices) > 0 {
		f.PricingVisible = true
		if len(prices) > 5 {
			prices = prices[:5]
		}
		f.PricingDetails = strings.Join(prices, "; ")
	}

	var socials []string
	for _, sp := range socialPatterns {
		if m := sp.re.FindStringSubmatch(text); m != nil {
			socials = append(socials, sp.platform+":"+m[1])
		}
	}
	f.SocialLinks = strings.Join(socials, ", ")

	f.WebsiteDescription = firstSentences(clean, 3, 500)

	return f
}

// joinMatches collects the canonical labels whose triggers appear in
// the text, sorted for stable output.
func joinMatches(lowered string, table map[string]string) string {
	seen := map[string]struct{}{}
	for trigger, label := range table {
		if strings.Contains(lowered, trigger) {
			seen[label] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ""
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return strings.Join(labels, ", ")
}

// firstSentences builds a fallback description from the first few
// substantial sentences of the page text.
func firstSentences(clean string, count, maxLen int) string {
	var picked []string
	for _, s := range strings.Split(clean, ".") {
		s = strings.TrimSpace(s)
		if len(s) > 30 {
			picked = append(picked, s)
			if len(picked) == count {
				break
			}
		}
	}
	desc := strings.Join(picked, ". ")
	if len(desc) > maxLen {
		desc = desc[:maxLen]
	}
	return desc
}
