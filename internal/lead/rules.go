package lead

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules is the single shared keyword configuration consumed by the
// qualifier and scorer. The tables were previously duplicated across
// batch scripts; every component now receives this struct explicitly.
type Rules struct {
	// Qualification.
	RejectKeywords        []string `yaml:"reject_keywords"`
	IndustryAllow         []string `yaml:"industry_allow"`
	GoodTitles            []string `yaml:"good_titles"`
	PositiveSignals       []string `yaml:"positive_signals"`
	MaxCompanySize        int      `yaml:"max_company_size"`
	TargetCountry         string   `yaml:"target_country"`
	RequirePositiveSignal bool     `yaml:"require_positive_signal"`

	// Online classification.
	OnlineKeywords []string `yaml:"online_keywords"`

	// Segment classification.
	NutritionKeywords   []string `yaml:"nutrition_keywords"`
	ToolKeywords        []string `yaml:"tool_keywords"`
	ScalingSizeMin      int      `yaml:"scaling_size_min"`
	PremiumKeywords     []string `yaml:"premium_keywords"`
	SpreadsheetKeywords []string `yaml:"spreadsheet_keywords"`
}

// StandardRules is the main pipeline configuration: positive signals
// are scored but not required for qualification.
func StandardRules() Rules {
	r := baseRules()
	r.RequirePositiveSignal = false
	return r
}

// StrictRules is the audit configuration: a lead must match at least
// one positive signal or it is rejected with no_signal.
func StrictRules() Rules {
	r := baseRules()
	r.RequirePositiveSignal = true
	return r
}

func baseRules() Rules {
	return Rules{
		RejectKeywords: []string{
			"day spa", "eating disorder", "swim club", "swimming", "gymnastics",
			"martial arts", "dance studio", "chiropractic", "chiropractor",
			"physical therapy", "physiotherapy", "massage therapy", "salon",
			"beauty", "barbershop", "veterinary", "dental", "dentist",
			"real estate", "insurance", "accounting", "law firm", "attorney",
			"restaurant", "cafe", "coffee shop", "tattoo", "piercing",
			"reiki", "acupuncture", "mental health care", "psychiatr",
			"counseling & mental health",
		},
		IndustryAllow: []string{"fitness", "health", "wellness"},
		GoodTitles: []string{
			"personal trainer", "fitness coach", "coach", "trainer",
			"owner", "founder", "nutrition coach", "health coach",
			"strength coach", "conditioning", "wellness coach",
		},
		PositiveSignals: []string{
			"personal trainer", "personal training", "fitness coach", "fitness coaching",
			"online coach", "online coaching", "nutrition coach", "nutrition coaching",
			"health coach", "health coaching", "wellness coach", "wellness coaching",
			"strength coach", "strength training", "transformation coach",
			"macro coach", "weight loss coach", "body transformation",
			"fitness studio", "fitness center", "fitness gym",
			"crossfit", "bootcamp", "boot camp",
			"certified personal trainer", "cpt", "nasm", "ace certified", "issa",
			"group fitness", "fitness instructor", "fitness professional",
			"training studio", "private gym", "gym owner",
			"conditioning coach", "athletic trainer", "sports performance",
			"yoga instructor", "pilates instructor",
			"fit body", "fitlife", "fitfam", "fitness",
			"trainer", "coaching clients", "1-on-1 training", "one on one training",
		},
		MaxCompanySize: 100,
		TargetCountry:  "United States",
		OnlineKeywords: []string{
			"online coach", "online training", "online personal training",
			"virtual", "remote training", "online fitness", "online program",
			"transformation coach", "macro coach", "nutrition coach",
			"online coaching", "1:1 coaching", "one on one coaching",
			"personalized coaching", "custom program", "individualized",
		},
		NutritionKeywords:   []string{"nutrition", "macro", "meal plan"},
		ToolKeywords:        []string{"trainerize", "truecoach", "ptminder", "mindbody"},
		ScalingSizeMin:      20,
		PremiumKeywords:     []string{"premium", "luxury", "elite", "high end", "vip"},
		SpreadsheetKeywords: []string{"spreadsheet", "google sheet", "excel"},
	}
}

// LoadRules reads a YAML rules file and overlays it on the standard
// defaults. Only non-zero fields in the file override defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "rules: read %s", path)
	}

	r := StandardRules()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, eris.Wrapf(err, "rules: parse %s", path)
	}
	if r.MaxCompanySize <= 0 {
		r.MaxCompanySize = 100
	}
	return r, nil
}
