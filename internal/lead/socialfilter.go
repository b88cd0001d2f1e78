package lead

import (
	"strings"
	"time"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// Social-profile rejection reasons, reported per bucket.
const (
	SocialRejectPrivate          = "private"
	SocialRejectTooFewFollowers  = "too_few_followers"
	SocialRejectTooManyFollowers = "too_many_followers"
	SocialRejectNoBio            = "no_bio"
	SocialRejectNegativeKeywords = "negative_keywords"
	SocialRejectNoCoachingSignal = "no_coaching_signals"
	SocialRejectInactive         = "inactive"
)

// positiveBioKeywords indicate a coaching business in a profile bio.
var positiveBioKeywords = []string{
	"coach", "coaching", "trainer", "training", "pt ",
	"personal trainer", "online coach", "fitness coach",
	"nutrition", "transform", "1:1", "1-on-1", "one on one",
	"apply", "dm me", "link in bio", "programs", "clients",
	"accountability", "macro", "meal plan", "workout plan",
	"fat loss", "weight loss", "body transformation",
	"certified", "nasm", "ace ", "issa", "nsca",
}

// negativeBioKeywords disqualify a profile outright.
var negativeBioKeywords = []string{
	"gym owner", "gym chain", "franchise",
	"business coach", "life coach", "mindset coach",
	"real estate", "crypto", "forex", "mlm",
	"photographer", "model", "influencer",
	"parody", "fan page", "meme",
}

// coachingCategories are business-category values that count as a
// positive signal even when the bio lacks one.
var coachingCategories = []string{"trainer", "coach", "fitness", "gym", "health"}

// RawProfile is the subset of a scraped profile used for filtering.
type RawProfile struct {
	Username          string
	FullName          string
	Biography         string
	ExternalURL       string
	BusinessCategory  string
	Location          string
	Followers         int
	Follows           int
	Posts             int
	Private           bool
	IsBusinessAccount bool
	Verified          bool
}

// ParseProfile reads the profile-scraper item shape defensively; a
// missing private flag reads as private so malformed items never pass.
func ParseProfile(raw map[string]any) RawProfile {
	private := true
	if v, ok := raw["private"].(bool); ok {
		private = v
	}
	return RawProfile{
		Username:          asRawString(raw["username"]),
		FullName:          asRawString(raw["fullName"]),
		Biography:         asRawString(raw["biography"]),
		ExternalURL:       asRawString(raw["externalUrl"]),
		BusinessCategory:  asRawString(raw["businessCategoryName"]),
		Location:          asRawString(raw["locationName"]),
		Followers:         asRawInt(raw["followersCount"]),
		Follows:           asRawInt(raw["followsCount"]),
		Posts:             asRawInt(raw["postsCount"]),
		Private:           private,
		IsBusinessAccount: asRawBool(raw["isBusinessAccount"]),
		Verified:          asRawBool(raw["verified"]),
	}
}

// minSocialPosts is the activity floor; fewer posts marks a dormant
// account.
const minSocialPosts = 10

// FilterProfile applies the social qualification gauntlet in order and
// returns either a scored lead or the rejection bucket name. Checks run
// cheapest-first; the first failure wins.
func FilterProfile(p RawProfile, minFollowers, maxFollowers int) (model.SocialLead, string) {
	if p.Private {
		return model.SocialLead{}, SocialRejectPrivate
	}
	if p.Followers < minFollowers {
		return model.SocialLead{}, SocialRejectTooFewFollowers
	}
	if p.Followers > maxFollowers {
		return model.SocialLead{}, SocialRejectTooManyFollowers
	}

	bio := strings.ToLower(p.Biography)
	if len(strings.TrimSpace(bio)) < 10 {
		return model.SocialLead{}, SocialRejectNoBio
	}
	if containsAny(bio, negativeBioKeywords) {
		return model.SocialLead{}, SocialRejectNegativeKeywords
	}

	positive := containsAny(bio, positiveBioKeywords)
	if !positive {
		category := strings.ToLower(p.BusinessCategory)
		positive = containsAny(category, coachingCategories)
	}
	if !positive {
		return model.SocialLead{}, SocialRejectNoCoachingSignal
	}

	if p.Posts < minSocialPosts {
		return model.SocialLead{}, SocialRejectInactive
	}

	sl := model.SocialLead{
		Handle:            p.Username,
		FullName:          p.FullName,
		Bio:               p.Biography,
		FollowerCount:     p.Followers,
		FollowingCount:    p.Follows,
		PostCount:         p.Posts,
		Website:           p.ExternalURL,
		IsBusinessAccount: p.IsBusinessAccount,
		BusinessCategory:  p.BusinessCategory,
		IsVerified:        p.Verified,
		LikelyUS:          LikelyUS(p.Biography, p.Location),
		ScrapedAt:         time.Now().UTC(),
	}
	sl.Score = ScoreSocial(sl)
	return sl, ""
}

func asRawString(v any) string {
	s, _ := v.(string)
	return s
}

func asRawInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	}
	return 0
}

func asRawBool(v any) bool {
	b, _ := v.(bool)
	return b
}
