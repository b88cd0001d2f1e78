package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitcore/leadgen-cli/internal/model"
)

func TestClassifyOnlineLevels(t *testing.T) {
	rules := StandardRules()

	l := model.Lead{CompanyDescription: "online coaching with remote training plans"}
	status, matched := ClassifyOnline(l, rules)
	assert.Equal(t, model.OnlineLikely, status)
	assert.GreaterOrEqual(t, len(matched), 2)

	l = model.Lead{CompanyDescription: "virtual sessions available"}
	status, matched = ClassifyOnline(l, rules)
	assert.Equal(t, model.OnlineMaybe, status)
	assert.Equal(t, []string{"virtual"}, matched)

	l = model.Lead{CompanyDescription: "local gym with group classes"}
	status, matched = ClassifyOnline(l, rules)
	assert.Equal(t, model.OnlineInPerson, status)
	assert.Empty(t, matched)
}

func TestClassifyOnlineOverlappingKeywords(t *testing.T) {
	rules := StandardRules()

	// "online coaching" contains "online coach"; one phrase is one match.
	l := model.Lead{CompanyDescription: "online coaching"}
	status, matched := ClassifyOnline(l, rules)
	assert.Equal(t, model.OnlineMaybe, status)
	assert.Equal(t, []string{"online coaching"}, matched)

	// Two separate phrases still count separately.
	l = model.Lead{CompanyDescription: "online coaching with a custom program for every client"}
	status, matched = ClassifyOnline(l, rules)
	assert.Equal(t, model.OnlineLikely, status)
	assert.Contains(t, matched, "online coaching")
	assert.Contains(t, matched, "custom program")
}

func TestMatchKeywordsDistinctOccurrences(t *testing.T) {
	keywords := []string{"online coach", "online coaching"}

	// The shorter keyword only counts when it has its own occurrence
	// outside the span the longer one claimed.
	matched := matchKeywords("we do online coaching and hire an online coach", keywords)
	assert.Equal(t, []string{"online coach", "online coaching"}, matched)

	matched = matchKeywords("we do online coaching", keywords)
	assert.Equal(t, []string{"online coaching"}, matched)
}

func TestClassifySegmentOrder(t *testing.T) {
	rules := StandardRules()

	// Nutrition beats tool mentions.
	l := model.Lead{CompanyDescription: "macro tracking via trainerize"}
	assert.Equal(t, model.SegmentNutrition, ClassifySegment(l, rules))

	l = model.Lead{CompanyDescription: "we use trainerize for programming"}
	assert.Equal(t, model.SegmentTool, ClassifySegment(l, rules))

	l = model.Lead{CompanySize: "25"}
	assert.Equal(t, model.SegmentScaling, ClassifySegment(l, rules))

	l = model.Lead{CompanyDescription: "luxury private training"}
	assert.Equal(t, model.SegmentPremium, ClassifySegment(l, rules))

	l = model.Lead{CompanyDescription: "programs delivered by google sheet"}
	assert.Equal(t, model.SegmentSpreadsheet, ClassifySegment(l, rules))

	l = model.Lead{CompanyDescription: "personal attention for every client"}
	assert.Equal(t, model.SegmentGeneral, ClassifySegment(l, rules))
}

func TestClassifySegmentUnknownSizeNotScaling(t *testing.T) {
	rules := StandardRules()
	l := model.Lead{CompanySize: "21-50"}
	assert.Equal(t, model.SegmentGeneral, ClassifySegment(l, rules))
}

func TestScoreSocialAdditive(t *testing.T) {
	s := model.SocialLead{
		IsBusinessAccount: true,
		Website:           "https://coachjane.com",
		Bio:               "online coaching, apply below",
		FollowerCount:     10000,
		LikelyUS:          true,
	}
	// 2 business + 2 website + 2 online + 2 urgency + 1 sweet spot + 1 US.
	assert.Equal(t, 10, ScoreSocial(s))

	assert.Equal(t, 0, ScoreSocial(model.SocialLead{FollowerCount: 100}))
}

func TestScoreSocialSweetSpotBounds(t *testing.T) {
	base := model.SocialLead{FollowerCount: 5000}
	assert.Equal(t, 1, ScoreSocial(base))

	base.FollowerCount = 30000
	assert.Equal(t, 1, ScoreSocial(base))

	base.FollowerCount = 30001
	assert.Equal(t, 0, ScoreSocial(base))

	base.FollowerCount = 4999
	assert.Equal(t, 0, ScoreSocial(base))
}

func TestLikelyUS(t *testing.T) {
	assert.True(t, LikelyUS("Coach in Austin TX", ""))
	assert.True(t, LikelyUS("", "New York"))
	assert.True(t, LikelyUS("PST mornings only", ""))
	assert.False(t, LikelyUS("Coach from London", "United Kingdom"))
}
