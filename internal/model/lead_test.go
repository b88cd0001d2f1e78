package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"jane@fit.com",
		"jane.doe+tag@sub.example.org",
	}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}

	invalid := []string{
		"",
		"   ",
		"null",
		"None",
		"jane",
		"jane@",
		"@fit.com",
		"jane@fitcom",
		"jane@fit.",
		"jane@@fit.com",
		"jane doe@fit.com",
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestDedupKey(t *testing.T) {
	l := Lead{Email: "  Jane@Fit.COM "}
	assert.Equal(t, "jane@fit.com", l.DedupKey())
}

func TestParseSize(t *testing.T) {
	size := ParseSize("42")
	assert.True(t, size.Known)
	assert.Equal(t, 42, size.N)

	for _, raw := range []string{"", "  ", "11-20", "about 10", "ten"} {
		size := ParseSize(raw)
		assert.False(t, size.Known, raw)
		assert.Zero(t, size.N, raw)
	}
}

func TestCombinedTextOrderAndCase(t *testing.T) {
	l := Lead{
		CompanyDescription: "Online Coaching",
		Keywords:           "Macros",
		CompanyName:        "Fit Studio",
		Headline:           "Helping Coaches",
		JobTitle:           "Trainer",
	}
	assert.Equal(t, "online coaching macros fit studio helping coaches trainer", l.CombinedText())
}

func TestBatchReportTotals(t *testing.T) {
	r := NewBatchReport("b1")
	assert.Equal(t, 0, r.TotalRejected())

	r.Rejections[ReasonNoEmail] = 3
	r.Rejections[ReasonWrongCountry] = 2
	assert.Equal(t, 5, r.TotalRejected())
}

func TestRejectionString(t *testing.T) {
	assert.Equal(t, "no_email", Rejection{Reason: ReasonNoEmail}.String())
	assert.Equal(t, "disallowed_keyword:day spa",
		Rejection{Reason: ReasonDisallowedKeyword, Detail: "day spa"}.String())
}
