package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitcore/leadgen-cli/internal/model"
)

func TestNormalizeAliasesAndCasing(t *testing.T) {
	raw := map[string]any{
		"Email":            "Jane@Fit.com",
		"firstName":        "Jane",
		"last_name":        "Doe",
		"organization_name": "Fit Studio",
		"companyWebsite":   "fitstudio.com",
		"jobTitle":         "Personal Trainer",
		"company_industry": "health, wellness & fitness",
	}

	l := Normalize(raw, "apollo")

	assert.Equal(t, "jane@fit.com", l.Email)
	assert.Equal(t, "Jane", l.FirstName)
	assert.Equal(t, "Doe", l.LastName)
	assert.Equal(t, "Fit Studio", l.CompanyName)
	assert.Equal(t, "fitstudio.com", l.Website)
	assert.Equal(t, "Personal Trainer", l.JobTitle)
	assert.Equal(t, "health, wellness & fitness", l.Industry)
	assert.Equal(t, "apollo", l.Platform)
	assert.Equal(t, model.OutreachNotContacted, l.OutreachStatus)
}

func TestNormalizeNullValues(t *testing.T) {
	raw := map[string]any{
		"email":        nil,
		"first_name":   "null",
		"last_name":    "None",
		"company_name": "  ",
	}

	l := Normalize(raw, "apollo")

	assert.Empty(t, l.Email)
	assert.Empty(t, l.FirstName)
	assert.Empty(t, l.LastName)
	assert.Empty(t, l.CompanyName)
}

func TestNormalizeNumericSize(t *testing.T) {
	// JSON decoding hands integers over as float64.
	raw := map[string]any{
		"email": "a@b.co",
		"size":  float64(11),
	}

	l := Normalize(raw, "apollo")
	assert.Equal(t, "11", l.CompanySize)

	size := l.Size()
	assert.True(t, size.Known)
	assert.Equal(t, 11, size.N)
}

func TestNormalizeFirstNonEmptyAliasWins(t *testing.T) {
	raw := map[string]any{
		"company_name":      "",
		"companyName":       "Fit Studio",
		"organization_name": "Other Name",
	}

	l := Normalize(raw, "apollo")
	assert.Equal(t, "Fit Studio", l.CompanyName)
}
