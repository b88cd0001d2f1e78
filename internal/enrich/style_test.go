package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckViolation(t *testing.T) {
	assert.Equal(t, "love how", CheckViolation("Love how you structure your sessions"))
	assert.Equal(t, "i noticed", CheckViolation("  I noticed your nutrition program"))
	assert.Equal(t, "congrats", CheckViolation("CONGRATS on the new studio"))
	assert.Empty(t, CheckViolation("Running 40 clients off a spreadsheet gets old fast."))
	assert.Empty(t, CheckViolation(""))
}

func TestCheckViolationMidSentenceAllowed(t *testing.T) {
	// Banned phrases only count at the start of the line.
	assert.Empty(t, CheckViolation("Clients love how simple your check-ins are."))
}

func TestSanitizeEmDashes(t *testing.T) {
	assert.Equal(t, "Spreadsheets, then what", Sanitize("Spreadsheets — then what"))
	assert.NotContains(t, Sanitize("a—b"), "—")
}

func TestSanitizeTagQuestions(t *testing.T) {
	assert.Equal(t, "Check-ins eat your Sunday.", Sanitize("Check-ins eat your Sunday, right?"))
	assert.Equal(t, "Macros by hand gets old.", Sanitize("Macros by hand gets old, no?"))
	// Mid-sentence "right" survives.
	assert.Equal(t, "The right tool matters.", Sanitize("The right tool matters."))
}
