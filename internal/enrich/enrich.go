// Package enrich generates personalization microcopy for qualified
// leads via a generative text backend, subject to a strict style
// contract. Generation follows an explicit small state machine:
// generate -> validate -> retry once -> accept or degrade.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/model"
	"github.com/fitcore/leadgen-cli/pkg/openai"
)

// Defaults for confidence handling. A confidence the backend fails to
// return as a number falls back to the mid-range default rather than
// zero, so unparsable never reads as "definitely not".
const (
	DefaultConfidence    = 5
	DefaultSkipThreshold = 4
)

// Options tunes the enricher.
type Options struct {
	// SkipThreshold flags (not discards) leads whose confidence score is
	// below it. Zero means DefaultSkipThreshold.
	SkipThreshold int
}

// Result is the outcome of enriching a single lead.
type Result struct {
	OpeningLine      string
	PainPoint        string
	EstimatedClients string
	Confidence       int
	SkipReason       string
	Tier             DataTier
	Skip             bool
	Retried          bool
	Degraded         bool // retry also violated; opening line dropped
}

// Enricher drives microcopy generation for leads.
type Enricher struct {
	llm           openai.Client
	skipThreshold int
}

// New creates an Enricher backed by the given client.
func New(llm openai.Client, opts Options) *Enricher {
	threshold := opts.SkipThreshold
	if threshold <= 0 {
		threshold = DefaultSkipThreshold
	}
	return &Enricher{llm: llm, skipThreshold: threshold}
}

// generation mirrors the documented response schema. estimated_clients
// and confidence_score are decoded loosely because the backend may
// return either strings or numbers.
type generation struct {
	OpeningLine      string `json:"opening_line"`
	PainPoint        string `json:"pain_point"`
	EstimatedClients any    `json:"estimated_clients"`
	ConfidenceScore  any    `json:"confidence_score"`
	SkipReason       string `json:"skip_reason"`
}

// Enrich generates microcopy for one lead. A backend error or
// unparsable response is returned to the caller, who counts it and
// moves on; it never aborts the batch.
func (e *Enricher) Enrich(ctx context.Context, l model.Lead) (*Result, error) {
	prompt, tier := BuildPrompt(l)

	gen, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &Result{Tier: tier}

	opening := Sanitize(gen.OpeningLine)
	pain := Sanitize(gen.PainPoint)

	// Style state machine: one regeneration on violation, then degrade
	// by dropping the offending field so the rest of the record stands.
	if violation := CheckViolation(opening); violation != "" {
		result.Retried = true
		zap.L().Debug("enrich: style violation, regenerating",
			zap.String("email", l.Email),
			zap.String("violation", violation),
		)

		retry, retryErr := e.generate(ctx, prompt)
		if retryErr == nil {
			retryOpening := Sanitize(retry.OpeningLine)
			if CheckViolation(retryOpening) == "" {
				gen = retry
				opening = retryOpening
				pain = Sanitize(retry.PainPoint)
			} else {
				result.Degraded = true
				opening = ""
			}
		} else {
			result.Degraded = true
			opening = ""
		}
	}

	result.OpeningLine = truncate(opening, 300)
	result.PainPoint = truncate(pain, 500)
	result.EstimatedClients = truncate(asString(gen.EstimatedClients), 50)
	result.Confidence = parseConfidence(gen.ConfidenceScore)
	result.SkipReason = gen.SkipReason
	result.Skip = result.Confidence < e.skipThreshold

	return result, nil
}

func (e *Enricher) generate(ctx context.Context, prompt string) (*generation, error) {
	raw, err := e.llm.ChatJSON(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: generate")
	}

	var gen generation
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, eris.Wrap(err, "enrich: decode generation")
	}
	return &gen, nil
}

// parseConfidence coerces the backend's confidence value to an int in
// [1,10], defaulting to mid-range on anything unparsable.
func parseConfidence(v any) int {
	var n int
	switch t := v.(type) {
	case float64:
		n = int(t)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return DefaultConfidence
		}
		n = parsed
	default:
		return DefaultConfidence
	}

	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return fmt.Sprintf("%v", t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// truncate cuts s to at most max bytes, backing up to a rune boundary
// so the result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
