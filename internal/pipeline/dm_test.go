package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcore/leadgen-cli/internal/enrich"
	"github.com/fitcore/leadgen-cli/internal/model"
)

// dmLLM serves canned plain-text replies, optionally failing for
// specific handles mentioned in the prompt.
type dmLLM struct {
	reply   string
	failFor string
}

func (f *dmLLM) ChatJSON(context.Context, string, string) (json.RawMessage, error) {
	return nil, errors.New("unexpected json call")
}

func (f *dmLLM) ChatText(_ context.Context, _, user string) (string, error) {
	if f.failFor != "" && strings.Contains(user, f.failFor) {
		return "", errors.New("backend unavailable")
	}
	return f.reply, nil
}

func engagedLead(handle string, daysAgo int) model.SocialLead {
	engaged := time.Now().UTC().AddDate(0, 0, -daysAgo)
	return model.SocialLead{
		Handle:        handle,
		FullName:      "Jane Doe",
		Bio:           "online fitness coach, 1:1 programs",
		FollowerCount: 8200,
		Score:         8,
		Status:        "engaged",
		EngagedAt:     &engaged,
	}
}

func TestDMRunSavesDrafts(t *testing.T) {
	st := &fakeStore{
		engagedSocial: []model.SocialLead{
			engagedLead("fitjane", 2),
			engagedLead("coachmike", 3),
		},
	}
	llm := &dmLLM{reply: "hey jane, how are you keeping track of all your 1:1 clients these days?"}
	en := enrich.New(llm, enrich.Options{})

	p := NewDM(st, en, DMOptions{Concurrency: 2})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 2, report.Generated)
	assert.Equal(t, 0, report.Errors)
	require.Len(t, st.dmDrafts, 2)
	assert.Contains(t, st.dmDrafts["fitjane"], "hey jane")
	assert.Contains(t, st.dmDrafts["coachmike"], "hey jane")
}

func TestDMRunDryRunGeneratesNothing(t *testing.T) {
	st := &fakeStore{
		engagedSocial: []model.SocialLead{engagedLead("fitjane", 1)},
	}

	p := NewDM(st, nil, DMOptions{DryRun: true})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Eligible)
	assert.Equal(t, 0, report.Generated)
	assert.Empty(t, st.dmDrafts)
}

func TestDMRunCountsFailuresWithoutAborting(t *testing.T) {
	st := &fakeStore{
		engagedSocial: []model.SocialLead{
			engagedLead("fitjane", 2),
			engagedLead("brokenbob", 2),
		},
	}
	llm := &dmLLM{
		reply:   "hey jane, curious how you run check-ins with that many clients?",
		failFor: "@brokenbob",
	}
	en := enrich.New(llm, enrich.Options{})

	p := NewDM(st, en, DMOptions{})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 1, report.Errors)
	assert.Contains(t, st.dmDrafts, "fitjane")
	assert.NotContains(t, st.dmDrafts, "brokenbob")
}

func TestDMRunHonorsLimit(t *testing.T) {
	st := &fakeStore{
		engagedSocial: []model.SocialLead{
			engagedLead("a", 1),
			engagedLead("b", 1),
			engagedLead("c", 1),
		},
	}
	llm := &dmLLM{reply: "hey jane, what does your client onboarding look like right now?"}
	en := enrich.New(llm, enrich.Options{})

	p := NewDM(st, en, DMOptions{Limit: 2})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 2, report.Generated)
}

func TestFormatDMReport(t *testing.T) {
	now := time.Now().UTC()
	out := FormatDMReport(&DMReport{
		StartedAt:  now.Add(-3 * time.Second),
		FinishedAt: now,
		Eligible:   5,
		Generated:  4,
		Errors:     1,
	})
	assert.Contains(t, out, "DM DRAFT GENERATION COMPLETE")
	assert.Contains(t, out, "Eligible:  5")
	assert.Contains(t, out, "Generated: 4")
	assert.Contains(t, out, "Errors:    1")

	dry := FormatDMReport(&DMReport{DryRun: true, Eligible: 5})
	assert.Contains(t, dry, "DM DRAFT DRY RUN COMPLETE")
	assert.NotContains(t, dry, "Generated")
}
