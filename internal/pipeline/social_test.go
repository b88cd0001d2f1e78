package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcore/leadgen-cli/internal/lead"
)

func coachProfile(username string, followers int) map[string]any {
	return map[string]any{
		"username":       username,
		"fullName":       "Jane Fit",
		"biography":      "Online fitness coach helping busy clients transform. DM me to apply.",
		"private":        false,
		"followersCount": float64(followers),
		"followsCount":   float64(900),
		"postsCount":     float64(80),
		"externalUrl":    "https://fitstudio.com",
		"locationName":   "Austin, TX",
	}
}

func socialFakes() (*fakeStore, *fakeApify) {
	st := &fakeStore{}
	ap := &fakeApify{datasets: map[string][]map[string]any{
		hashtagActor: {
			{"ownerUsername": "fitjane"},
			{"ownerUsername": "FitJane"}, // case duplicate
			{"ownerUsername": "privateguy"},
		},
		profileActor: {
			coachProfile("fitjane", 5000),
			{"username": "privateguy", "private": true, "followersCount": float64(3000)},
		},
	}}
	return st, ap
}

func TestSocialRunDryRun(t *testing.T) {
	st, ap := socialFakes()
	p := NewSocial(st, ap, SocialOptions{
		Mode:         SocialModeHashtag,
		DryRun:       true,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Scraped)
	assert.Equal(t, 1, report.Qualified)
	assert.Equal(t, 1, report.Rejections[lead.SocialRejectPrivate])
	assert.Empty(t, st.upsertedSocial)
}

func TestSocialRunPersists(t *testing.T) {
	st, ap := socialFakes()
	p := NewSocial(st, ap, SocialOptions{
		Mode:         SocialModeHashtag,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	require.Len(t, st.upsertedSocial, 1)
	sl := st.upsertedSocial[0]
	assert.Equal(t, "fitjane", sl.Handle)
	assert.Equal(t, 5000, sl.FollowerCount)
	assert.Greater(t, sl.Score, 0)
}

func TestSocialRunSkipsExistingHandles(t *testing.T) {
	st, ap := socialFakes()
	st.existingHandles = []string{"fitjane"}

	p := NewSocial(st, ap, SocialOptions{
		Mode:         SocialModeHashtag,
		DryRun:       true,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DupesExisting)
	assert.Zero(t, report.Qualified)
}

func TestSocialRunCountsInBatchDupes(t *testing.T) {
	// The profile scraper can return the same account twice; the repeat
	// sighting lands in the in-batch bucket, not the existing one.
	st := &fakeStore{}
	ap := &fakeApify{datasets: map[string][]map[string]any{
		hashtagActor: {{"ownerUsername": "fitjane"}},
		profileActor: {
			coachProfile("fitjane", 5000),
			coachProfile("FitJane", 5000),
		},
	}}

	p := NewSocial(st, ap, SocialOptions{
		Mode:         SocialModeHashtag,
		DryRun:       true,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Qualified)
	assert.Equal(t, 1, report.DupesInBatch)
	assert.Zero(t, report.DupesExisting)
}

func TestSocialRunOrdersByScore(t *testing.T) {
	st := &fakeStore{}
	strong := coachProfile("strongjane", 10000)
	weak := coachProfile("weakjoe", 1500)
	weak["biography"] = "Trainer. Workout plans available here weekly."
	delete(weak, "externalUrl")
	delete(weak, "locationName")

	ap := &fakeApify{datasets: map[string][]map[string]any{
		hashtagActor: {
			{"ownerUsername": "weakjoe"},
			{"ownerUsername": "strongjane"},
		},
		profileActor: {weak, strong},
	}}

	p := NewSocial(st, ap, SocialOptions{
		Mode:         SocialModeHashtag,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Qualified)
	require.Len(t, st.upsertedSocial, 2)
	assert.Equal(t, "strongjane", st.upsertedSocial[0].Handle)
}

func TestSocialRunWritesCSV(t *testing.T) {
	st, ap := socialFakes()
	path := filepath.Join(t.TempDir(), "leads.csv")

	p := NewSocial(st, ap, SocialOptions{
		Mode:         SocialModeHashtag,
		DryRun:       true,
		CSVPath:      path,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fitjane")
}

func TestFormatSocialReport(t *testing.T) {
	r := &SocialReport{
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC().Add(time.Minute),
		Discovered: 120,
		Scraped:    110,
		Qualified:  40,
		Inserted:   38,
		Rejections: map[string]int{lead.SocialRejectPrivate: 30},
	}
	out := FormatSocialReport(r)
	assert.Contains(t, out, "SOCIAL DISCOVERY COMPLETE")
	assert.Contains(t, out, "Discovered: 120")
	assert.Contains(t, out, "private")
	assert.Contains(t, out, "Inserted:   38")

	r.DryRun = true
	out = FormatSocialReport(r)
	assert.Contains(t, out, "SOCIAL DRY RUN COMPLETE")
	assert.NotContains(t, out, "Inserted:")
}
