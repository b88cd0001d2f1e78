package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/lead"
	"github.com/fitcore/leadgen-cli/internal/model"
	"github.com/fitcore/leadgen-cli/internal/store"
	"github.com/fitcore/leadgen-cli/pkg/apify"
)

// Actor IDs for the social discovery chain.
const (
	hashtagActor = "apify/instagram-hashtag-scraper"
	searchActor  = "apify/instagram-search-scraper"
	profileActor = "apify/instagram-profile-scraper"
)

// hashtags seed the discovery search.
var hashtags = []string{
	"fitnesscoach",
	"onlinecoach",
	"onlinepersonaltrainer",
	"personaltrainer",
	"onlinefitnesscoach",
	"fitnessbusiness",
	"nutritioncoach",
	"transformationcoach",
	"coachlife",
	"onlinecoaching",
}

var searchKeywords = []string{
	"online fitness coach",
	"personal trainer online",
	"fitness coaching",
	"online nutrition coach",
	"fitness coach USA",
}

// profileChunkSize bounds usernames per profile-scraper run.
const profileChunkSize = 200

// Social discovery modes.
const (
	SocialModeHashtag = "hashtag"
	SocialModeSearch  = "search"
	SocialModeBoth    = "both"
)

// SocialOptions tunes a social discovery run.
type SocialOptions struct {
	Mode           string
	LimitPerSource int
	MinFollowers   int
	MaxFollowers   int
	DryRun         bool
	// CSVPath, when set, also writes the qualified leads to a CSV file.
	CSVPath string

	PollInterval time.Duration
	PollTimeout  time.Duration
}

// SocialReport summarizes one social discovery run.
type SocialReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Discovered int            `json:"discovered"`
	Scraped    int            `json:"scraped"`
	Qualified  int            `json:"qualified"`
	Rejections map[string]int `json:"rejections"`

	DupesExisting int  `json:"dupes_existing"`
	DupesInBatch  int  `json:"dupes_in_batch"`
	Inserted      int  `json:"inserted"`
	DryRun        bool `json:"dry_run"`
}

// SocialPipeline discovers coach profiles via hashtag and keyword
// search, scrapes them, filters to the target profile shape, scores,
// and stores the survivors.
type SocialPipeline struct {
	store store.Store
	apify apify.Client
	opts  SocialOptions
}

// NewSocial creates a SocialPipeline.
func NewSocial(st store.Store, ap apify.Client, opts SocialOptions) *SocialPipeline {
	if opts.Mode == "" {
		opts.Mode = SocialModeHashtag
	}
	if opts.LimitPerSource <= 0 {
		opts.LimitPerSource = 100
	}
	if opts.MinFollowers <= 0 {
		opts.MinFollowers = 1000
	}
	if opts.MaxFollowers <= 0 {
		opts.MaxFollowers = 50000
	}
	return &SocialPipeline{store: st, apify: ap, opts: opts}
}

// Run executes the discovery flow and returns its report.
func (p *SocialPipeline) Run(ctx context.Context) (*SocialReport, error) {
	report := &SocialReport{
		StartedAt:  time.Now().UTC(),
		Rejections: make(map[string]int),
		DryRun:     p.opts.DryRun,
	}
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()

	usernames, err := p.discover(ctx)
	if err != nil {
		return report, err
	}
	report.Discovered = len(usernames)
	zap.L().Info("social: usernames discovered", zap.Int("count", len(usernames)))

	profiles, err := p.scrapeProfiles(ctx, usernames)
	if err != nil {
		return report, err
	}
	report.Scraped = len(profiles)

	existing, err := p.store.LoadExistingHandles(ctx)
	if err != nil {
		return report, eris.Wrap(err, "social: load existing handles")
	}
	deduper := lead.NewDeduper(existing, func(key string) bool {
		return strings.TrimSpace(key) != ""
	})

	var qualified []model.SocialLead
	for _, raw := range profiles {
		profile := lead.ParseProfile(raw)

		if rej := deduper.Check(profile.Username); rej != nil {
			switch rej.Reason {
			case model.ReasonDuplicateExisting:
				report.DupesExisting++
			case model.ReasonDuplicateInBatch:
				report.DupesInBatch++
			}
			continue
		}

		sl, reason := lead.FilterProfile(profile, p.opts.MinFollowers, p.opts.MaxFollowers)
		if reason != "" {
			report.Rejections[reason]++
			continue
		}
		qualified = append(qualified, sl)
	}

	// Highest score first; follower count breaks ties.
	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].Score != qualified[j].Score {
			return qualified[i].Score > qualified[j].Score
		}
		return qualified[i].FollowerCount > qualified[j].FollowerCount
	})
	report.Qualified = len(qualified)

	if p.opts.CSVPath != "" {
		if err := writeSocialCSV(p.opts.CSVPath, qualified); err != nil {
			zap.L().Warn("social: csv export failed", zap.Error(err))
		}
	}

	if p.opts.DryRun {
		return report, nil
	}

	inserted, err := p.store.UpsertSocialLeads(ctx, qualified)
	if err != nil {
		return report, eris.Wrap(err, "social: persist leads")
	}
	report.Inserted = inserted

	return report, nil
}

// discover collects unique usernames from the configured sources.
func (p *SocialPipeline) discover(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var ordered []string
	add := func(username string) {
		username = strings.ToLower(strings.TrimSpace(username))
		if username == "" {
			return
		}
		if _, ok := seen[username]; ok {
			return
		}
		seen[username] = struct{}{}
		ordered = append(ordered, username)
	}

	if p.opts.Mode == SocialModeHashtag || p.opts.Mode == SocialModeBoth {
		items, err := p.runActor(ctx, hashtagActor, map[string]any{
			"hashtags":     hashtags,
			"resultsLimit": p.opts.LimitPerSource,
		})
		if err != nil {
			return nil, eris.Wrap(err, "social: hashtag search")
		}
		for _, item := range items {
			if username, ok := item["ownerUsername"].(string); ok {
				add(username)
			}
		}
	}

	if p.opts.Mode == SocialModeSearch || p.opts.Mode == SocialModeBoth {
		for _, keyword := range searchKeywords {
			items, err := p.runActor(ctx, searchActor, map[string]any{
				"search":      keyword,
				"searchType":  "user",
				"searchLimit": p.opts.LimitPerSource,
			})
			if err != nil {
				zap.L().Warn("social: keyword search failed",
					zap.String("keyword", keyword),
					zap.Error(err),
				)
				continue
			}
			for _, item := range items {
				if username, ok := item["username"].(string); ok {
					add(username)
				}
			}
		}
	}

	return ordered, nil
}

// scrapeProfiles fetches full profile records in chunks.
func (p *SocialPipeline) scrapeProfiles(ctx context.Context, usernames []string) ([]map[string]any, error) {
	var all []map[string]any
	for start := 0; start < len(usernames); start += profileChunkSize {
		end := start + profileChunkSize
		if end > len(usernames) {
			end = len(usernames)
		}

		items, err := p.runActor(ctx, profileActor, map[string]any{
			"usernames": usernames[start:end],
		})
		if err != nil {
			return nil, eris.Wrapf(err, "social: scrape profiles %d-%d", start, end)
		}
		all = append(all, items...)
	}
	return all, nil
}

func (p *SocialPipeline) runActor(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error) {
	run, err := p.apify.StartRun(ctx, actorID, input)
	if err != nil {
		return nil, err
	}
	finished, err := apify.WaitForRun(ctx, p.apify, actorID, run.ID, apify.PollOptions{
		Interval: p.opts.PollInterval,
		Timeout:  p.opts.PollTimeout,
	})
	if err != nil {
		return nil, err
	}
	return apify.CollectDataset(ctx, p.apify, finished.DatasetID, 500)
}

func writeSocialCSV(path string, leads []model.SocialLead) error {
	data, err := csvutil.Marshal(leads)
	if err != nil {
		return eris.Wrap(err, "social: marshal csv")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "social: write csv")
	}
	return nil
}

// FormatSocialReport renders a social run summary for the CLI.
func FormatSocialReport(r *SocialReport) string {
	var b strings.Builder
	line := strings.Repeat("=", 50)

	b.WriteString(line + "\n")
	header := "SOCIAL DISCOVERY COMPLETE"
	if r.DryRun {
		header = "SOCIAL DRY RUN COMPLETE"
	}
	b.WriteString(header + "\n")
	b.WriteString(fmt.Sprintf("  Duration:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second)))
	b.WriteString(fmt.Sprintf("  Discovered: %d\n", r.Discovered))
	b.WriteString(fmt.Sprintf("  Scraped:    %d\n", r.Scraped))
	b.WriteString(fmt.Sprintf("  Dupes:      %d existing, %d in-batch\n", r.DupesExisting, r.DupesInBatch))
	b.WriteString(fmt.Sprintf("  Qualified:  %d\n", r.Qualified))

	entries := make([]countEntry, 0, len(r.Rejections))
	for reason, n := range r.Rejections {
		entries = append(entries, countEntry{reason, n})
	}
	sortCounts(entries)
	writeCounts(&b, "  Rejections:", entries)

	if !r.DryRun {
		b.WriteString(fmt.Sprintf("  Inserted:   %d\n", r.Inserted))
	}
	b.WriteString(line + "\n")
	return b.String()
}
