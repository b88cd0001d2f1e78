// Package pipeline orchestrates the lead batch flow: fetch, normalize,
// dedup, qualify, score, persist, scrape, enrich, push, report. Stages
// run in order; per-lead failures inside a stage are counted and never
// abort the batch.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fitcore/leadgen-cli/internal/enrich"
	"github.com/fitcore/leadgen-cli/internal/lead"
	"github.com/fitcore/leadgen-cli/internal/model"
	"github.com/fitcore/leadgen-cli/internal/resilience"
	"github.com/fitcore/leadgen-cli/internal/scrape"
	"github.com/fitcore/leadgen-cli/internal/store"
	"github.com/fitcore/leadgen-cli/pkg/apify"
	"github.com/fitcore/leadgen-cli/pkg/instantly"
)

// jobTitles is the search filter sent to the lead actor.
var jobTitles = []string{
	"personal trainer",
	"fitness coach",
	"online fitness coach",
	"nutrition coach",
	"health coach",
	"transformation coach",
	"online coach",
}

// Options selects cities, limits, and stage toggles for one run.
type Options struct {
	Cities       []string
	LeadsPerCity int
	// DatasetID resumes from an existing actor dataset instead of
	// starting new runs.
	DatasetID string

	// DryRun stops after scoring: nothing is persisted, scraped,
	// enriched, or pushed. The report is still produced.
	DryRun bool
	// AuditOnly behaves like DryRun but marks the report as an audit.
	AuditOnly bool

	SkipEnrich bool
	SkipPush   bool

	LeadActor         string
	PollInterval      time.Duration
	PollTimeout       time.Duration
	ScrapeConcurrency int
	EnrichConcurrency int
	CampaignID        string

	// SkipThreshold is the confidence gate for the campaign push. Leads
	// the enricher scored below it stay stored for manual review.
	SkipThreshold int

	// StartRetry tunes retries of the actor start request. Zero
	// MaxAttempts means defaults.
	StartRetry resilience.RetryConfig
}

// Pipeline wires the stages to their collaborators.
type Pipeline struct {
	store    store.Store
	apify    apify.Client
	scraper  *scrape.Scraper
	enricher *enrich.Enricher
	outreach instantly.Client
	rules    lead.Rules
	opts     Options
}

// New creates a Pipeline. Scraper, enricher, and outreach may be nil
// when the matching stage is disabled for the run.
func New(st store.Store, ap apify.Client, sc *scrape.Scraper, en *enrich.Enricher, out instantly.Client, rules lead.Rules, opts Options) *Pipeline {
	if opts.LeadsPerCity <= 0 {
		opts.LeadsPerCity = 100
	}
	if opts.ScrapeConcurrency <= 0 {
		opts.ScrapeConcurrency = 10
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 5
	}
	if opts.SkipThreshold <= 0 {
		opts.SkipThreshold = enrich.DefaultSkipThreshold
	}
	return &Pipeline{
		store:    st,
		apify:    ap,
		scraper:  sc,
		enricher: en,
		outreach: out,
		rules:    rules,
		opts:     opts,
	}
}

// Run executes the full batch. The returned report is non-nil even when
// err is set, so callers can always print what happened.
func (p *Pipeline) Run(ctx context.Context) (*model.BatchReport, error) {
	report := model.NewBatchReport(uuid.New().String())
	report.DryRun = p.opts.DryRun
	report.AuditOnly = p.opts.AuditOnly
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()

	zap.L().Info("pipeline: starting batch",
		zap.String("batch_id", report.BatchID),
		zap.Strings("cities", p.opts.Cities),
		zap.Int("leads_per_city", p.opts.LeadsPerCity),
		zap.Bool("dry_run", p.opts.DryRun),
	)

	existing, err := p.store.LoadExistingEmails(ctx)
	if err != nil {
		return report, eris.Wrap(err, "pipeline: load existing emails")
	}

	raw, err := p.fetchRaw(ctx)
	if err != nil {
		return report, err
	}
	report.RawCount = len(raw)

	qualified := p.sift(raw, existing, report)
	report.QualifiedCount = len(qualified)

	zap.L().Info("pipeline: batch sifted",
		zap.Int("raw", report.RawCount),
		zap.Int("qualified", report.QualifiedCount),
		zap.Int("rejected", report.TotalRejected()),
		zap.Int("dupes_existing", report.DupesExisting),
		zap.Int("dupes_in_batch", report.DupesInBatch),
	)

	if p.opts.DryRun || p.opts.AuditOnly {
		return report, nil
	}

	inserted, err := p.store.UpsertLeads(ctx, qualified)
	if err != nil {
		return report, eris.Wrap(err, "pipeline: persist leads")
	}
	report.Inserted = inserted
	report.SkippedUpsert = len(qualified) - inserted

	if p.scraper != nil {
		p.scrapeStage(ctx, qualified, report)
	}

	if !p.opts.SkipEnrich && p.enricher != nil {
		p.enrichStage(ctx, qualified, report)
	}

	if !p.opts.SkipPush && p.outreach != nil {
		p.pushStage(ctx, qualified, report)
	}

	if err := p.store.SaveBatchReport(ctx, report); err != nil {
		zap.L().Warn("pipeline: save batch report failed", zap.Error(err))
	}

	return report, nil
}

// sampleSize caps the example leads kept per side for audit output.
const sampleSize = 5

// sift runs normalize, dedup, qualify, and score over the raw items.
// Dedup happens before qualification so a duplicate is reported as a
// duplicate even when it would also fail a qualification rule.
func (p *Pipeline) sift(raw []map[string]any, existing []string, report *model.BatchReport) []model.Lead {
	deduper := lead.NewEmailDeduper(existing)

	var qualified []model.Lead
	for _, item := range raw {
		l := lead.Normalize(item, "apollo")

		if rej := deduper.Check(l.DedupKey()); rej != nil {
			switch rej.Reason {
			case model.ReasonDuplicateExisting:
				report.DupesExisting++
			case model.ReasonDuplicateInBatch:
				report.DupesInBatch++
			}
			continue
		}

		if rej := lead.Qualify(l, p.rules); rej != nil {
			report.Rejections[rej.Reason]++
			if len(report.SampleRejected) < sampleSize {
				report.SampleRejected = append(report.SampleRejected,
					strings.TrimSpace(l.DedupKey()+" "+rej.String()))
			}
			continue
		}

		status, matched := lead.ClassifyOnline(l, p.rules)
		l.OnlineStatus = status
		l.MatchedSignals = matched
		l.Segment = lead.ClassifySegment(l, p.rules)
		l.OutreachStatus = model.OutreachNotContacted

		report.OnlineCounts[l.OnlineStatus]++
		report.SegmentCounts[l.Segment]++
		if len(report.SampleQualified) < sampleSize {
			report.SampleQualified = append(report.SampleQualified, l.DedupKey())
		}
		qualified = append(qualified, l)
	}
	return qualified
}

// scrapeStage visits each lead's website with bounded concurrency and
// writes findings back to the store and onto the in-memory lead so the
// enrichment stage sees them.
func (p *Pipeline) scrapeStage(ctx context.Context, leads []model.Lead, report *model.BatchReport) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.ScrapeConcurrency)

	for i := range leads {
		if strings.TrimSpace(leads[i].Website) == "" {
			continue
		}
		l := &leads[i]
		g.Go(func() error {
			result, err := p.scraper.Scrape(gctx, l.Website)
			if err != nil {
				mu.Lock()
				report.Errors++
				mu.Unlock()
				zap.L().Debug("pipeline: scrape failed",
					zap.String("email", l.Email),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			applyFindings(l, result.Findings)
			report.Scraped++
			mu.Unlock()

			if err := p.store.UpdateScrape(gctx, l.DedupKey(), *l); err != nil {
				zap.L().Warn("pipeline: update scrape failed",
					zap.String("email", l.Email),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	g.Wait()
}

func applyFindings(l *model.Lead, f scrape.Findings) {
	l.OffersOnlineCoaching = f.OffersOnlineCoaching
	l.CoachingServices = f.CoachingServices
	l.PricingVisible = f.PricingVisible
	l.PricingDetails = f.PricingDetails
	l.ToolsDetected = f.ToolsDetected
	l.WebsiteDescription = f.WebsiteDescription
	l.SocialLinks = f.SocialLinks
	now := time.Now().UTC()
	l.ScrapedAt = &now
}

// enrichStage generates microcopy for each lead with bounded
// concurrency. Generation failures count as errors; leads below the
// confidence gate are flagged, not discarded.
func (p *Pipeline) enrichStage(ctx context.Context, leads []model.Lead, report *model.BatchReport) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.EnrichConcurrency)

	for i := range leads {
		l := &leads[i]
		g.Go(func() error {
			result, err := p.enricher.Enrich(gctx, *l)
			if err != nil {
				mu.Lock()
				report.Errors++
				mu.Unlock()
				zap.L().Warn("pipeline: enrich failed",
					zap.String("email", l.Email),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			l.OpeningLine = result.OpeningLine
			l.PainPoint = result.PainPoint
			l.EstimatedClients = result.EstimatedClients
			l.ConfidenceScore = result.Confidence
			l.SkipReason = result.SkipReason
			now := time.Now().UTC()
			l.EnrichedAt = &now
			report.Enriched++
			if result.Skip {
				report.Skipped++
			}
			mu.Unlock()

			if err := p.store.UpdateEnrichment(gctx, l.DedupKey(), *l); err != nil {
				zap.L().Warn("pipeline: update enrichment failed",
					zap.String("email", l.Email),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	g.Wait()
}

// pushStage sends enriched leads above the confidence gate to the
// outreach campaign and marks them pushed.
func (p *Pipeline) pushStage(ctx context.Context, leads []model.Lead, report *model.BatchReport) {
	var payload []instantly.Lead
	var emails []string
	for _, l := range leads {
		if l.EnrichedAt == nil || l.ConfidenceScore < p.opts.SkipThreshold {
			continue
		}
		payload = append(payload, instantly.Lead{
			Email:       l.DedupKey(),
			FirstName:   l.FirstName,
			LastName:    l.LastName,
			CompanyName: l.CompanyName,
			CustomVariables: map[string]string{
				"openingLine": l.OpeningLine,
				"painPoint":   l.PainPoint,
				"website":     l.Website,
			},
		})
		emails = append(emails, l.DedupKey())
	}
	if len(payload) == 0 {
		return
	}

	result, err := p.outreach.BulkAddLeads(ctx, p.opts.CampaignID, payload)
	if err != nil {
		report.Errors++
		zap.L().Error("pipeline: push to campaign failed", zap.Error(err))
		return
	}
	report.Pushed = result.Added

	if _, err := p.store.MarkPushed(ctx, emails); err != nil {
		zap.L().Warn("pipeline: mark pushed failed", zap.Error(err))
	}
}
