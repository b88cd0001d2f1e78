package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fitcore/leadgen-cli/internal/enrich"
	"github.com/fitcore/leadgen-cli/internal/store"
)

// DMOptions tunes a DM draft generation run.
type DMOptions struct {
	Limit       int
	Concurrency int
	// Regenerate overwrites drafts that already exist.
	Regenerate bool
	// DryRun lists the eligible leads without generating anything.
	DryRun bool
}

// DMReport summarizes one DM draft run.
type DMReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Eligible   int       `json:"eligible"`
	Generated  int       `json:"generated"`
	Errors     int       `json:"errors"`
	DryRun     bool      `json:"dry_run"`
}

// DMPipeline drafts Instagram DM openers for engaged social leads and
// writes them back to the store, so the daily DM session starts from
// ready copy.
type DMPipeline struct {
	store    store.Store
	enricher *enrich.Enricher
	opts     DMOptions
}

// NewDM creates a DMPipeline.
func NewDM(st store.Store, en *enrich.Enricher, opts DMOptions) *DMPipeline {
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &DMPipeline{store: st, enricher: en, opts: opts}
}

// Run drafts DMs for leads engaged before today. Leads engaged today
// become eligible tomorrow.
func (p *DMPipeline) Run(ctx context.Context) (*DMReport, error) {
	report := &DMReport{
		StartedAt: time.Now().UTC(),
		DryRun:    p.opts.DryRun,
	}
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()

	cutoff := time.Now().UTC().Truncate(24 * time.Hour)
	leads, err := p.store.ListEngagedSocialLeads(ctx, cutoff, p.opts.Regenerate, p.opts.Limit)
	if err != nil {
		return report, eris.Wrap(err, "dm: list engaged leads")
	}
	report.Eligible = len(leads)

	zap.L().Info("dm: eligible leads",
		zap.Int("count", len(leads)),
		zap.Bool("regenerate", p.opts.Regenerate),
	)

	if p.opts.DryRun || len(leads) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, sl := range leads {
		g.Go(func() error {
			draft, err := p.enricher.DraftDM(gctx, sl)
			if err != nil {
				mu.Lock()
				report.Errors++
				mu.Unlock()
				zap.L().Warn("dm: draft failed",
					zap.String("handle", sl.Handle),
					zap.Error(err),
				)
				return nil
			}

			if err := p.store.UpdateSocialDM(gctx, sl.DedupKey(), draft); err != nil {
				mu.Lock()
				report.Errors++
				mu.Unlock()
				zap.L().Warn("dm: save draft failed",
					zap.String("handle", sl.Handle),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			report.Generated++
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return report, nil
}

// FormatDMReport renders a DM draft run summary for the CLI.
func FormatDMReport(r *DMReport) string {
	var b strings.Builder
	line := strings.Repeat("=", 50)

	b.WriteString(line + "\n")
	header := "DM DRAFT GENERATION COMPLETE"
	if r.DryRun {
		header = "DM DRAFT DRY RUN COMPLETE"
	}
	b.WriteString(header + "\n")
	b.WriteString(fmt.Sprintf("  Duration:  %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second)))
	b.WriteString(fmt.Sprintf("  Eligible:  %d\n", r.Eligible))
	if !r.DryRun {
		b.WriteString(fmt.Sprintf("  Generated: %d\n", r.Generated))
		b.WriteString(fmt.Sprintf("  Errors:    %d\n", r.Errors))
	}
	b.WriteString(line + "\n")
	return b.String()
}
