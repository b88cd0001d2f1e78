package pipeline

import (
	"context"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// StageResult reports counts from re-running a single stage over stored
// leads.
type StageResult struct {
	Processed int
	Skipped   int
	Errors    int
}

// ScrapeBatch re-runs the website scrape stage over the given leads.
func (p *Pipeline) ScrapeBatch(ctx context.Context, leads []model.Lead) StageResult {
	report := model.NewBatchReport("rescrape")
	p.scrapeStage(ctx, leads, report)
	return StageResult{Processed: report.Scraped, Errors: report.Errors}
}

// EnrichBatch re-runs microcopy generation over the given leads.
func (p *Pipeline) EnrichBatch(ctx context.Context, leads []model.Lead) StageResult {
	report := model.NewBatchReport("reenrich")
	p.enrichStage(ctx, leads, report)
	return StageResult{Processed: report.Enriched, Skipped: report.Skipped, Errors: report.Errors}
}

// PushBatch pushes already-enriched leads above the confidence gate to
// the outreach campaign.
func (p *Pipeline) PushBatch(ctx context.Context, leads []model.Lead) StageResult {
	report := model.NewBatchReport("repush")
	p.pushStage(ctx, leads, report)
	return StageResult{Processed: report.Pushed, Errors: report.Errors}
}
