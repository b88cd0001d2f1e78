// Package store persists leads, social leads, and batch reports. Two
// implementations exist: Postgres (Supabase in production) behind
// pgxpool, and SQLite for local runs and audits.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Segment model.Segment        `json:"segment,omitempty"`
	Status  model.OutreachStatus `json:"status,omitempty"`
	// NeedsScrape selects leads with a website that the scrape stage
	// has not visited yet.
	NeedsScrape bool `json:"needs_scrape,omitempty"`
	// NeedsEnrich selects leads without generated microcopy.
	NeedsEnrich bool `json:"needs_enrich,omitempty"`
	// MinConfidence filters out leads below the given confidence score.
	MinConfidence int `json:"min_confidence,omitempty"`
	Limit         int `json:"limit,omitempty"`
	Offset        int `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Leads
	LoadExistingEmails(ctx context.Context) ([]string, error)
	UpsertLeads(ctx context.Context, leads []model.Lead) (inserted int, err error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateScrape(ctx context.Context, email string, lead model.Lead) error
	UpdateEnrichment(ctx context.Context, email string, lead model.Lead) error
	MarkPushed(ctx context.Context, emails []string) (int, error)

	// Social leads
	LoadExistingHandles(ctx context.Context) ([]string, error)
	UpsertSocialLeads(ctx context.Context, leads []model.SocialLead) (inserted int, err error)
	ListSocialLeads(ctx context.Context, limit int) ([]model.SocialLead, error)
	// ListEngagedSocialLeads selects engaged leads whose engagement
	// predates the cutoff. Unless includeDrafted is set, leads that
	// already carry a DM draft are left out.
	ListEngagedSocialLeads(ctx context.Context, engagedBefore time.Time, includeDrafted bool, limit int) ([]model.SocialLead, error)
	UpdateSocialDM(ctx context.Context, handle, draft string) error

	// Reports and counts
	SaveBatchReport(ctx context.Context, report *model.BatchReport) error
	ListBatchReports(ctx context.Context, limit int) ([]model.BatchReport, error)
	CountsBySegment(ctx context.Context) (map[model.Segment]int, error)
	CountsByStatus(ctx context.Context) (map[model.OutreachStatus]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// joinSignals flattens matched signal names for a single text column.
func joinSignals(signals []string) string {
	return strings.Join(signals, ", ")
}

func splitSignals(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
