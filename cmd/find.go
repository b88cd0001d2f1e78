package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/enrich"
	"github.com/fitcore/leadgen-cli/internal/lead"
	"github.com/fitcore/leadgen-cli/internal/pipeline"
	"github.com/fitcore/leadgen-cli/internal/resilience"
	"github.com/fitcore/leadgen-cli/internal/scrape"
	"github.com/fitcore/leadgen-cli/pkg/instantly"
)

var findFlags struct {
	cities       []string
	leadsPerCity int
	datasetID    string
	dryRun       bool
	auditOnly    bool
	skipEnrich   bool
	skipPush     bool
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Run a lead generation batch",
	Long:  "Fetches leads per city, dedups and qualifies them, then scrapes, enriches, and pushes the survivors to the outreach campaign. With --dry-run or --audit-only the batch stops after scoring and nothing is persisted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		preview := findFlags.dryRun || findFlags.auditOnly
		needEnrich := !preview && !findFlags.skipEnrich
		needPush := !preview && !findFlags.skipPush
		if err := cfg.Validate(true, !preview, needEnrich, needPush); err != nil {
			return err
		}

		rules, err := loadRules()
		if err != nil {
			return err
		}
		if findFlags.auditOnly && cfg.Rules.Path == "" {
			// Audits apply the strict gate so marginal leads surface as
			// rejections instead of passing silently.
			rules = lead.StrictRules()
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cities := findFlags.cities
		if len(cities) == 0 {
			cities = cfg.Batch.Cities
		}
		leadsPerCity := findFlags.leadsPerCity
		if leadsPerCity <= 0 {
			leadsPerCity = cfg.Batch.LeadsPerCity
		}

		var (
			scraper  *scrape.Scraper
			enricher *enrich.Enricher
			outreach instantly.Client
		)
		if !preview {
			llm := newLLM()
			scraper = newScraper(llm)
			if needEnrich {
				enricher = newEnricher(llm)
			}
			if needPush {
				outreach = newOutreach()
			}
		}

		p := pipeline.New(st, newApify(), scraper, enricher, outreach, rules, pipeline.Options{
			Cities:            cities,
			LeadsPerCity:      leadsPerCity,
			DatasetID:         findFlags.datasetID,
			DryRun:            findFlags.dryRun,
			AuditOnly:         findFlags.auditOnly,
			SkipEnrich:        findFlags.skipEnrich,
			SkipPush:          findFlags.skipPush,
			LeadActor:         cfg.Apify.LeadActor,
			PollInterval:      pollInterval(cfg.Apify),
			PollTimeout:       pollTimeout(cfg.Apify),
			ScrapeConcurrency: cfg.Scrape.Concurrency,
			EnrichConcurrency: cfg.Enrich.Concurrency,
			CampaignID:        cfg.Instantly.CampaignID,
			SkipThreshold:     cfg.Enrich.SkipThreshold,
			StartRetry: resilience.FromRetryConfig(
				cfg.Apify.RetryAttempts, cfg.Apify.RetryBackoffMs, 0, 0, 0.25),
		})

		report, runErr := p.Run(ctx)
		cmd.Print(pipeline.FormatReport(report))
		if runErr != nil {
			zap.L().Error("batch failed", zap.Error(runErr))
			return runErr
		}
		return nil
	},
}

func init() {
	findCmd.Flags().StringSliceVar(&findFlags.cities, "cities", nil, "cities to search (default from config)")
	findCmd.Flags().IntVar(&findFlags.leadsPerCity, "leads-per-city", 0, "leads to request per city (default from config)")
	findCmd.Flags().StringVar(&findFlags.datasetID, "dataset", "", "resume from an existing Apify dataset instead of starting runs")
	findCmd.Flags().BoolVar(&findFlags.dryRun, "dry-run", false, "stop after scoring; persist nothing")
	findCmd.Flags().BoolVar(&findFlags.auditOnly, "audit-only", false, "like --dry-run but applies the strict qualification gate")
	findCmd.Flags().BoolVar(&findFlags.skipEnrich, "skip-enrich", false, "skip microcopy generation")
	findCmd.Flags().BoolVar(&findFlags.skipPush, "skip-push", false, "skip the outreach campaign push")
	rootCmd.AddCommand(findCmd)
}
