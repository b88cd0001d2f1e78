package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/lead"
	"github.com/fitcore/leadgen-cli/internal/pipeline"
	"github.com/fitcore/leadgen-cli/internal/store"
)

var scrapeFlags struct {
	limit       int
	concurrency int
	rerun       bool
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape websites for stored leads that have none on record",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(false, true, cfg.Scrape.UseAI, false); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.LeadFilter{NeedsScrape: !scrapeFlags.rerun, Limit: scrapeFlags.limit}
		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			cmd.Println("no leads need scraping")
			return nil
		}
		zap.L().Info("rescrape: leads selected", zap.Int("count", len(leads)))

		concurrency := scrapeFlags.concurrency
		if concurrency <= 0 {
			concurrency = cfg.Scrape.Concurrency
		}
		p := pipeline.New(st, nil, newScraper(newLLM()), nil, nil, lead.StandardRules(), pipeline.Options{
			ScrapeConcurrency: concurrency,
		})
		res := p.ScrapeBatch(ctx, leads)

		cmd.Printf("scraped %d of %d leads (%d errors)\n", res.Processed, len(leads), res.Errors)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeFlags.limit, "limit", 200, "maximum leads to scrape")
	scrapeCmd.Flags().IntVar(&scrapeFlags.concurrency, "concurrency", 0, "concurrent scrapes (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeFlags.rerun, "rerun", false, "include leads already scraped")
	rootCmd.AddCommand(scrapeCmd)
}
