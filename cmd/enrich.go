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

var enrichFlags struct {
	limit       int
	concurrency int
	rerun       bool
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate outreach microcopy for stored leads missing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(false, false, true, false); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.LeadFilter{NeedsEnrich: !enrichFlags.rerun, Limit: enrichFlags.limit}
		leads, err := st.ListLeads(ctx, filter)
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			cmd.Println("no leads need enrichment")
			return nil
		}
		zap.L().Info("reenrich: leads selected", zap.Int("count", len(leads)))

		concurrency := enrichFlags.concurrency
		if concurrency <= 0 {
			concurrency = cfg.Enrich.Concurrency
		}
		p := pipeline.New(st, nil, nil, newEnricher(newLLM()), nil, lead.StandardRules(), pipeline.Options{
			EnrichConcurrency: concurrency,
		})
		res := p.EnrichBatch(ctx, leads)

		cmd.Printf("enriched %d of %d leads, %d below confidence gate (%d errors)\n",
			res.Processed, len(leads), res.Skipped, res.Errors)
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichFlags.limit, "limit", 100, "maximum leads to enrich")
	enrichCmd.Flags().IntVar(&enrichFlags.concurrency, "concurrency", 0, "concurrent generations (default from config)")
	enrichCmd.Flags().BoolVar(&enrichFlags.rerun, "rerun", false, "include leads already enriched")
	rootCmd.AddCommand(enrichCmd)
}
