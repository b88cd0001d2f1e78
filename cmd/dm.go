package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/enrich"
	"github.com/fitcore/leadgen-cli/internal/pipeline"
)

var dmFlags struct {
	limit       int
	concurrency int
	dryRun      bool
	regenerate  bool
}

var dmCmd = &cobra.Command{
	Use:   "dm",
	Short: "Generate Instagram DM drafts for engaged social leads",
	Long:  "Selects social leads marked engaged before today that have no DM draft yet, generates a personalized opener for each, and writes the drafts back to the store. Run it before a DM session so the copy is ready.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(false, false, !dmFlags.dryRun, false); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var enricher *enrich.Enricher
		if !dmFlags.dryRun {
			enricher = newEnricher(newLLM())
		}

		p := pipeline.NewDM(st, enricher, pipeline.DMOptions{
			Limit:       dmFlags.limit,
			Concurrency: dmFlags.concurrency,
			Regenerate:  dmFlags.regenerate,
			DryRun:      dmFlags.dryRun,
		})

		report, runErr := p.Run(ctx)
		cmd.Print(pipeline.FormatDMReport(report))
		if runErr != nil {
			zap.L().Error("dm draft run failed", zap.Error(runErr))
			return runErr
		}
		return nil
	},
}

func init() {
	dmCmd.Flags().IntVar(&dmFlags.limit, "limit", 1000, "maximum leads to draft for")
	dmCmd.Flags().IntVar(&dmFlags.concurrency, "concurrency", 5, "parallel generation requests")
	dmCmd.Flags().BoolVar(&dmFlags.dryRun, "dry-run", false, "list eligible leads without generating")
	dmCmd.Flags().BoolVar(&dmFlags.regenerate, "regenerate", false, "overwrite drafts that already exist")
	rootCmd.AddCommand(dmCmd)
}
