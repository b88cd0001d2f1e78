package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/lead"
	"github.com/fitcore/leadgen-cli/internal/model"
	"github.com/fitcore/leadgen-cli/internal/pipeline"
	"github.com/fitcore/leadgen-cli/internal/store"
)

var pushFlags struct {
	limit         int
	minConfidence int
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push enriched, not-yet-contacted leads to the outreach campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(false, false, false, true); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			Status:        model.OutreachNotContacted,
			MinConfidence: pushFlags.minConfidence,
			Limit:         pushFlags.limit,
		})
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			cmd.Println("no leads ready to push")
			return nil
		}
		zap.L().Info("push: leads selected", zap.Int("count", len(leads)))

		p := pipeline.New(st, nil, nil, nil, newOutreach(), lead.StandardRules(), pipeline.Options{
			CampaignID:    cfg.Instantly.CampaignID,
			SkipThreshold: pushFlags.minConfidence,
		})
		res := p.PushBatch(ctx, leads)
		if res.Errors > 0 {
			cmd.Printf("push finished with %d errors\n", res.Errors)
		}
		cmd.Printf("pushed %d of %d leads to campaign %s\n", res.Processed, len(leads), cfg.Instantly.CampaignID)
		return nil
	},
}

func init() {
	pushCmd.Flags().IntVar(&pushFlags.limit, "limit", 1000, "maximum leads to push")
	pushCmd.Flags().IntVar(&pushFlags.minConfidence, "min-confidence", 4, "minimum confidence score")
	rootCmd.AddCommand(pushCmd)
}
