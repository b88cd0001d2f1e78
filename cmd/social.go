package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fitcore/leadgen-cli/internal/pipeline"
)

var socialFlags struct {
	mode         string
	limit        int
	minFollowers int
	maxFollowers int
	csvPath      string
	dryRun       bool
}

var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Discover coach leads on Instagram",
	Long:  "Discovers coach profiles via hashtag and keyword search, scrapes and filters them to the target profile shape, scores the survivors, and stores them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(true, false, false, false); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p := pipeline.NewSocial(st, newApify(), pipeline.SocialOptions{
			Mode:           socialFlags.mode,
			LimitPerSource: socialFlags.limit,
			MinFollowers:   socialFlags.minFollowers,
			MaxFollowers:   socialFlags.maxFollowers,
			DryRun:         socialFlags.dryRun,
			CSVPath:        socialFlags.csvPath,
			PollInterval:   pollInterval(cfg.Apify),
			PollTimeout:    pollTimeout(cfg.Apify),
		})

		report, runErr := p.Run(ctx)
		cmd.Print(pipeline.FormatSocialReport(report))
		return runErr
	},
}

func init() {
	socialCmd.Flags().StringVar(&socialFlags.mode, "mode", pipeline.SocialModeHashtag, "discovery mode: hashtag, search, or both")
	socialCmd.Flags().IntVar(&socialFlags.limit, "limit", 100, "results to request per hashtag or keyword")
	socialCmd.Flags().IntVar(&socialFlags.minFollowers, "min-followers", 1000, "minimum follower count")
	socialCmd.Flags().IntVar(&socialFlags.maxFollowers, "max-followers", 50000, "maximum follower count")
	socialCmd.Flags().StringVar(&socialFlags.csvPath, "csv", "", "also export qualified leads to a CSV file")
	socialCmd.Flags().BoolVar(&socialFlags.dryRun, "dry-run", false, "filter and score but persist nothing")
	rootCmd.AddCommand(socialCmd)
}
