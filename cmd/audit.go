package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fitcore/leadgen-cli/internal/model"
)

var auditReports int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show stored lead counts and recent batch reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		segments, err := st.CountsBySegment(ctx)
		if err != nil {
			return err
		}
		statuses, err := st.CountsByStatus(ctx)
		if err != nil {
			return err
		}

		cmd.Println("Leads by segment:")
		printCounts(cmd, segmentLabels(segments))
		cmd.Println("Leads by outreach status:")
		printCounts(cmd, statusLabels(statuses))

		reports, err := st.ListBatchReports(ctx, auditReports)
		if err != nil {
			return err
		}
		if len(reports) > 0 {
			cmd.Println("Recent batches:")
			for _, r := range reports {
				cmd.Printf("  %s  %s  raw=%d qualified=%d pushed=%d errors=%d\n",
					r.FinishedAt.Format("2006-01-02 15:04"), r.BatchID,
					r.RawCount, r.QualifiedCount, r.Pushed, r.Errors)
			}
		}
		return nil
	},
}

type labelCount struct {
	label string
	n     int
}

func segmentLabels(m map[model.Segment]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for k, v := range m {
		out = append(out, labelCount{string(k), v})
	}
	return out
}

func statusLabels(m map[model.OutreachStatus]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for k, v := range m {
		out = append(out, labelCount{string(k), v})
	}
	return out
}

func printCounts(cmd *cobra.Command, entries []labelCount) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].label < entries[j].label
	})
	for _, e := range entries {
		cmd.Print(fmt.Sprintf("  %-22s %d\n", e.label, e.n))
	}
	if len(entries) == 0 {
		cmd.Println("  (none)")
	}
}

func init() {
	auditCmd.Flags().IntVar(&auditReports, "reports", 10, "number of recent batch reports to show")
	rootCmd.AddCommand(auditCmd)
}
