package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fitcore/leadgen-cli/internal/model"
)

// FormatReport renders a batch report as the human-readable block the
// CLI prints at the end of every run, including failed ones.
func FormatReport(r *model.BatchReport) string {
	var b strings.Builder
	line := strings.Repeat("=", 50)

	b.WriteString(line + "\n")
	header := "BATCH COMPLETE"
	if r.AuditOnly {
		header = "AUDIT COMPLETE"
	} else if r.DryRun {
		header = "DRY RUN COMPLETE"
	}
	b.WriteString(header + "\n")
	b.WriteString(fmt.Sprintf("  Batch:      %s\n", r.BatchID))
	b.WriteString(fmt.Sprintf("  Duration:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(1e9)))
	b.WriteString(fmt.Sprintf("  Raw leads:  %d\n", r.RawCount))
	b.WriteString(fmt.Sprintf("  Dupes:      %d existing, %d in-batch\n", r.DupesExisting, r.DupesInBatch))
	b.WriteString(fmt.Sprintf("  Qualified:  %d\n", r.QualifiedCount))
	b.WriteString(fmt.Sprintf("  Rejected:   %d\n", r.TotalRejected()))

	writeCounts(&b, "  Rejections:", reasonCounts(r.Rejections))
	writeCounts(&b, "  Online:", onlineCounts(r.OnlineCounts))
	writeCounts(&b, "  Segments:", segmentCounts(r.SegmentCounts))

	if r.AuditOnly {
		writeList(&b, "  Passed sample:", r.SampleQualified)
		writeList(&b, "  Rejected sample:", r.SampleRejected)
	}

	if !r.DryRun && !r.AuditOnly {
		b.WriteString(fmt.Sprintf("  Inserted:   %d (%d already stored)\n", r.Inserted, r.SkippedUpsert))
		b.WriteString(fmt.Sprintf("  Scraped:    %d\n", r.Scraped))
		b.WriteString(fmt.Sprintf("  Enriched:   %d (%d below confidence gate)\n", r.Enriched, r.Skipped))
		b.WriteString(fmt.Sprintf("  Pushed:     %d\n", r.Pushed))
	}
	if r.Errors > 0 {
		b.WriteString(fmt.Sprintf("  Errors:     %d\n", r.Errors))
	}
	b.WriteString(line + "\n")
	return b.String()
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header + "\n")
	for _, item := range items {
		b.WriteString("    " + item + "\n")
	}
}

type countEntry struct {
	label string
	n     int
}

func writeCounts(b *strings.Builder, header string, entries []countEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString(header + "\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("    %-22s %d\n", e.label, e.n))
	}
}

func reasonCounts(m map[model.Reason]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for reason, n := range m {
		entries = append(entries, countEntry{string(reason), n})
	}
	sortCounts(entries)
	return entries
}

func onlineCounts(m map[model.OnlineStatus]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for status, n := range m {
		entries = append(entries, countEntry{string(status), n})
	}
	sortCounts(entries)
	return entries
}

func segmentCounts(m map[model.Segment]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for segment, n := range m {
		entries = append(entries, countEntry{string(segment), n})
	}
	sortCounts(entries)
	return entries
}

// sortCounts orders by count descending, label ascending for ties, so
// the report reads biggest-bucket-first and stays deterministic.
func sortCounts(entries []countEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].label < entries[j].label
	})
}
