package model

import "time"

// Stage names for the batch pipeline, in execution order.
const (
	StageFetching      = "fetching"
	StageNormalizing   = "normalizing"
	StageDeduplicating = "deduplicating"
	StageQualifying    = "qualifying"
	StageScoring       = "scoring"
	StageScraping      = "scraping"
	StageEnriching     = "enriching"
	StagePersisting    = "persisting"
	StagePushing       = "pushing"
	StageReporting     = "reporting"
)

// BatchReport is the terminal summary of one pipeline run. It is always
// produced, even on partial failure, so operators can diagnose from
// counts rather than stack traces.
type BatchReport struct {
	BatchID    string    `json:"batch_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	RawCount       int `json:"raw_count"`
	DupesExisting  int `json:"dupes_existing"`
	DupesInBatch   int `json:"dupes_in_batch"`
	QualifiedCount int `json:"qualified_count"`

	// Rejection counts bucketed by Reason (without detail).
	Rejections map[Reason]int `json:"rejections"`

	// A few example leads from each side of the gate, in input order,
	// shown on audit output.
	SampleQualified []string `json:"sample_qualified,omitempty"`
	SampleRejected  []string `json:"sample_rejected,omitempty"`

	OnlineCounts  map[OnlineStatus]int `json:"online_counts"`
	SegmentCounts map[Segment]int      `json:"segment_counts"`

	Inserted      int `json:"inserted"`
	SkippedUpsert int `json:"skipped_upsert"`

	Scraped  int `json:"scraped"`
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"` // enriched but below the confidence gate
	Pushed   int `json:"pushed"`
	Errors   int `json:"errors"`

	DryRun    bool `json:"dry_run"`
	AuditOnly bool `json:"audit_only"`
}

// NewBatchReport initializes a report with empty count maps.
func NewBatchReport(batchID string) *BatchReport {
	return &BatchReport{
		BatchID:       batchID,
		StartedAt:     time.Now().UTC(),
		Rejections:    make(map[Reason]int),
		OnlineCounts:  make(map[OnlineStatus]int),
		SegmentCounts: make(map[Segment]int),
	}
}

// TotalRejected sums all rejection buckets.
func (r *BatchReport) TotalRejected() int {
	total := 0
	for _, n := range r.Rejections {
		total += n
	}
	return total
}
