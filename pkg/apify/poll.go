package apify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PollOptions controls run polling.
type PollOptions struct {
	// Interval between status checks. Zero means 10s.
	Interval time.Duration
	// Timeout is the overall deadline for the run. Zero means 10m.
	// A run that is still not terminal at the deadline is a failure;
	// there is no retry.
	Timeout time.Duration
}

const (
	defaultPollInterval = 10 * time.Second
	defaultPollTimeout  = 10 * time.Minute
)

// WaitForRun polls an actor run at a fixed interval until it reaches a
// terminal status or the timeout elapses. Only a SUCCEEDED run is
// returned without error.
func WaitForRun(ctx context.Context, c Client, actorID, runID string, opts PollOptions) (*Run, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		run, err := c.GetRun(ctx, actorID, runID)
		if err != nil {
			return nil, err
		}

		if run.Terminal() {
			if run.Status != StatusSucceeded {
				return nil, eris.Errorf("apify: run %s finished with status %s", runID, run.Status)
			}
			return run, nil
		}

		zap.L().Debug("apify: run still in progress",
			zap.String("run_id", runID),
			zap.String("status", run.Status),
		)

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "apify: run %s did not finish within %s", runID, timeout)
		case <-ticker.C:
		}
	}
}

// CollectDataset pages through a dataset until a page comes back short,
// which marks the end of the items.
func CollectDataset(ctx context.Context, c Client, datasetID string, pageSize int) ([]map[string]any, error) {
	if pageSize <= 0 {
		pageSize = 500
	}

	var all []map[string]any
	for offset := 0; ; offset += pageSize {
		page, err := c.DatasetItems(ctx, datasetID, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
