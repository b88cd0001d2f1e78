package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/resilience"
	"github.com/fitcore/leadgen-cli/pkg/apify"
)

// secondsPerLead sizes the per-city poll timeout: email verification on
// the actor side takes roughly this long per lead.
const secondsPerLead = 12

// fetchRaw gathers raw lead items, either by resuming from an existing
// dataset or by running the lead actor once per city.
func (p *Pipeline) fetchRaw(ctx context.Context) ([]map[string]any, error) {
	if p.opts.DatasetID != "" {
		zap.L().Info("pipeline: resuming from dataset", zap.String("dataset_id", p.opts.DatasetID))
		items, err := apify.CollectDataset(ctx, p.apify, p.opts.DatasetID, 500)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: fetch dataset")
		}
		return items, nil
	}

	var all []map[string]any
	for _, city := range p.opts.Cities {
		items, err := p.fetchCity(ctx, city)
		if err != nil {
			// A failed city costs its leads, not the batch.
			zap.L().Error("pipeline: city fetch failed",
				zap.String("city", city),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("pipeline: city fetched",
			zap.String("city", city),
			zap.Int("leads", len(items)),
		)
		all = append(all, items...)
	}
	return all, nil
}

func (p *Pipeline) fetchCity(ctx context.Context, city string) ([]map[string]any, error) {
	input := map[string]any{
		"fetch_count":       p.opts.LeadsPerCity,
		"contact_job_title": jobTitles,
		"contact_city":      []string{strings.ToLower(city)},
		"company_industry":  []string{"health, wellness & fitness"},
		"size":              []string{"1-10", "11-20", "21-50"},
		"email_status":      []string{"validated"},
	}

	run, err := resilience.DoVal(ctx, startRunRetry(p.opts.StartRetry), func(ctx context.Context) (*apify.Run, error) {
		return p.apify.StartRun(ctx, p.opts.LeadActor, input)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: start actor for %s", city)
	}

	timeout := p.opts.PollTimeout
	if perCity := time.Duration(p.opts.LeadsPerCity*secondsPerLead) * time.Second; perCity > timeout {
		timeout = perCity
	}

	// A run that times out is a failure; there is no retry of the run
	// itself, only of the initial start request.
	finished, err := apify.WaitForRun(ctx, p.apify, p.opts.LeadActor, run.ID, apify.PollOptions{
		Interval: p.opts.PollInterval,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, err
	}

	return apify.CollectDataset(ctx, p.apify, finished.DatasetID, 500)
}

func startRunRetry(base resilience.RetryConfig) resilience.RetryConfig {
	cfg := base
	if cfg.MaxAttempts == 0 {
		cfg = resilience.DefaultRetryConfig()
	}
	cfg.OnRetry = resilience.RetryLogger("apify", "start_run")
	cfg.ShouldRetry = func(err error) bool {
		var apiErr *apify.APIError
		if errors.As(err, &apiErr) {
			return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
		}
		return resilience.IsTransient(err)
	}
	return cfg
}
