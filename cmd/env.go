package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/config"
	"github.com/fitcore/leadgen-cli/internal/enrich"
	"github.com/fitcore/leadgen-cli/internal/lead"
	"github.com/fitcore/leadgen-cli/internal/resilience"
	"github.com/fitcore/leadgen-cli/internal/scrape"
	"github.com/fitcore/leadgen-cli/internal/store"
	"github.com/fitcore/leadgen-cli/pkg/apify"
	"github.com/fitcore/leadgen-cli/pkg/instantly"
	"github.com/fitcore/leadgen-cli/pkg/openai"
	"github.com/fitcore/leadgen-cli/pkg/tavily"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// loadRules resolves the qualification rule set: a YAML overlay when
// configured, otherwise the strict or standard built-ins.
func loadRules() (lead.Rules, error) {
	if cfg.Rules.Path != "" {
		return lead.LoadRules(cfg.Rules.Path)
	}
	if cfg.Rules.Strict {
		return lead.StrictRules(), nil
	}
	return lead.StandardRules(), nil
}

func newApify() apify.Client {
	return apify.NewClient(cfg.Apify.Key, apify.WithBaseURL(cfg.Apify.BaseURL))
}

// newLLM builds the generation client behind a circuit breaker so a
// failing backend stops the batch quickly instead of burning quota on
// every remaining lead.
func newLLM() openai.Client {
	opts := []openai.Option{
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithTemperature(float32(cfg.OpenAI.Temperature)),
	}
	if cfg.OpenAI.RateLimit > 0 {
		opts = append(opts, openai.WithRateLimit(cfg.OpenAI.RateLimit, cfg.OpenAI.RateBurst))
	}

	cbCfg := resilience.FromCircuitConfig(cfg.OpenAI.BreakerThreshold, cfg.OpenAI.BreakerResetSecs)
	cbCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("llm circuit state changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return &breakerLLM{
		inner: openai.NewClient(cfg.OpenAI.Key, opts...),
		cb:    resilience.NewCircuitBreaker(cbCfg),
	}
}

type breakerLLM struct {
	inner openai.Client
	cb    *resilience.CircuitBreaker
}

func (b *breakerLLM) ChatJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (json.RawMessage, error) {
		return b.inner.ChatJSON(ctx, system, user)
	})
}

func (b *breakerLLM) ChatText(ctx context.Context, system, user string) (string, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (string, error) {
		return b.inner.ChatText(ctx, system, user)
	})
}

func newScraper(llm openai.Client) *scrape.Scraper {
	tc := tavily.NewClient(cfg.Tavily.Key, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	return scrape.New(tc, llm, scrape.Options{
		UseAI:      cfg.Scrape.UseAI && llm != nil,
		CrawlLimit: cfg.Tavily.CrawlLimit,
	})
}

func newEnricher(llm openai.Client) *enrich.Enricher {
	return enrich.New(llm, enrich.Options{SkipThreshold: cfg.Enrich.SkipThreshold})
}

func newOutreach() instantly.Client {
	return instantly.NewClient(cfg.Instantly.Key, instantly.WithBaseURL(cfg.Instantly.BaseURL))
}

func pollInterval(c config.ApifyConfig) time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

func pollTimeout(c config.ApifyConfig) time.Duration {
	return time.Duration(c.PollTimeoutSecs) * time.Second
}
