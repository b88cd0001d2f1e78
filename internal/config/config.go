// Package config loads application configuration from an optional
// config.yaml plus LEADGEN_-prefixed environment variables, and owns
// global logger initialization.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Apify     ApifyConfig     `yaml:"apify" mapstructure:"apify"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Instantly InstantlyConfig `yaml:"instantly" mapstructure:"instantly"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ApifyConfig holds Apify actor settings for lead and profile scraping.
type ApifyConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	LeadActor        string `yaml:"lead_actor" mapstructure:"lead_actor"`
	PollIntervalSecs int    `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollTimeoutSecs  int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	RetryAttempts    int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs   int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// TavilyConfig holds Tavily crawl and extract settings.
type TavilyConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	CrawlLimit int    `yaml:"crawl_limit" mapstructure:"crawl_limit"`
}

// OpenAIConfig holds the generation backend settings.
type OpenAIConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	// BreakerThreshold and BreakerResetSecs tune the circuit breaker
	// guarding generation calls.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// InstantlyConfig holds outreach campaign settings.
type InstantlyConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	CampaignID string `yaml:"campaign_id" mapstructure:"campaign_id"`
}

// RulesConfig configures qualification rules.
type RulesConfig struct {
	// Path points to a YAML rules overlay. Empty means built-in defaults.
	Path string `yaml:"path" mapstructure:"path"`
	// Strict requires a positive coaching signal to qualify.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// ScrapeConfig configures the website scrape stage.
type ScrapeConfig struct {
	UseAI       bool `yaml:"use_ai" mapstructure:"use_ai"`
	Concurrency int  `yaml:"concurrency" mapstructure:"concurrency"`
}

// EnrichConfig configures microcopy generation.
type EnrichConfig struct {
	SkipThreshold int `yaml:"skip_threshold" mapstructure:"skip_threshold"`
	Concurrency   int `yaml:"concurrency" mapstructure:"concurrency"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	LeadsPerCity int      `yaml:"leads_per_city" mapstructure:"leads_per_city"`
	Cities       []string `yaml:"cities" mapstructure:"cities"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.lead_actor", "code_crafter/apollo-io-scraper")
	v.SetDefault("apify.poll_interval_secs", 10)
	v.SetDefault("apify.poll_timeout_secs", 600)
	v.SetDefault("apify.retry_attempts", 3)
	v.SetDefault("apify.retry_backoff_ms", 1000)
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.crawl_limit", 5)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.rate_limit", 2.0)
	v.SetDefault("openai.rate_burst", 4)
	v.SetDefault("openai.breaker_threshold", 5)
	v.SetDefault("openai.breaker_reset_secs", 30)
	v.SetDefault("instantly.base_url", "https://api.instantly.ai/api/v2")
	v.SetDefault("scrape.concurrency", 10)
	v.SetDefault("enrich.skip_threshold", 4)
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("batch.leads_per_city", 100)
	v.SetDefault("batch.cities", []string{
		"Austin", "Miami", "Denver", "Nashville", "San Diego",
		"Phoenix", "Dallas", "Tampa", "Charlotte", "Scottsdale",
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that credentials required by the requested operations
// are present. Keys are only required for the stages that use them.
func (c *Config) Validate(needApify, needTavily, needOpenAI, needInstantly bool) error {
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required for the postgres driver")
	}
	if needApify && c.Apify.Key == "" {
		return eris.New("config: apify.key is required (set LEADGEN_APIFY_KEY)")
	}
	if needTavily && c.Tavily.Key == "" {
		return eris.New("config: tavily.key is required (set LEADGEN_TAVILY_KEY)")
	}
	if needOpenAI && c.OpenAI.Key == "" {
		return eris.New("config: openai.key is required (set LEADGEN_OPENAI_KEY)")
	}
	if needInstantly {
		if c.Instantly.Key == "" {
			return eris.New("config: instantly.key is required (set LEADGEN_INSTANTLY_KEY)")
		}
		if c.Instantly.CampaignID == "" {
			return eris.New("config: instantly.campaign_id is required")
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
