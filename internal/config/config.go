package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Archive   ArchiveConfig   `yaml:"archive" mapstructure:"archive"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Temporal  TemporalConfig  `yaml:"temporal" mapstructure:"temporal"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PipelineConfig bounds a single profile run.
type PipelineConfig struct {
	RunBudgetSecs   int `yaml:"run_budget_secs" mapstructure:"run_budget_secs"`
	LinkTimeoutSecs int `yaml:"link_timeout_secs" mapstructure:"link_timeout_secs"`
	MaxLinks        int `yaml:"max_links" mapstructure:"max_links"`
	MaxCandidates   int `yaml:"max_candidates" mapstructure:"max_candidates"`
	MinTextChars    int `yaml:"min_text_chars" mapstructure:"min_text_chars"`
	ListCap         int `yaml:"list_cap" mapstructure:"list_cap"`
	JobTimeoutSecs  int `yaml:"job_timeout_secs" mapstructure:"job_timeout_secs"`
}

// FetchConfig configures page retrieval.
type FetchConfig struct {
	Backend       string   `yaml:"backend" mapstructure:"backend"` // "browser" or "http"
	UserAgent     string   `yaml:"user_agent" mapstructure:"user_agent"`
	ExcludePaths  []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	MaxBodyKB     int      `yaml:"max_body_kb" mapstructure:"max_body_kb"`
	RatePerHost   float64  `yaml:"rate_per_host" mapstructure:"rate_per_host"`
	ChromePath    string   `yaml:"chrome_path" mapstructure:"chrome_path"`
	SettleMs      int      `yaml:"settle_ms" mapstructure:"settle_ms"`
	MaxChars      int      `yaml:"max_chars" mapstructure:"max_chars"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "anthropic" or "openai"
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings (fallback fetcher).
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (last-resort fetcher).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GoogleConfig holds Google API keys for enrichment.
type GoogleConfig struct {
	PlacesKey  string `yaml:"places_key" mapstructure:"places_key"`
	YouTubeKey string `yaml:"youtube_key" mapstructure:"youtube_key"`
}

// EnrichConfig configures post-consolidation enrichment.
type EnrichConfig struct {
	PhoneRegion string `yaml:"phone_region" mapstructure:"phone_region"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	MaxVideos   int    `yaml:"max_videos" mapstructure:"max_videos"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ArchiveConfig configures the optional S3-compatible profile archive.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
}

// NotionConfig holds Notion API credentials for the seed queue.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	SeedDB string `yaml:"seed_db" mapstructure:"seed_db"`
}

// TemporalConfig configures the background job queue.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
}

// PricingConfig holds per-model token pricing keyed by model name.
type PricingConfig struct {
	Models map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// RetryConfig configures retries of transient model and fetch errors.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxInflight int      `yaml:"max_inflight" mapstructure:"max_inflight"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.run_budget_secs", 150)
	v.SetDefault("pipeline.link_timeout_secs", 45)
	v.SetDefault("pipeline.max_links", 7)
	v.SetDefault("pipeline.max_candidates", 150)
	v.SetDefault("pipeline.min_text_chars", 50)
	v.SetDefault("pipeline.list_cap", 20)
	v.SetDefault("pipeline.job_timeout_secs", 600)
	v.SetDefault("fetch.backend", "browser")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; profile-cli/1.0)")
	v.SetDefault("fetch.exclude_paths", []string{"/blog/*", "/news/*", "/press/*", "/careers/*"})
	v.SetDefault("fetch.cache_ttl_hours", 24)
	v.SetDefault("fetch.max_body_kb", 2048)
	v.SetDefault("fetch.rate_per_host", 2)
	v.SetDefault("fetch.settle_ms", 500)
	v.SetDefault("fetch.max_chars", 40000)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("enrich.phone_region", "US")
	v.SetDefault("enrich.max_attempts", 3)
	v.SetDefault("enrich.max_videos", 2)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "profiles.db")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "company-profiles")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_inflight", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pricing.models.claude-haiku-4-5-20251001.input", 1.0)
	v.SetDefault("pricing.models.claude-haiku-4-5-20251001.output", 5.0)
	v.SetDefault("pricing.models.claude-haiku-4-5-20251001.cache_write_mul", 1.25)
	v.SetDefault("pricing.models.claude-haiku-4-5-20251001.cache_read_mul", 0.1)
	v.SetDefault("pricing.models.gpt-4o-mini.input", 0.15)
	v.SetDefault("pricing.models.gpt-4o-mini.output", 0.6)
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

// Validate checks that everything the given command mode needs is present
// and reports every problem at once. Modes: run, serve, worker, dispatch.
func (c *Config) Validate(mode string) error {
	switch mode {
	case "run", "serve", "worker", "dispatch":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	var problems []string
	need := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	if mode != "dispatch" {
		switch c.LLM.Provider {
		case "anthropic":
			need(c.Anthropic.Key != "", "anthropic.key is required")
		case "openai":
			need(c.OpenAI.Key != "", "openai.key is required")
		default:
			problems = append(problems, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
		}
		need(c.Fetch.Backend == "browser" || c.Fetch.Backend == "http",
			fmt.Sprintf("fetch.backend %q must be browser or http", c.Fetch.Backend))
		need(c.Pipeline.RunBudgetSecs > 0, "pipeline.run_budget_secs must be positive")
		need(c.Pipeline.LinkTimeoutSecs > 0, "pipeline.link_timeout_secs must be positive")
		need(c.Pipeline.MaxLinks > 0, "pipeline.max_links must be positive")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		need(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	switch mode {
	case "serve":
		need(c.Server.Port > 0, "server.port must be positive")
	case "worker", "dispatch":
		need(c.Temporal.HostPort != "", "temporal.host_port is required")
		need(c.Temporal.TaskQueue != "", "temporal.task_queue is required")
	}

	if c.Archive.Bucket != "" {
		need(c.Archive.Region != "", "archive.region is required when archive.bucket is set")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
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
