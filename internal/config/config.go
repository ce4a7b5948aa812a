package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Shanghai"

	configPathEnv      = "NEWS_PIPELINE_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	deepSeekAPIKeyEnv  = "DEEPSEEK_API_KEY"
	deepSeekModelEnv   = "DEEPSEEK_MODEL"
	alertWebhookEnv    = "ALERT_WEBHOOK_URL"
	storePathEnv       = "ARTIFACT_STORE_PATH"
	crawlerToolEnv     = "CRAWLER_TOOL_PATH"
	deployCommandEnv   = "DEPLOY_COMMAND"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Schedules ScheduleConfig  `yaml:"schedules"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	DeepSeek  DeepSeekConfig  `yaml:"deepseek"`
	Alerts    AlertConfig     `yaml:"alerts"`
	Deploy    DeployConfig    `yaml:"deploy"`
	Publish   PublishConfig   `yaml:"publish"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PipelineConfig carries the orchestration knobs: branch names, the fixed
// timezone every date key is derived in, and the stage retry policy.
type PipelineConfig struct {
	Timezone        string         `yaml:"timezone"`
	ProducerBranch  string         `yaml:"producerBranch"`
	PublishedBranch string         `yaml:"publishedBranch"`
	MaxAttempts     int            `yaml:"maxAttempts"`
	RetryInterval   string         `yaml:"retryInterval"`
	location        *time.Location `yaml:"-"`
}

// Location resolves the pipeline timezone string to a time.Location.
func (p PipelineConfig) Location() *time.Location {
	if p.location != nil {
		return p.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// RetryDelay parses the fixed inter-attempt delay; malformed values fall back
// to one minute.
func (p PipelineConfig) RetryDelay() time.Duration {
	d, err := time.ParseDuration(p.RetryInterval)
	if err != nil || d < 0 {
		return time.Minute
	}
	return d
}

// ScheduleConfig defines cron expressions for the periodic jobs.
type ScheduleConfig struct {
	DateChecker string `yaml:"dateChecker"`
	HealthCheck string `yaml:"healthCheck"`
	Cleanup     string `yaml:"cleanup"`
}

// StoreConfig describes the artifact store backend. An empty path selects the
// in-memory store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig describes Postgres connection details for the run journal.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// CrawlerConfig wires the news source. When ToolPath is set the external
// crawler CLI is used instead of the built-in adapters.
type CrawlerConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	ToolPath string `yaml:"toolPath"`
}

// DeepSeekConfig defines how to contact the summarization API.
type DeepSeekConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	Temperature  float64 `yaml:"temperature"`
	SystemPrompt string  `yaml:"systemPrompt"`
}

// AlertConfig wires the outbound alert channel.
type AlertConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// DeployConfig describes the site build-and-publish command and its
// wall-clock budget.
type DeployConfig struct {
	Command string `yaml:"command"`
	Timeout string `yaml:"timeout"`
}

// Budget parses the deploy timeout; malformed values fall back to ten minutes.
func (d DeployConfig) Budget() time.Duration {
	t, err := time.ParseDuration(d.Timeout)
	if err != nil || t <= 0 {
		return 10 * time.Minute
	}
	return t
}

// PublishConfig holds the fixed publish-tree targets consumed by the site
// build.
type PublishConfig struct {
	NewslistPath string `yaml:"newslistPath"`
	SummaryPath  string `yaml:"summaryPath"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(deepSeekAPIKeyEnv); v != "" {
		c.DeepSeek.APIKey = v
	}

	if v := os.Getenv(deepSeekModelEnv); v != "" {
		c.DeepSeek.Model = v
	}

	if v := os.Getenv(alertWebhookEnv); v != "" {
		c.Alerts.WebhookURL = v
	}

	if v := os.Getenv(storePathEnv); v != "" {
		c.Store.Path = v
	}

	if v := os.Getenv(crawlerToolEnv); v != "" {
		c.Crawler.ToolPath = v
	}

	if v := os.Getenv(deployCommandEnv); v != "" {
		c.Deploy.Command = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Pipeline.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Pipeline.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Pipeline.Timezone != "" {
		base.Pipeline.Timezone = override.Pipeline.Timezone
	}
	if override.Pipeline.ProducerBranch != "" {
		base.Pipeline.ProducerBranch = override.Pipeline.ProducerBranch
	}
	if override.Pipeline.PublishedBranch != "" {
		base.Pipeline.PublishedBranch = override.Pipeline.PublishedBranch
	}
	if override.Pipeline.MaxAttempts > 0 {
		base.Pipeline.MaxAttempts = override.Pipeline.MaxAttempts
	}
	if override.Pipeline.RetryInterval != "" {
		base.Pipeline.RetryInterval = override.Pipeline.RetryInterval
	}

	if override.Schedules.DateChecker != "" {
		base.Schedules.DateChecker = override.Schedules.DateChecker
	}
	if override.Schedules.HealthCheck != "" {
		base.Schedules.HealthCheck = override.Schedules.HealthCheck
	}
	if override.Schedules.Cleanup != "" {
		base.Schedules.Cleanup = override.Schedules.Cleanup
	}

	if override.Store.Path != "" {
		base.Store = override.Store
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Crawler.BaseURL != "" {
		base.Crawler.BaseURL = override.Crawler.BaseURL
	}
	if override.Crawler.ToolPath != "" {
		base.Crawler.ToolPath = override.Crawler.ToolPath
	}

	if override.DeepSeek.Endpoint != "" {
		base.DeepSeek.Endpoint = override.DeepSeek.Endpoint
	}
	if override.DeepSeek.Model != "" {
		base.DeepSeek.Model = override.DeepSeek.Model
	}
	if override.DeepSeek.APIKey != "" {
		base.DeepSeek.APIKey = override.DeepSeek.APIKey
	}
	if override.DeepSeek.Temperature > 0 {
		base.DeepSeek.Temperature = override.DeepSeek.Temperature
	}
	if override.DeepSeek.SystemPrompt != "" {
		base.DeepSeek.SystemPrompt = override.DeepSeek.SystemPrompt
	}

	if override.Alerts.WebhookURL != "" {
		base.Alerts = override.Alerts
	}

	if override.Deploy.Command != "" {
		base.Deploy.Command = override.Deploy.Command
	}
	if override.Deploy.Timeout != "" {
		base.Deploy.Timeout = override.Deploy.Timeout
	}

	if override.Publish.NewslistPath != "" {
		base.Publish.NewslistPath = override.Publish.NewslistPath
	}
	if override.Publish.SummaryPath != "" {
		base.Publish.SummaryPath = override.Publish.SummaryPath
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Pipeline: PipelineConfig{
			Timezone:        defaultTimezone,
			ProducerBranch:  "news-data",
			PublishedBranch: "main",
			MaxAttempts:     3,
			RetryInterval:   "1m",
			location:        tz,
		},
		Schedules: ScheduleConfig{
			DateChecker: "*/30 * * * *",
			HealthCheck: "*/30 * * * *",
			Cleanup:     "0 * * * *",
		},
		Store:    StoreConfig{Path: ""},
		Database: DatabaseConfig{DSN: ""},
		Crawler: CrawlerConfig{
			BaseURL: "http://paper.people.com.cn/rmrb/pc/layout",
		},
		DeepSeek: DeepSeekConfig{
			Endpoint:     "https://api.deepseek.com/chat/completions",
			Model:        "deepseek-chat",
			Temperature:  0.3,
			SystemPrompt: "You are a news digest assistant. Extract the key facts of the article and produce a concise summary.",
		},
		Alerts: AlertConfig{WebhookURL: ""},
		Deploy: DeployConfig{
			Command: "npm run docs:build",
			Timeout: "10m",
		},
		Publish: PublishConfig{
			NewslistPath: "docs/news/newslist.md",
			SummaryPath:  "docs/news/summary.md",
		},
	}
}
