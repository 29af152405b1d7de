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
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
	Anthropic     AnthropicConfig     `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI        OpenAIConfig        `yaml:"openai" mapstructure:"openai"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Jina          JinaConfig          `yaml:"jina" mapstructure:"jina"`
	Browser       BrowserConfig       `yaml:"browser" mapstructure:"browser"`
	Extractor     ExtractorConfig     `yaml:"extractor" mapstructure:"extractor"`
	Scoring       ScoringConfig       `yaml:"scoring" mapstructure:"scoring"`
	Qualification QualificationConfig `yaml:"qualification" mapstructure:"qualification"`
	Campaign      CampaignConfig      `yaml:"campaign" mapstructure:"campaign"`
	Webhook       WebhookConfig       `yaml:"webhook" mapstructure:"webhook"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Batch         BatchConfig         `yaml:"batch" mapstructure:"batch"`
	Retry         RetryConfig         `yaml:"retry" mapstructure:"retry"`
	Salesforce    SalesforceConfig    `yaml:"salesforce" mapstructure:"salesforce"`
	Notion        NotionConfig        `yaml:"notion" mapstructure:"notion"`
	TradeShows    []TradeShowConfig   `yaml:"trade_shows" mapstructure:"trade_shows"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects the copywriting provider. Provider "none" disables LLM
// rewriting and campaigns use template text only.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BrowserConfig configures the headless browser renderer.
type BrowserConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	Headless    bool `yaml:"headless" mapstructure:"headless"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ExtractorConfig configures website evidence extraction.
type ExtractorConfig struct {
	HTTPTimeoutSecs int      `yaml:"http_timeout_secs" mapstructure:"http_timeout_secs"`
	ProbePaths      []string `yaml:"probe_paths" mapstructure:"probe_paths"`
	UserAgent       string   `yaml:"user_agent" mapstructure:"user_agent"`
}

// ScoringConfig configures PSI scoring and tiering.
type ScoringConfig struct {
	Policy        string    `yaml:"policy" mapstructure:"policy"`
	EDPConfigPath string    `yaml:"edp_config_path" mapstructure:"edp_config_path"`
	UnknownPolicy string    `yaml:"unknown_policy" mapstructure:"unknown_policy"`
	NeutralScore  float64   `yaml:"neutral_score" mapstructure:"neutral_score"`
	WeightedTiers []float64 `yaml:"weighted_tiers" mapstructure:"weighted_tiers"`
	AveragedTiers []float64 `yaml:"averaged_tiers" mapstructure:"averaged_tiers"`
	TAMTiers      []float64 `yaml:"tam_tiers" mapstructure:"tam_tiers"`
	PainThreshold float64   `yaml:"pain_threshold" mapstructure:"pain_threshold"`
}

// QualificationConfig configures the qualification scorer.
type QualificationConfig struct {
	UnknownPolicy string `yaml:"unknown_policy" mapstructure:"unknown_policy"`
	RulesPath     string `yaml:"rules_path" mapstructure:"rules_path"`
}

// CampaignConfig configures campaign generation.
type CampaignConfig struct {
	Seed          int64  `yaml:"seed" mapstructure:"seed"`
	SenderName    string `yaml:"sender_name" mapstructure:"sender_name"`
	TemplatesPath string `yaml:"templates_path" mapstructure:"templates_path"`
}

// WebhookConfig configures the outbound marketing webhook.
type WebhookConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxEvidence int    `yaml:"max_evidence" mapstructure:"max_evidence"`
}

// ServerConfig configures the inbound webhook receiver.
type ServerConfig struct {
	Port          int      `yaml:"port" mapstructure:"port"`
	MaxStored     int      `yaml:"max_stored" mapstructure:"max_stored"`
	AllowedOrigin []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures chunked batch processing.
type BatchConfig struct {
	ChunkSize      int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkDelaySecs int     `yaml:"chunk_delay_secs" mapstructure:"chunk_delay_secs"`
	CompanyDelayMS int     `yaml:"company_delay_ms" mapstructure:"company_delay_ms"`
	CheckpointPath string  `yaml:"checkpoint_path" mapstructure:"checkpoint_path"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// RetryConfig configures retries around database calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string  `yaml:"client_id" mapstructure:"client_id"`
	Username string  `yaml:"username" mapstructure:"username"`
	KeyPath  string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string  `yaml:"login_url" mapstructure:"login_url"`
	RateRPS  float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// TradeShowConfig describes one trade show: its date for urgency scoring and,
// optionally, how to scrape its exhibitor directory.
type TradeShowConfig struct {
	Name          string `yaml:"name" mapstructure:"name"`
	StartsAt      string `yaml:"starts_at" mapstructure:"starts_at"`
	URL           string `yaml:"url" mapstructure:"url"`
	ItemSelector  string `yaml:"item_selector" mapstructure:"item_selector"`
	NameSelector  string `yaml:"name_selector" mapstructure:"name_selector"`
	LinkSelector  string `yaml:"link_selector" mapstructure:"link_selector"`
	BoothSelector string `yaml:"booth_selector" mapstructure:"booth_selector"`
	NextSelector  string `yaml:"next_selector" mapstructure:"next_selector"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
	// FollowProfiles fetches exhibitor profile pages to find a website when
	// the directory row has none.
	FollowProfiles bool `yaml:"follow_profiles" mapstructure:"follow_profiles"`
}

var envOnlyKeys = []string{
	"anthropic.key",
	"openai.key",
	"openai.base_url",
	"jina.key",
	"scoring.edp_config_path",
	"qualification.rules_path",
	"campaign.templates_path",
	"webhook.url",
	"salesforce.client_id",
	"salesforce.username",
	"salesforce.key_path",
	"notion.token",
	"notion.lead_db",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GTM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "gtm.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4.1-mini")
	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.max_tokens", 600)
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout_secs", 30)
	v.SetDefault("extractor.http_timeout_secs", 10)
	v.SetDefault("extractor.probe_paths", []string{"/products", "/catalog", "/contact"})
	v.SetDefault("extractor.user_agent", "Mozilla/5.0 (compatible; GTMBot/1.0)")
	v.SetDefault("scoring.policy", "dual")
	v.SetDefault("scoring.unknown_policy", "pessimistic")
	v.SetDefault("scoring.neutral_score", 50)
	v.SetDefault("scoring.weighted_tiers", []float64{70, 40})
	v.SetDefault("scoring.averaged_tiers", []float64{60, 35})
	v.SetDefault("scoring.tam_tiers", []float64{70, 50, 30})
	v.SetDefault("scoring.pain_threshold", 60)
	v.SetDefault("qualification.unknown_policy", "pessimistic")
	v.SetDefault("campaign.seed", 42)
	v.SetDefault("campaign.sender_name", "The SuperCat Team")
	v.SetDefault("webhook.timeout_secs", 15)
	v.SetDefault("webhook.max_evidence", 10)
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_stored", 500)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.chunk_size", 50)
	v.SetDefault("batch.chunk_delay_secs", 30)
	v.SetDefault("batch.company_delay_ms", 1500)
	v.SetDefault("batch.checkpoint_path", "progress.json")
	v.SetDefault("batch.requests_per_sec", 1.0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_rps", 5)

	// Keys without a useful default are still registered so AutomaticEnv
	// reaches them through Unmarshal.
	for _, key := range envOnlyKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)

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

// Validate checks that the configuration is usable for the given command mode.
// Valid modes: analyze, campaign, serve, sync, import, scrape.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	switch c.Scoring.Policy {
	case "dual", "tam":
	default:
		errs = append(errs, "scoring.policy must be dual or tam")
	}
	for _, p := range []struct{ key, val string }{
		{"scoring.unknown_policy", c.Scoring.UnknownPolicy},
		{"qualification.unknown_policy", c.Qualification.UnknownPolicy},
	} {
		switch p.val {
		case "pessimistic", "neutral", "ignore":
		default:
			errs = append(errs, p.key+" must be pessimistic, neutral or ignore")
		}
	}
	for _, tiers := range [][]float64{c.Scoring.WeightedTiers, c.Scoring.AveragedTiers, c.Scoring.TAMTiers} {
		for _, t := range tiers {
			if t < 0 || t > 100 {
				errs = append(errs, "scoring tier thresholds must be between 0 and 100")
				break
			}
		}
	}
	if c.Scoring.NeutralScore < 0 || c.Scoring.NeutralScore > 100 {
		errs = append(errs, "scoring.neutral_score must be between 0 and 100")
	}

	switch mode {
	case "analyze", "scrape":
		if c.Batch.ChunkSize <= 0 {
			errs = append(errs, "batch.chunk_size must be > 0")
		}
	case "campaign":
		if c.Batch.ChunkSize <= 0 {
			errs = append(errs, "batch.chunk_size must be > 0")
		}
		switch c.LLM.Provider {
		case "none":
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required when llm.provider is anthropic")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				errs = append(errs, "openai.key is required when llm.provider is openai")
			}
		default:
			errs = append(errs, "llm.provider must be none, anthropic or openai")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxStored <= 0 {
			errs = append(errs, "server.max_stored must be > 0")
		}
	case "sync":
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
	case "import":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			errs = append(errs, "notion.lead_db is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
