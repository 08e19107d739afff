package scrape

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences scraping.
// All values originate from Viper so the service can be configured via
// files or env vars. The struct itself stays decoupled from Viper for
// testability.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	MaxBodyBytes    int
	DefaultMaxChars int

	StrategyConfigPath string

	ResourceBackend string
	ResourceBaseDir string

	FirecrawlAPIKey  string
	FirecrawlBaseURL string
	FirecrawlTimeout time.Duration

	BrightDataAPIKey  string
	BrightDataZone    string
	BrightDataBaseURL string
	BrightDataTimeout time.Duration

	ExtractionAPIKey  string
	ExtractionBaseURL string
	ExtractionModel   string
	ExtractionTimeout time.Duration
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		UserAgent:       v.GetString("scrape.user_agent"),
		RequestTimeout:  v.GetDuration("scrape.request_timeout"),
		MaxBodyBytes:    v.GetInt("scrape.max_body_bytes"),
		DefaultMaxChars: v.GetInt("scrape.default_max_chars"),

		StrategyConfigPath: v.GetString("strategy.config_path"),

		ResourceBackend: v.GetString("resources.backend"),
		ResourceBaseDir: v.GetString("resources.local.base_dir"),

		FirecrawlAPIKey:  v.GetString("providers.firecrawl.api_key"),
		FirecrawlBaseURL: v.GetString("providers.firecrawl.base_url"),
		FirecrawlTimeout: v.GetDuration("providers.firecrawl.timeout"),

		BrightDataAPIKey:  v.GetString("providers.brightdata.api_key"),
		BrightDataZone:    v.GetString("providers.brightdata.zone"),
		BrightDataBaseURL: v.GetString("providers.brightdata.base_url"),
		BrightDataTimeout: v.GetDuration("providers.brightdata.timeout"),

		ExtractionAPIKey:  v.GetString("extraction.api_key"),
		ExtractionBaseURL: v.GetString("extraction.base_url"),
		ExtractionModel:   v.GetString("extraction.model"),
		ExtractionTimeout: v.GetDuration("extraction.timeout"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("scrape.user_agent must be set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("scrape.request_timeout must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("scrape.max_body_bytes must be > 0")
	}
	if c.DefaultMaxChars < 0 {
		return fmt.Errorf("scrape.default_max_chars must be >= 0")
	}
	if c.StrategyConfigPath == "" {
		return fmt.Errorf("strategy.config_path must be set")
	}
	switch c.ResourceBackend {
	case "local", "memory":
	default:
		return fmt.Errorf("resources.backend must be local or memory, got %q", c.ResourceBackend)
	}
	if c.ResourceBackend == "local" && c.ResourceBaseDir == "" {
		return fmt.Errorf("resources.local.base_dir must be set for the local backend")
	}
	if c.BrightDataAPIKey != "" && c.BrightDataZone == "" {
		return fmt.Errorf("providers.brightdata.zone must be set when an api key is configured")
	}
	return nil
}
