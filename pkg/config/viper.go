// Package config is responsible for initializing the application's
// configuration. It uses the Viper library to read settings from a config
// file and environment variables, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. It is designed to be called once at
// application startup.
func InitConfig(logger *zap.Logger) {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/pagevault/")
	viper.AddConfigPath("$HOME/.pagevault")

	// Service defaults.
	viper.SetDefault("server.listen_addr", ":8080")
	viper.SetDefault("log.development", false)

	// Scrape pipeline defaults.
	viper.SetDefault("scrape.user_agent", "pagevault/1.0 (+https://github.com/pagevault/pagevault)")
	viper.SetDefault("scrape.request_timeout", "15s")
	viper.SetDefault("scrape.max_body_bytes", 10*1024*1024)
	viper.SetDefault("scrape.default_max_chars", 0)

	// Learned strategy table.
	viper.SetDefault("strategy.config_path", "data/scraping-strategies.md")

	// Resource catalog.
	viper.SetDefault("resources.backend", "local")
	viper.SetDefault("resources.local.base_dir", "data/resources")

	// Paid providers; disabled until credentials are supplied.
	viper.SetDefault("providers.firecrawl.api_key", "")
	viper.SetDefault("providers.firecrawl.base_url", "")
	viper.SetDefault("providers.firecrawl.timeout", "60s")
	viper.SetDefault("providers.brightdata.api_key", "")
	viper.SetDefault("providers.brightdata.zone", "")
	viper.SetDefault("providers.brightdata.base_url", "")
	viper.SetDefault("providers.brightdata.timeout", "90s")

	// Extraction collaborator.
	viper.SetDefault("extraction.api_key", "")
	viper.SetDefault("extraction.base_url", "")
	viper.SetDefault("extraction.model", "gpt-4o-mini")
	viper.SetDefault("extraction.timeout", "120s")

	// e.g. PAGEVAULT_PROVIDERS_FIRECRAWL_API_KEY=...
	viper.SetEnvPrefix("PAGEVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logger.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logger.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
