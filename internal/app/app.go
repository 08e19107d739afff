// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/extract"
	"github.com/pagevault/pagevault/internal/logging"
	"github.com/pagevault/pagevault/internal/metrics"
	"github.com/pagevault/pagevault/internal/provider/brightdata"
	"github.com/pagevault/pagevault/internal/provider/firecrawl"
	"github.com/pagevault/pagevault/internal/provider/native"
	"github.com/pagevault/pagevault/internal/resource"
	resourcelocal "github.com/pagevault/pagevault/internal/resource/local"
	resourcememory "github.com/pagevault/pagevault/internal/resource/memory"
	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

// App holds all the shared, long-lived services for the application: the
// logger, the two stateful stores, and the orchestrator built on top of
// them. It is initialized once at startup and passed to the components that
// need it.
type App struct {
	Logger       *zap.Logger
	Config       scrape.Config
	Strategies   strategy.Store
	Resources    resource.Store
	Orchestrator *scrape.Orchestrator
}

// New creates and initializes an App from the loaded configuration. It is
// the central point for service construction and fails fast when a critical
// service cannot be built.
func New(v *viper.Viper) (*App, error) {
	logger, err := logging.New(v.GetBool("log.development"))
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	cfg, err := scrape.LoadConfig(v)
	if err != nil {
		return nil, fmt.Errorf("load scrape config: %w", err)
	}

	metrics.Init()

	strategies, err := strategy.NewMarkdownStore(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("initialize strategy store: %w", err)
	}

	var resources resource.Store
	switch cfg.ResourceBackend {
	case "memory":
		logger.Info("Using in-memory resource store; the catalog will not survive restarts.")
		resources = resourcememory.NewStore()
	default:
		logger.Info("Using local resource store", zap.String("base_dir", cfg.ResourceBaseDir))
		resources, err = resourcelocal.New(resourcelocal.Config{BaseDir: cfg.ResourceBaseDir})
		if err != nil {
			return nil, fmt.Errorf("initialize resource store: %w", err)
		}
	}

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return nil, err
	}

	var extractor scrape.Extractor
	if cfg.ExtractionAPIKey != "" && cfg.ExtractionBaseURL != "" {
		client, err := extract.NewClient(extract.Config{
			APIKey:  cfg.ExtractionAPIKey,
			BaseURL: cfg.ExtractionBaseURL,
			Model:   cfg.ExtractionModel,
			Timeout: cfg.ExtractionTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize extraction client: %w", err)
		}
		extractor = client
	} else {
		logger.Info("No extraction collaborator configured; extract requests will return cleaned content only.")
	}

	orchestrator, err := scrape.NewOrchestrator(providers, strategies, resources, extractor, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize orchestrator: %w", err)
	}

	return &App{
		Logger:       logger,
		Config:       cfg,
		Strategies:   strategies,
		Resources:    resources,
		Orchestrator: orchestrator,
	}, nil
}

// buildProviders assembles the fallback chain in cost order: native first,
// then whichever paid backends have credentials.
func buildProviders(cfg scrape.Config, logger *zap.Logger) ([]scrape.FetchProvider, error) {
	nativeProvider, err := native.New(native.Config{
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}, logging.ForStrategy(logger, string(strategy.StrategyNative)))
	if err != nil {
		return nil, fmt.Errorf("initialize native provider: %w", err)
	}
	providers := []scrape.FetchProvider{nativeProvider}

	if cfg.FirecrawlAPIKey != "" {
		fc, err := firecrawl.New(firecrawl.Config{
			APIKey:  cfg.FirecrawlAPIKey,
			BaseURL: cfg.FirecrawlBaseURL,
			Timeout: cfg.FirecrawlTimeout,
		}, logging.ForStrategy(logger, string(strategy.StrategyFirecrawl)))
		if err != nil {
			return nil, fmt.Errorf("initialize firecrawl provider: %w", err)
		}
		providers = append(providers, fc)
	} else {
		logger.Info("Firecrawl credentials not set; skipping provider.")
	}

	if cfg.BrightDataAPIKey != "" {
		bd, err := brightdata.New(brightdata.Config{
			APIKey:  cfg.BrightDataAPIKey,
			Zone:    cfg.BrightDataZone,
			BaseURL: cfg.BrightDataBaseURL,
			Timeout: cfg.BrightDataTimeout,
		}, logging.ForStrategy(logger, string(strategy.StrategyBrightData)))
		if err != nil {
			return nil, fmt.Errorf("initialize brightdata provider: %w", err)
		}
		providers = append(providers, bd)
	} else {
		logger.Info("Bright Data credentials not set; skipping provider.")
	}

	return providers, nil
}

// Close flushes the logger. The stores hold no connections to tear down.
func (a *App) Close() {
	if err := a.Logger.Sync(); err != nil {
		// Best-effort flush; stderr sync commonly fails on some platforms.
		_ = err
	}
}
