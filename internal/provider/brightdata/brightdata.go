// Package brightdata wraps the Bright Data Web Unlocker API, the heaviest
// backend in the chain for sites behind aggressive bot defenses.
package brightdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

// DefaultBaseURL is the Bright Data request endpoint.
const DefaultBaseURL = "https://api.brightdata.com"

// Config carries the API credentials, unlocker zone, and endpoint.
type Config struct {
	APIKey  string
	Zone    string
	BaseURL string
	Timeout time.Duration
}

// Provider is a thin client for Bright Data's POST /request.
type Provider struct {
	client *resty.Client
	zone   string
	logger *zap.Logger
}

// New builds the Bright Data provider. API key and zone are required.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("brightdata api key is required")
	}
	if cfg.Zone == "" {
		return nil, fmt.Errorf("brightdata zone is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Provider{client: client, zone: cfg.Zone, logger: logger}, nil
}

// Strategy names this backend in the fallback chain.
func (p *Provider) Strategy() strategy.Strategy {
	return strategy.StrategyBrightData
}

type unlockRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Fetch retrieves one URL through the unlocker. With format "raw" the
// response body is the target page itself.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (scrape.FetchResult, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(unlockRequest{Zone: p.zone, URL: rawURL, Format: "raw"}).
		Post("/request")
	if err != nil {
		return scrape.FetchResult{}, fmt.Errorf("brightdata request: %w", err)
	}
	if resp.IsError() {
		return scrape.FetchResult{}, fmt.Errorf("brightdata returned %s: %s",
			resp.Status(), truncateForLog(resp.String()))
	}
	return scrape.FetchResult{
		Body:        resp.String(),
		StatusCode:  resp.StatusCode(),
		FinalURL:    rawURL,
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}

func truncateForLog(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
