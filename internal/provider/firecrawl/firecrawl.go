// Package firecrawl wraps the Firecrawl scrape API, the mid-tier paid
// backend for sites the native fetcher cannot reach.
package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

// DefaultBaseURL is the hosted Firecrawl endpoint.
const DefaultBaseURL = "https://api.firecrawl.dev"

// Config carries the API credentials and endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Provider is a thin client for Firecrawl's POST /v1/scrape.
type Provider struct {
	client *resty.Client
	logger *zap.Logger
}

// New builds the Firecrawl provider. The API key is required.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("firecrawl api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Provider{client: client, logger: logger}, nil
}

// Strategy names this backend in the fallback chain.
func (p *Provider) Strategy() strategy.Strategy {
	return strategy.StrategyFirecrawl
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		HTML     string `json:"html,omitempty"`
		Markdown string `json:"markdown,omitempty"`
		Metadata struct {
			StatusCode int    `json:"statusCode,omitempty"`
			SourceURL  string `json:"sourceURL,omitempty"`
		} `json:"metadata"`
	} `json:"data"`
}

// Fetch scrapes one URL through the Firecrawl API. The raw HTML rendition is
// preferred so the local filter pipeline stays in charge of cleaning.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (scrape.FetchResult, error) {
	var out scrapeResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(scrapeRequest{URL: rawURL, Formats: []string{"html", "markdown"}}).
		SetResult(&out).
		Post("/v1/scrape")
	if err != nil {
		return scrape.FetchResult{}, fmt.Errorf("firecrawl request: %w", err)
	}
	if resp.IsError() {
		return scrape.FetchResult{}, fmt.Errorf("firecrawl returned %s", resp.Status())
	}
	if !out.Success {
		return scrape.FetchResult{}, fmt.Errorf("firecrawl scrape failed: %s", out.Error)
	}

	body := out.Data.HTML
	contentType := "text/html"
	if body == "" {
		body = out.Data.Markdown
		contentType = "text/markdown"
	}
	status := out.Data.Metadata.StatusCode
	if status == 0 {
		status = resp.StatusCode()
	}
	finalURL := out.Data.Metadata.SourceURL
	if finalURL == "" {
		finalURL = rawURL
	}
	return scrape.FetchResult{
		Body:        body,
		StatusCode:  status,
		FinalURL:    finalURL,
		ContentType: contentType,
	}, nil
}
