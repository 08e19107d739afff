// Package native implements the free, first-line fetch backend on top of a
// plain HTTP collector. It works on unprotected sites and fails fast
// everywhere else so the chain can escalate.
package native

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

// Config tunes the native fetcher.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int
}

// Provider fetches URLs with a Colly collector.
type Provider struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New constructs a configured Colly-based fetch provider.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pagevault/1.0"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)
	if cfg.MaxBodyBytes > 0 {
		base.MaxBodySize = cfg.MaxBodyBytes
	}

	return &Provider{baseCollector: base, logger: logger}, nil
}

// Strategy names this backend in the fallback chain.
func (p *Provider) Strategy() strategy.Strategy {
	return strategy.StrategyNative
}

// Fetch retrieves a page via the configured collector. Non-2xx responses
// come back as results with their status code so the orchestrator can decide
// to advance.
func (p *Provider) Fetch(ctx context.Context, rawURL string) (scrape.FetchResult, error) {
	collector := p.baseCollector.Clone()
	resultCh := make(chan fetchOutcome, 1)
	var once sync.Once
	send := func(out fetchOutcome) {
		once.Do(func() {
			resultCh <- out
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		res := scrape.FetchResult{
			Body:       string(r.Body),
			StatusCode: r.StatusCode,
			FinalURL:   r.Request.URL.String(),
		}
		if r.Headers != nil {
			res.ContentType = r.Headers.Get("Content-Type")
		}
		send(fetchOutcome{result: res})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown collector error")
		}
		out := fetchOutcome{err: err}
		if r != nil {
			out.result.StatusCode = r.StatusCode
		}
		send(out)
	})

	if err := collector.Visit(rawURL); err != nil {
		return scrape.FetchResult{}, err
	}
	collector.Wait()

	select {
	case out := <-resultCh:
		if err := ctx.Err(); err != nil {
			return scrape.FetchResult{}, err
		}
		return out.result, out.err
	default:
		return scrape.FetchResult{}, errors.New("fetch produced no result")
	}
}

type fetchOutcome struct {
	result scrape.FetchResult
	err    error
}
