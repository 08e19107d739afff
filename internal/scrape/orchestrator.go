package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/filter"
	"github.com/pagevault/pagevault/internal/metrics"
	"github.com/pagevault/pagevault/internal/resource"
	"github.com/pagevault/pagevault/internal/strategy"
)

// Orchestrator answers a single scrape request end to end: pick a strategy,
// walk the fallback chain, clean and optionally extract the result, persist
// the stages, and record the winning strategy.
type Orchestrator struct {
	providers  []FetchProvider
	strategies strategy.Store
	resources  resource.Store
	extractor  Extractor
	logger     *zap.Logger
}

// NewOrchestrator wires the orchestrator with its collaborators. Providers
// must be given in fallback order (cheapest first). The extractor may be nil
// when no extraction collaborator is configured.
func NewOrchestrator(
	providers []FetchProvider,
	strategies strategy.Store,
	resources resource.Store,
	extractor Extractor,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one fetch provider is required")
	}
	if strategies == nil || resources == nil {
		return nil, fmt.Errorf("strategy store and resource store are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		providers:  providers,
		strategies: strategies,
		resources:  resources,
		extractor:  extractor,
		logger:     logger,
	}, nil
}

// Scrape runs the fallback state machine for one URL. Chain exhaustion comes
// back as a Result with Success=false plus a *ChainExhaustedError; nothing
// is persisted in that case.
func (o *Orchestrator) Scrape(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.URL) == "" {
		err := &ValidationError{Field: "url", Reason: "is required"}
		return Result{Success: false, Error: err.Error()}, err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	fetched, used, attempted, lastErr := o.runChain(ctx, req.URL)
	if used == "" {
		err := &ChainExhaustedError{URL: req.URL, Attempted: attempted, LastErr: lastErr}
		metrics.ObserveChainExhausted(req.URL)
		o.logger.Warn("fetch chain exhausted",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return Result{Success: false, Attempted: attempted, Error: err.Error()}, err
	}

	o.rememberStrategy(ctx, req.URL, used)

	return o.finish(ctx, req, fetched, used, attempted)
}

// runChain tries the remembered strategy first, then the remaining providers
// in cost order. Individual failures are absorbed; only the last error
// survives for the exhaustion report.
func (o *Orchestrator) runChain(ctx context.Context, rawURL string) (FetchResult, strategy.Strategy, []strategy.Strategy, error) {
	order := o.attemptOrder(ctx, rawURL)

	var attempted []strategy.Strategy
	var lastErr error
	for _, p := range order {
		name := p.Strategy()
		attempted = append(attempted, name)

		res, err := p.Fetch(ctx, rawURL)
		switch {
		case err != nil:
			lastErr = err
		case !res.OK():
			lastErr = fmt.Errorf("strategy %s returned status %d with %d bytes",
				name, res.StatusCode, len(res.Body))
		default:
			metrics.ObserveAttempt(string(name), "success")
			return res, name, attempted, nil
		}

		metrics.ObserveAttempt(string(name), "failure")
		o.logger.Info("fetch attempt failed, advancing",
			zap.String("url", rawURL),
			zap.String("strategy", string(name)),
			zap.Error(lastErr),
		)
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			break
		}
	}
	return FetchResult{}, "", attempted, lastErr
}

// attemptOrder moves the remembered strategy (if any) to the front of the
// configured chain without attempting any provider twice.
func (o *Orchestrator) attemptOrder(ctx context.Context, rawURL string) []FetchProvider {
	remembered, ok, err := o.strategies.StrategyForURL(ctx, rawURL)
	if err != nil {
		// A broken config store must not block scraping.
		o.logger.Warn("strategy lookup failed", zap.String("url", rawURL), zap.Error(err))
		ok = false
	}
	if !ok {
		return o.providers
	}

	order := make([]FetchProvider, 0, len(o.providers))
	for _, p := range o.providers {
		if p.Strategy() == remembered {
			order = append(order, p)
			break
		}
	}
	if len(order) == 0 {
		// Remembered strategy is not configured anymore; fall back to the chain.
		return o.providers
	}
	for _, p := range o.providers {
		if p.Strategy() != remembered {
			order = append(order, p)
		}
	}
	return order
}

func (o *Orchestrator) rememberStrategy(ctx context.Context, rawURL string, used strategy.Strategy) {
	prefix, ok := strategy.PrefixForURL(rawURL)
	if !ok {
		return
	}
	err := o.strategies.Upsert(ctx, strategy.Entry{
		Prefix:          prefix,
		DefaultStrategy: used,
		Notes:           "auto-learned",
	})
	if err != nil {
		// Losing the hint only costs speed on the next scrape.
		o.logger.Warn("strategy upsert failed",
			zap.String("prefix", prefix),
			zap.Error(err),
		)
	}
}

// finish cleans, optionally extracts, persists, and shapes the response.
func (o *Orchestrator) finish(ctx context.Context, req Request, fetched FetchResult, used strategy.Strategy, attempted []strategy.Strategy) (Result, error) {
	contentType := filter.DetectContentType(fetched.Body)
	f := filter.New(contentType, filter.Options{
		MaxChars:        req.MaxChars,
		OnlyMainContent: req.OnlyMainContent,
	})
	cleaned := f.Apply(fetched.Body, req.URL)

	var extracted string
	if req.ExtractPrompt != "" && o.extractor != nil {
		out, err := o.extractor.Extract(ctx, cleaned, req.ExtractPrompt)
		if err != nil {
			// Extraction is best-effort; the cleaned stage still answers.
			o.logger.Warn("extraction failed",
				zap.String("url", req.URL),
				zap.Error(err),
			)
		} else {
			extracted = out
		}
	}

	result := Result{
		Content:      cleaned,
		StrategyUsed: used,
		Attempted:    attempted,
		Success:      true,
	}
	if extracted != "" {
		result.Content = filter.Truncate(extracted, req.MaxChars)
	}

	if req.SaveResult {
		uris, err := o.resources.WriteMulti(ctx, resource.MultiWrite{
			URL:              req.URL,
			Raw:              fetched.Body,
			RawContentType:   rawMimeType(contentType, fetched.ContentType),
			Cleaned:          cleaned,
			Extracted:        extracted,
			ExtractionPrompt: req.ExtractPrompt,
			Title:            filter.Title(fetched.Body),
			Description:      filter.Description(fetched.Body),
		})
		if err != nil {
			o.logger.Error("resource write failed",
				zap.String("url", req.URL),
				zap.Error(err),
			)
			return Result{Success: false, Attempted: attempted, Error: err.Error()}, err
		}
		result.Resources = uris
		metrics.ObserveStored(req.URL)
	}

	return result, nil
}

// rawMimeType prefers the server's content-type header, falling back to the
// detected type.
func rawMimeType(detected filter.ContentType, header string) string {
	if header != "" {
		if i := strings.Index(header, ";"); i >= 0 {
			header = header[:i]
		}
		return strings.TrimSpace(header)
	}
	switch detected {
	case filter.TypeJSON:
		return "application/json"
	case filter.TypeXML:
		return "application/xml"
	case filter.TypeHTML:
		return "text/html"
	default:
		return "text/plain"
	}
}
