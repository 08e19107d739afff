// Package scrape implements the strategy-learning fetch orchestrator: try
// backends in cost order, remember what worked, and persist the layered
// result.
package scrape

import (
	"context"
	"time"

	"github.com/pagevault/pagevault/internal/resource"
	"github.com/pagevault/pagevault/internal/strategy"
)

// FetchResult is what a fetch backend hands back on success.
type FetchResult struct {
	Body        string
	StatusCode  int
	FinalURL    string
	ContentType string
}

// OK reports whether the attempt counts as a success: a 2xx status (or no
// status at all, for providers that only signal via error) and a non-empty
// body.
func (r FetchResult) OK() bool {
	if r.Body == "" {
		return false
	}
	return r.StatusCode == 0 || (r.StatusCode >= 200 && r.StatusCode < 300)
}

// FetchProvider is one fetch backend in the fallback chain.
type FetchProvider interface {
	Fetch(ctx context.Context, rawURL string) (FetchResult, error)
	Strategy() strategy.Strategy
}

// Extractor is the external collaborator that reduces cleaned content to an
// answer for a natural-language prompt.
type Extractor interface {
	Extract(ctx context.Context, content, prompt string) (string, error)
}

// Request is one "fetch this URL" call.
type Request struct {
	URL string `json:"url"`
	// MaxChars bounds the inline content returned to the caller and the
	// cleaned stage; zero means unbounded.
	MaxChars int `json:"max_chars,omitempty"`
	// ExtractPrompt, when set, additionally produces an extracted stage via
	// the extraction collaborator.
	ExtractPrompt string `json:"extract,omitempty"`
	// SaveResult persists the stages to the resource catalog.
	SaveResult bool `json:"save_result,omitempty"`
	// OnlyMainContent restricts HTML cleaning to the main content region.
	OnlyMainContent bool `json:"only_main_content,omitempty"`
	// Timeout bounds the whole scrape including all fallback attempts;
	// zero leaves only the per-backend timeouts in force.
	Timeout time.Duration `json:"-"`
}

// Result is the outcome of one scrape.
type Result struct {
	Content      string             `json:"content,omitempty"`
	Resources    resource.MultiURIs `json:"resources,omitempty"`
	StrategyUsed strategy.Strategy  `json:"strategy_used,omitempty"`
	Attempted    []strategy.Strategy `json:"attempted,omitempty"`
	Success      bool               `json:"success"`
	Error        string             `json:"error,omitempty"`
}
