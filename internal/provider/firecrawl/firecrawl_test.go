package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

var _ scrape.FetchProvider = (*Provider)(nil)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test-key", r.Header.Get("Authorization"))

		var req scrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com/page", req.URL)
		assert.Contains(t, req.Formats, "html")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"html":     "<html><body>unblocked</body></html>",
				"markdown": "unblocked",
				"metadata": map[string]any{
					"statusCode": 200,
					"sourceURL":  "https://example.com/page",
				},
			},
		})
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "fc-test-key", BaseURL: server.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, strategy.StrategyFirecrawl, p.Strategy())

	res, err := p.Fetch(context.Background(), "https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "<html><body>unblocked</body></html>", res.Body)
	assert.Equal(t, "text/html", res.ContentType)
	assert.Equal(t, "https://example.com/page", res.FinalURL)
}

func TestFetchFallsBackToMarkdown(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"markdown": "# Only Markdown",
				"metadata": map[string]any{"statusCode": 200},
			},
		})
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	res, err := p.Fetch(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "# Only Markdown", res.Body)
	assert.Equal(t, "text/markdown", res.ContentType)
}

func TestFetchAPIFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "This website is not supported",
		})
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), "https://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestFetchHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), "https://example.com/")
	assert.Error(t, err)
}
