package brightdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

var _ scrape.FetchProvider = (*Provider)(nil)

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Zone: "z"}, nil)
	assert.Error(t, err, "missing api key")

	_, err = New(Config{APIKey: "k"}, nil)
	assert.Error(t, err, "missing zone")
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/request", r.URL.Path)
		assert.Equal(t, "Bearer bd-test-key", r.Header.Get("Authorization"))

		var req unlockRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "unlocker_zone", req.Zone)
		assert.Equal(t, "https://hard.example.com/", req.URL)
		assert.Equal(t, "raw", req.Format)

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>unlocked</body></html>"))
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "bd-test-key", Zone: "unlocker_zone", BaseURL: server.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, strategy.StrategyBrightData, p.Strategy())

	res, err := p.Fetch(context.Background(), "https://hard.example.com/")
	require.NoError(t, err)

	assert.Equal(t, 200, res.StatusCode)
	assert.Contains(t, res.Body, "unlocked")
	assert.Equal(t, "text/html", res.ContentType)
}

func TestFetchHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("long upstream error ", 50), http.StatusBadGateway)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", Zone: "z", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), "https://hard.example.com/")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 400, "upstream bodies are truncated in error messages")
}
