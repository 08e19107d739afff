package strategy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/strategy"
)

func newTestStore(t *testing.T) *strategy.MarkdownStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "strategies.md")
	store, err := strategy.NewMarkdownStore(path)
	require.NoError(t, err)
	return store
}

func TestMarkdownStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMarkdownStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	in := []strategy.Entry{
		{Prefix: "example.com", DefaultStrategy: strategy.StrategyNative, Notes: "plain site"},
		{Prefix: "news.example.com", DefaultStrategy: strategy.StrategyBrightData},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "news.example.com", out[0].Prefix, "longest prefix must come first")
	assert.Equal(t, strategy.StrategyBrightData, out[0].DefaultStrategy)
	assert.Equal(t, "plain site", out[1].Notes)
}

func TestMarkdownStoreUpsertIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	e := strategy.Entry{Prefix: "example.com", DefaultStrategy: strategy.StrategyFirecrawl}
	require.NoError(t, store.Upsert(ctx, e))
	require.NoError(t, store.Upsert(ctx, e))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, strategy.StrategyFirecrawl, entries[0].DefaultStrategy)
}

func TestMarkdownStoreTolerantParsing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "strategies.md")
	content := `# Scraping strategies

Some prose explaining the file. It is not part of the table.

| prefix | default_strategy | notes |
| ------ | ---------------- | ----- |
| example.com | native | works fine |
| blocked.example.com | brightdata | needs unlocking |
| bogus.example.com | chromedp | unknown strategy, skip me |
| | native | empty prefix, skip me |

Trailing prose after the table.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := strategy.NewMarkdownStore(path)
	require.NoError(t, err)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2, "unknown strategies and malformed rows are skipped silently")

	st, ok, err := store.StrategyForURL(context.Background(), "https://blocked.example.com/p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strategy.StrategyBrightData, st)
}

func TestMarkdownStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := strategy.NewMarkdownStore("  ")
	assert.Error(t, err)
}
