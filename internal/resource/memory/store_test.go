package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/resource"
)

func TestWriteMultiThenFindByURL(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	uris, err := store.WriteMulti(ctx, resource.MultiWrite{
		URL:            "https://example.com/page",
		Raw:            "A",
		RawContentType: "text/html",
		Cleaned:        "B",
	})
	require.NoError(t, err)
	require.NotEmpty(t, uris.Raw)
	require.NotEmpty(t, uris.Cleaned)
	assert.Empty(t, uris.Extracted)

	found, err := store.FindByURL(ctx, "https://example.com/page")
	require.NoError(t, err)
	require.Len(t, found, 2)

	contents := map[resource.Kind]string{}
	for _, r := range found {
		assert.Equal(t, "https://example.com/page", r.Meta.URL)
		content, _, readErr := store.Read(ctx, r.URI)
		require.NoError(t, readErr)
		contents[r.Meta.Kind] = content
	}
	assert.Equal(t, "A", contents[resource.KindRaw])
	assert.Equal(t, "B", contents[resource.KindCleaned])
}

func TestRepeatedWritesAccumulate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	for range 3 {
		_, err := store.WriteMulti(ctx, resource.MultiWrite{
			URL: "https://example.com/",
			Raw: "body",
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	found, err := store.FindByURL(ctx, "https://example.com/")
	require.NoError(t, err)
	assert.Len(t, found, 3, "repeat scrapes accumulate, never overwrite")

	for i := 1; i < len(found); i++ {
		assert.False(t, found[i-1].Meta.FetchedAt.Before(found[i].Meta.FetchedAt),
			"results are ordered newest first")
	}
}

func TestFindByURLAndPrompt(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	_, err := store.WriteMulti(ctx, resource.MultiWrite{
		URL:              "https://example.com/doc",
		Raw:              "raw",
		Cleaned:          "cleaned",
		Extracted:        "the answer",
		ExtractionPrompt: "find the answer",
	})
	require.NoError(t, err)

	promptless, err := store.FindByURLAndPrompt(ctx, "https://example.com/doc", "")
	require.NoError(t, err)
	require.NotEmpty(t, promptless)
	for _, r := range promptless {
		assert.Empty(t, r.Meta.ExtractionPrompt,
			"an omitted prompt must never return extracted resources")
	}

	extracted, err := store.FindByURLAndPrompt(ctx, "https://example.com/doc", "find the answer")
	require.NoError(t, err)
	require.Len(t, extracted, 1)
	assert.Equal(t, resource.KindExtracted, extracted[0].Meta.Kind)

	other, err := store.FindByURLAndPrompt(ctx, "https://example.com/doc", "different prompt")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReadDeleteExists(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	uri, err := store.Write(ctx, "https://example.com/x", "content", resource.Metadata{
		Kind:        resource.KindRaw,
		ContentType: "text/plain",
	})
	require.NoError(t, err)

	ok, err := store.Exists(ctx, uri)
	require.NoError(t, err)
	assert.True(t, ok)

	content, mimeType, err := store.Read(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "content", content)
	assert.Equal(t, "text/plain", mimeType)

	require.NoError(t, store.Delete(ctx, uri))

	ok, err = store.Exists(ctx, uri)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.Read(ctx, uri)
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, uri), resource.ErrNotFound)
}

func TestWriteMultiRequiresRaw(t *testing.T) {
	t.Parallel()

	store := NewStore()
	_, err := store.WriteMulti(context.Background(), resource.MultiWrite{URL: "https://example.com"})
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	_, err := store.Write(ctx, "https://example.com", "x", resource.Metadata{Kind: resource.KindRaw})
	require.NoError(t, err)

	store.Reset()

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
