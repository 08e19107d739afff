// Package local_test tests the filesystem resource store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagevault/pagevault/internal/resource"
	"github.com/pagevault/pagevault/internal/resource/local"
)

func newTestStore(t *testing.T) (*local.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	return store, dir
}

func TestNew(t *testing.T) {
	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "catalog")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, statErr := os.Stat(dir)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "afile")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestWriteCreatesContentAndSidecar(t *testing.T) {
	t.Parallel()

	store, dir := newTestStore(t)
	ctx := context.Background()

	uri, err := store.Write(ctx, "https://example.com/page", "<html>hi</html>", resource.Metadata{
		Kind:        resource.KindRaw,
		ContentType: "text/html",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "pagevault://raw/example.com/"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "one content file plus one metadata sidecar")

	var haveHTML, haveSidecar bool
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".html"):
			haveHTML = true
		case strings.HasSuffix(e.Name(), ".meta.json"):
			haveSidecar = true
		}
	}
	assert.True(t, haveHTML)
	assert.True(t, haveSidecar)
}

func TestWriteMultiSharesTimestamp(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	uris, err := store.WriteMulti(ctx, resource.MultiWrite{
		URL:              "https://example.com/page",
		Raw:              "A",
		RawContentType:   "text/html",
		Cleaned:          "B",
		Extracted:        "C",
		ExtractionPrompt: "what?",
	})
	require.NoError(t, err)

	found, err := store.FindByURL(ctx, "https://example.com/page")
	require.NoError(t, err)
	require.Len(t, found, 3)
	for i := 1; i < len(found); i++ {
		assert.True(t, found[0].Meta.FetchedAt.Equal(found[i].Meta.FetchedAt),
			"stages of one write share a timestamp")
	}

	content, mimeType, err := store.Read(ctx, uris.Cleaned)
	require.NoError(t, err)
	assert.Equal(t, "B", content)
	assert.Equal(t, "text/markdown", mimeType)
}

func TestFindByURLAndPromptSemanticsMatchMemory(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.WriteMulti(ctx, resource.MultiWrite{
		URL:              "https://example.com/doc",
		Raw:              "raw",
		Extracted:        "answer",
		ExtractionPrompt: "find it",
	})
	require.NoError(t, err)

	promptless, err := store.FindByURLAndPrompt(ctx, "https://example.com/doc", "")
	require.NoError(t, err)
	require.Len(t, promptless, 1)
	assert.Equal(t, resource.KindRaw, promptless[0].Meta.Kind)

	extracted, err := store.FindByURLAndPrompt(ctx, "https://example.com/doc", "find it")
	require.NoError(t, err)
	require.Len(t, extracted, 1)
	assert.Equal(t, resource.KindExtracted, extracted[0].Meta.Kind)
}

func TestDeleteRemovesBothFiles(t *testing.T) {
	t.Parallel()

	store, dir := newTestStore(t)
	ctx := context.Background()

	uri, err := store.Write(ctx, "https://example.com/x", "content", resource.Metadata{
		Kind: resource.KindRaw,
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, uri))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, store.Delete(ctx, uri), resource.ErrNotFound)
	_, _, err = store.Read(ctx, uri)
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestListSkipsMalformedSidecars(t *testing.T) {
	t.Parallel()

	store, dir := newTestStore(t)
	ctx := context.Background()

	_, err := store.Write(ctx, "https://example.com/ok", "fine", resource.Metadata{
		Kind: resource.KindRaw,
	})
	require.NoError(t, err)

	garbage := filepath.Join(dir, "broken_example.com_1.meta.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0o600))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "malformed sidecars are skipped, not fatal")
}

func TestOrderingNewestFirst(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	for range 3 {
		_, err := store.Write(ctx, "https://example.com/", "body", resource.Metadata{
			Kind: resource.KindRaw,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	found, err := store.FindByURL(ctx, "https://example.com/")
	require.NoError(t, err)
	require.Len(t, found, 3)
	for i := 1; i < len(found); i++ {
		assert.False(t, found[i-1].Meta.FetchedAt.Before(found[i].Meta.FetchedAt))
	}
}
