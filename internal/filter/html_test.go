package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Widget Review</title>
  <meta name="description" content="An in-depth widget review.">
  <script>window.__TRACKER__ = "spyware";</script>
</head>
<body>
  <nav><a href="/home">Home</a> | <a href="/about">About</a> navigation chrome</nav>
  <header><h1>Site Banner</h1></header>
  <article>
    <h2>The Widget</h2>
    <p>The widget is <em>surprisingly good</em> at its job.</p>
    <ul><li>Fast</li><li>Cheap</li></ul>
    <blockquote>Best widget of the year.</blockquote>
    <p>Read the <a href="/specs">full specs</a>.</p>
  </article>
  <aside class="ad">Buy now!!!</aside>
  <footer>Copyright boilerplate</footer>
</body>
</html>`

func TestHTMLFilterStripsBoilerplate(t *testing.T) {
	t.Parallel()

	f := NewHTMLFilter(Options{})
	out := f.Apply(samplePage, "https://example.com/review")

	assert.Contains(t, out, "The Widget")
	assert.Contains(t, out, "surprisingly good")
	assert.Contains(t, out, "Best widget of the year")
	assert.NotContains(t, out, "__TRACKER__", "script content must be removed")
	assert.NotContains(t, out, "navigation chrome", "nav content must be removed")
	assert.NotContains(t, out, "Copyright boilerplate", "footer content must be removed")
	assert.NotContains(t, out, "Buy now", "ad aside must be removed")
}

func TestHTMLFilterMainContentOnly(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <div>stray preamble outside the article</div>
	  <article><p>the real story</p></article>
	</body></html>`

	f := NewHTMLFilter(Options{OnlyMainContent: true})
	out := f.Apply(page, "https://example.com/story")

	assert.Contains(t, out, "the real story")
	assert.NotContains(t, out, "stray preamble")

	full := NewHTMLFilter(Options{}).Apply(page, "https://example.com/story")
	assert.Contains(t, full, "stray preamble", "without the option the whole body survives")
}

func TestHTMLFilterPreservesStructure(t *testing.T) {
	t.Parallel()

	f := NewHTMLFilter(Options{OnlyMainContent: true})
	out := f.Apply(samplePage, "https://example.com/review")

	assert.Contains(t, out, "## The Widget", "headings become markdown headings")
	assert.Contains(t, out, "- Fast", "list items survive")
	assert.Contains(t, out, "full specs", "link text survives")
}

func TestHTMLFilterTruncates(t *testing.T) {
	t.Parallel()

	f := NewHTMLFilter(Options{MaxChars: 50})
	out := f.Apply(samplePage, "https://example.com/review")

	require.True(t, strings.HasSuffix(out, TruncationMarker))
	assert.LessOrEqual(t, len(strings.TrimSuffix(out, TruncationMarker)), 50)
}

func TestHTMLFilterNeverFails(t *testing.T) {
	t.Parallel()

	f := NewHTMLFilter(Options{})
	for _, content := range []string{
		"",
		"<html><body></body></html>",
		"<<<<not really html>>>>",
		"<div>unclosed",
	} {
		assert.NotPanics(t, func() {
			_ = f.Apply(content, "https://example.com/")
		})
	}
}

func TestTitleAndDescription(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Widget Review", Title(samplePage))
	assert.Equal(t, "An in-depth widget review.", Description(samplePage))
	assert.Empty(t, Title("no markup at all"))
	assert.Empty(t, Description("<html><head></head></html>"))
}
