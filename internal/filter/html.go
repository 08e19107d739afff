package filter

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Elements that carry boilerplate rather than content.
var strippedSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	".nav", ".navbar", ".menu", ".sidebar", ".footer", ".header",
	".ad", ".ads", ".advertisement", ".cookie-banner", ".newsletter",
}

// Candidate selectors for the main content region, in preference order.
var mainContentSelectors = []string{
	"article", "main", "[role=main]", "#content", ".content", "#main", ".post",
}

// HTMLFilter strips navigation, scripts, ads and footer boilerplate and
// converts the remaining markup to Markdown, preserving headings,
// paragraphs, lists, quotes, emphasis and links.
type HTMLFilter struct {
	opts     Options
	sanitize *bluemonday.Policy
	conv     *converter.Converter
}

// NewHTMLFilter builds the HTML cleaning filter.
func NewHTMLFilter(opts Options) *HTMLFilter {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("href").OnElements("a")
	return &HTMLFilter{
		opts:     opts,
		sanitize: p,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// CanHandle reports whether this filter applies to the content type.
func (f *HTMLFilter) CanHandle(ct ContentType) bool {
	return ct == TypeHTML
}

// Apply cleans the HTML and returns Markdown bounded by the length budget.
// It never fails: when parsing or conversion breaks down it degrades to a
// tag-stripped text rendition of the input.
func (f *HTMLFilter) Apply(content, url string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return Truncate(f.sanitizeToText(content), f.opts.MaxChars)
	}

	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}

	region := f.contentRegion(doc)
	markup, err := region.Html()
	if err != nil || strings.TrimSpace(markup) == "" {
		return Truncate(f.sanitizeToText(content), f.opts.MaxChars)
	}

	markdown, err := f.conv.ConvertString(f.sanitize.Sanitize(markup),
		converter.WithDomain(url))
	if err != nil {
		return Truncate(f.sanitizeToText(markup), f.opts.MaxChars)
	}
	return Truncate(collapseBlankLines(markdown), f.opts.MaxChars)
}

// Title returns the document title, or "" when none is present.
func Title(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Description returns the meta description, or "" when none is present.
func Description(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return strings.TrimSpace(desc)
}

// contentRegion picks the main content region when requested and present,
// otherwise the whole body.
func (f *HTMLFilter) contentRegion(doc *goquery.Document) *goquery.Selection {
	if f.opts.OnlyMainContent {
		for _, sel := range mainContentSelectors {
			if region := doc.Find(sel).First(); region.Length() > 0 &&
				strings.TrimSpace(region.Text()) != "" {
				return region
			}
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// sanitizeToText is the degraded path: drop all markup, keep text.
func (f *HTMLFilter) sanitizeToText(content string) string {
	text := bluemonday.StrictPolicy().Sanitize(content)
	return strings.TrimSpace(collapseBlankLines(text))
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
