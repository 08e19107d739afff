// Package filter reduces raw fetched content to the parts worth keeping.
package filter

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ContentType is a coarse tag describing fetched content.
type ContentType string

// Recognized content types.
const (
	TypeJSON ContentType = "json"
	TypeXML  ContentType = "xml"
	TypeHTML ContentType = "html"
	TypeText ContentType = "text"
)

// TruncationMarker is appended exactly once when content is cut to fit a
// length budget.
const TruncationMarker = "\n\n[content truncated]"

var htmlPattern = regexp.MustCompile(`(?i)<\s*(!doctype\s+html|html|head|body|div|article|section)\b`)

// DetectContentType inspects the content and returns a coarse tag. Valid
// JSON wins over everything; an XML declaration or leading tag marks XML;
// common HTML markers mark HTML; everything else is plain text.
func DetectContentType(content string) ContentType {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return TypeText
	}
	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) &&
		json.Valid([]byte(trimmed)) {
		return TypeJSON
	}
	if strings.HasPrefix(trimmed, "<?xml") {
		return TypeXML
	}
	if htmlPattern.MatchString(trimmed) {
		return TypeHTML
	}
	if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
		return TypeXML
	}
	return TypeText
}

// Options tunes filter behavior.
type Options struct {
	// MaxChars caps output length; zero means unbounded. The cut is a plain
	// substring at the budget, not word-boundary aware, followed by one
	// truncation marker.
	MaxChars int
	// OnlyMainContent restricts HTML cleaning to the detected main content
	// region when one exists.
	OnlyMainContent bool
}

// Filter reduces content of a declared type. Apply must not fail on content
// matching the type it reported via CanHandle.
type Filter interface {
	Apply(content, url string) string
	CanHandle(ct ContentType) bool
}

// New returns the filter for the detected content type. Structured formats
// and anything unrecognized get the pass-through filter; HTML gets the
// cleaning filter.
func New(ct ContentType, opts Options) Filter {
	if ct == TypeHTML {
		return NewHTMLFilter(opts)
	}
	return NewPassthroughFilter(opts)
}

// PassthroughFilter returns content unchanged apart from truncation.
type PassthroughFilter struct {
	opts Options
}

// NewPassthroughFilter builds the pass-through filter.
func NewPassthroughFilter(opts Options) *PassthroughFilter {
	return &PassthroughFilter{opts: opts}
}

// Apply truncates when a budget is set and otherwise returns content as-is.
func (f *PassthroughFilter) Apply(content, _ string) string {
	return Truncate(content, f.opts.MaxChars)
}

// CanHandle accepts every content type; pass-through is the fallback filter.
func (f *PassthroughFilter) CanHandle(ContentType) bool {
	return true
}

// Truncate cuts content at maxChars and appends the truncation marker.
// A non-positive budget disables truncation.
func Truncate(content string, maxChars int) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}
	return content[:maxChars] + TruncationMarker
}
