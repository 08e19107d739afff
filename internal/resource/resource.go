// Package resource defines the addressable catalog of fetched artifacts.
// Every scrape event stores up to three immutable stages (raw, cleaned,
// extracted) sharing one timestamp.
package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound is returned when a URI has no catalog entry.
var ErrNotFound = errors.New("resource not found")

// Kind is the stage a stored artifact belongs to.
type Kind string

// Artifact stages.
const (
	KindRaw       Kind = "raw"
	KindCleaned   Kind = "cleaned"
	KindExtracted Kind = "extracted"
)

// Metadata describes a stored artifact. Extra carries forward-compatible
// fields that have no dedicated column yet.
type Metadata struct {
	URL              string            `json:"url"`
	FetchedAt        time.Time         `json:"fetched_at"`
	ContentType      string            `json:"content_type"`
	Title            string            `json:"title,omitempty"`
	Description      string            `json:"description,omitempty"`
	Kind             Kind              `json:"resource_type"`
	ExtractionPrompt string            `json:"extraction_prompt,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Resource is one immutable catalog entry.
type Resource struct {
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MimeType    string   `json:"mime_type,omitempty"`
	Meta        Metadata `json:"metadata"`
}

// MultiWrite is one scrape event's worth of stages. Raw is required;
// cleaned and extracted are stored when non-empty. All stages share the
// write timestamp so they can be correlated later.
type MultiWrite struct {
	URL              string
	Raw              string
	RawContentType   string
	Cleaned          string
	Extracted        string
	ExtractionPrompt string
	Title            string
	Description      string
}

// MultiURIs addresses the stages stored by one WriteMulti call.
type MultiURIs struct {
	Raw       string `json:"raw"`
	Cleaned   string `json:"cleaned,omitempty"`
	Extracted string `json:"extracted,omitempty"`
}

// Store is the catalog of fetched artifacts. Entries are append-only:
// repeated writes for the same URL accumulate rather than overwrite.
// FindByURL and FindByURLAndPrompt order newest first.
type Store interface {
	Write(ctx context.Context, rawURL, content string, meta Metadata) (string, error)
	WriteMulti(ctx context.Context, w MultiWrite) (MultiURIs, error)
	Read(ctx context.Context, uri string) (content string, mimeType string, err error)
	Exists(ctx context.Context, uri string) (bool, error)
	Delete(ctx context.Context, uri string) error
	List(ctx context.Context) ([]Resource, error)
	FindByURL(ctx context.Context, rawURL string) ([]Resource, error)
	FindByURLAndPrompt(ctx context.Context, rawURL, extractPrompt string) ([]Resource, error)
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9.-]+`)

// SanitizeHost extracts a filesystem-safe lowercase hostname from a URL.
// Invalid URLs map to "unknown" so naming never fails.
func SanitizeHost(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	host := strings.ToLower(u.Hostname())
	return unsafeChars.ReplaceAllString(host, "-")
}

// BuildURI derives the catalog URI for one artifact. Nanosecond timestamps
// keep same-URL writes within one process from colliding.
func BuildURI(kind Kind, rawURL string, ts time.Time) string {
	return fmt.Sprintf("pagevault://%s/%s/%d", kind, SanitizeHost(rawURL), ts.UnixNano())
}

// BuildName derives the human-facing name for one artifact.
func BuildName(kind Kind, rawURL string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%d", kind, SanitizeHost(rawURL), ts.UnixNano())
}

// MimeTypeFor maps a stage to the mime type it is stored under. Cleaned and
// extracted stages are always markdown/plain text; raw keeps the fetched
// content type.
func MimeTypeFor(kind Kind, rawContentType string) string {
	switch kind {
	case KindCleaned:
		return "text/markdown"
	case KindExtracted:
		return "text/plain"
	default:
		if rawContentType != "" {
			return rawContentType
		}
		return "text/html"
	}
}

// Stage pairs one stage's content with its metadata during a WriteMulti.
type Stage struct {
	Kind    Kind
	Content string
	Meta    Metadata
}

// ExpandStages turns a MultiWrite into the ordered stage list to persist,
// all sharing the given timestamp. Raw always appears; cleaned and
// extracted only when supplied.
func ExpandStages(w MultiWrite, ts time.Time) []Stage {
	base := Metadata{
		URL:         w.URL,
		FetchedAt:   ts,
		ContentType: w.RawContentType,
		Title:       w.Title,
		Description: w.Description,
	}

	raw := base
	raw.Kind = KindRaw
	stages := []Stage{{Kind: KindRaw, Content: w.Raw, Meta: raw}}

	if w.Cleaned != "" {
		cleaned := base
		cleaned.Kind = KindCleaned
		cleaned.ContentType = "text/markdown"
		stages = append(stages, Stage{Kind: KindCleaned, Content: w.Cleaned, Meta: cleaned})
	}
	if w.Extracted != "" {
		extracted := base
		extracted.Kind = KindExtracted
		extracted.ContentType = "text/plain"
		extracted.ExtractionPrompt = w.ExtractionPrompt
		stages = append(stages, Stage{Kind: KindExtracted, Content: w.Extracted, Meta: extracted})
	}
	return stages
}

// MatchesPrompt implements the extraction-prompt filter rule: an empty
// prompt matches only resources without a recorded prompt (raw/cleaned);
// a set prompt matches only extracted resources recorded with that prompt.
func MatchesPrompt(meta Metadata, extractPrompt string) bool {
	if extractPrompt == "" {
		return meta.ExtractionPrompt == ""
	}
	return meta.Kind == KindExtracted && meta.ExtractionPrompt == extractPrompt
}
