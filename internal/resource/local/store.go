// Package local implements the durable filesystem resource store. Each
// artifact is one content file plus a metadata sidecar, so the catalog stays
// inspectable with ordinary shell tools.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pagevault/pagevault/internal/resource"
)

const sidecarSuffix = ".meta.json"

// Config captures the parameters for the filesystem store.
type Config struct {
	// BaseDir is the directory where content and sidecar files live.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store writes artifacts to the local filesystem.
type Store struct {
	baseDir string
}

// New creates a filesystem-backed resource store rooted at cfg.BaseDir,
// creating the directory when missing.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}
	return &Store{baseDir: cfg.BaseDir}, nil
}

// Write stores one artifact as a content file plus sidecar and returns its
// URI. Nanosecond timestamps in the name keep repeat writes distinct.
func (s *Store) Write(_ context.Context, rawURL, content string, meta resource.Metadata) (string, error) {
	if meta.FetchedAt.IsZero() {
		meta.FetchedAt = time.Now().UTC()
	}
	meta.URL = rawURL

	name := resource.BuildName(meta.Kind, rawURL, meta.FetchedAt)
	mime := resource.MimeTypeFor(meta.Kind, meta.ContentType)
	res := resource.Resource{
		URI:         resource.BuildURI(meta.Kind, rawURL, meta.FetchedAt),
		Name:        name,
		Description: meta.Description,
		MimeType:    mime,
		Meta:        meta,
	}

	contentPath := filepath.Join(s.baseDir, name+extensionFor(mime))
	if err := os.WriteFile(contentPath, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write content %s: %w", contentPath, err)
	}

	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata for %s: %w", res.URI, err)
	}
	sidecarPath := filepath.Join(s.baseDir, name+sidecarSuffix)
	if err := os.WriteFile(sidecarPath, payload, 0o600); err != nil {
		return "", fmt.Errorf("write metadata %s: %w", sidecarPath, err)
	}
	return res.URI, nil
}

// WriteMulti stores the supplied stages under one shared timestamp.
func (s *Store) WriteMulti(ctx context.Context, w resource.MultiWrite) (resource.MultiURIs, error) {
	if w.URL == "" || w.Raw == "" {
		return resource.MultiURIs{}, fmt.Errorf("url and raw content are required")
	}
	ts := time.Now().UTC()
	var uris resource.MultiURIs
	for _, st := range resource.ExpandStages(w, ts) {
		uri, err := s.Write(ctx, w.URL, st.Content, st.Meta)
		if err != nil {
			return resource.MultiURIs{}, err
		}
		switch st.Kind {
		case resource.KindRaw:
			uris.Raw = uri
		case resource.KindCleaned:
			uris.Cleaned = uri
		case resource.KindExtracted:
			uris.Extracted = uri
		}
	}
	return uris, nil
}

// Read returns the content and mime type for a URI.
func (s *Store) Read(ctx context.Context, uri string) (string, string, error) {
	res, err := s.lookup(ctx, uri)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(s.contentPath(res))
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("read %s: %w", uri, resource.ErrNotFound)
		}
		return "", "", fmt.Errorf("read content for %s: %w", uri, err)
	}
	return string(data), res.MimeType, nil
}

// Exists reports whether the URI has a catalog entry.
func (s *Store) Exists(ctx context.Context, uri string) (bool, error) {
	_, err := s.lookup(ctx, uri)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the content file and sidecar for a URI.
func (s *Store) Delete(ctx context.Context, uri string) error {
	res, err := s.lookup(ctx, uri)
	if err != nil {
		return err
	}
	if err := os.Remove(s.contentPath(res)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete content for %s: %w", uri, err)
	}
	if err := os.Remove(filepath.Join(s.baseDir, res.Name+sidecarSuffix)); err != nil {
		return fmt.Errorf("delete metadata for %s: %w", uri, err)
	}
	return nil
}

// List scans the sidecar files and returns every resource, newest first.
// Unreadable or malformed sidecars are skipped.
func (s *Store) List(_ context.Context) ([]resource.Resource, error) {
	dirEntries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", s.baseDir, err)
	}
	out := make([]resource.Resource, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), sidecarSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, de.Name()))
		if err != nil {
			continue
		}
		var res resource.Resource
		if err := json.Unmarshal(data, &res); err != nil || res.URI == "" {
			continue
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Meta.FetchedAt.Equal(out[j].Meta.FetchedAt) {
			return out[i].Meta.FetchedAt.After(out[j].Meta.FetchedAt)
		}
		return out[i].URI < out[j].URI
	})
	return out, nil
}

// FindByURL returns all resources stored for the exact URL, newest first.
func (s *Store) FindByURL(ctx context.Context, rawURL string) ([]resource.Resource, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]resource.Resource, 0)
	for _, r := range all {
		if r.Meta.URL == rawURL {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByURLAndPrompt filters FindByURL results by extraction prompt,
// mirroring the in-memory store's semantics.
func (s *Store) FindByURLAndPrompt(ctx context.Context, rawURL, extractPrompt string) ([]resource.Resource, error) {
	byURL, err := s.FindByURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	out := make([]resource.Resource, 0)
	for _, r := range byURL {
		if resource.MatchesPrompt(r.Meta, extractPrompt) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) lookup(ctx context.Context, uri string) (resource.Resource, error) {
	all, err := s.List(ctx)
	if err != nil {
		return resource.Resource{}, err
	}
	for _, r := range all {
		if r.URI == uri {
			return r, nil
		}
	}
	return resource.Resource{}, fmt.Errorf("lookup %s: %w", uri, resource.ErrNotFound)
}

func (s *Store) contentPath(res resource.Resource) string {
	return filepath.Join(s.baseDir, res.Name+extensionFor(res.MimeType))
}

func extensionFor(mime string) string {
	switch {
	case strings.Contains(mime, "html"):
		return ".html"
	case strings.Contains(mime, "json"):
		return ".json"
	case strings.Contains(mime, "markdown"):
		return ".md"
	case strings.Contains(mime, "xml"):
		return ".xml"
	default:
		return ".txt"
	}
}
