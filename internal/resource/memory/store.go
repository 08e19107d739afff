// Package memory stores catalog entries in-memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pagevault/pagevault/internal/resource"
)

type entry struct {
	res     resource.Resource
	content string
}

// Store keeps resources in process memory for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewStore creates an empty in-memory resource store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Write stores one artifact and returns its URI. Entries accumulate;
// nothing is ever overwritten.
func (s *Store) Write(_ context.Context, rawURL, content string, meta resource.Metadata) (string, error) {
	if meta.FetchedAt.IsZero() {
		meta.FetchedAt = time.Now().UTC()
	}
	meta.URL = rawURL

	uri := resource.BuildURI(meta.Kind, rawURL, meta.FetchedAt)
	res := resource.Resource{
		URI:         uri,
		Name:        resource.BuildName(meta.Kind, rawURL, meta.FetchedAt),
		Description: meta.Description,
		MimeType:    resource.MimeTypeFor(meta.Kind, meta.ContentType),
		Meta:        meta,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[uri] = entry{res: res, content: content}
	return uri, nil
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
func (s *Store) Read(_ context.Context, uri string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[uri]
	if !ok {
		return "", "", fmt.Errorf("read %s: %w", uri, resource.ErrNotFound)
	}
	return e.content, e.res.MimeType, nil
}

// Exists reports whether the URI has an entry.
func (s *Store) Exists(_ context.Context, uri string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[uri]
	return ok, nil
}

// Delete removes the entry for a URI.
func (s *Store) Delete(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[uri]; !ok {
		return fmt.Errorf("delete %s: %w", uri, resource.ErrNotFound)
	}
	delete(s.entries, uri)
	return nil
}

// List returns every stored resource, newest first.
func (s *Store) List(_ context.Context) ([]resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]resource.Resource, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.res)
	}
	sortNewestFirst(out)
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

// FindByURLAndPrompt filters FindByURL results by extraction prompt: an
// empty prompt yields only promptless (raw/cleaned) resources, a set prompt
// yields only extracted resources recorded with that prompt.
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

// Reset drops every entry. Intended for test isolation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
}

func sortNewestFirst(resources []resource.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		if !resources[i].Meta.FetchedAt.Equal(resources[j].Meta.FetchedAt) {
			return resources[i].Meta.FetchedAt.After(resources[j].Meta.FetchedAt)
		}
		return resources[i].URI < resources[j].URI
	})
}
