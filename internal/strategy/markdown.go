package strategy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MarkdownStore persists entries as a human-editable markdown table:
//
//	| prefix | default_strategy | notes |
//
// The file may contain surrounding prose; only table rows are parsed, and
// rows with an unrecognized strategy are skipped rather than rejected.
// Upserts are serialized behind a mutex so the load-mutate-save cycle
// cannot lose a concurrent update.
type MarkdownStore struct {
	path string
	mu   sync.Mutex
}

// NewMarkdownStore creates a store backed by the markdown file at path.
// The file does not need to exist yet.
func NewMarkdownStore(path string) (*MarkdownStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("strategy config path is required")
	}
	return &MarkdownStore{path: path}, nil
}

// Load parses the table file. A missing file yields an empty entry set.
func (s *MarkdownStore) Load(_ context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read strategy config %s: %w", s.path, err)
	}
	entries := parseTable(string(data))
	sortEntries(entries)
	return entries, nil
}

// Save overwrites the table file with the full entry set.
func (s *MarkdownStore) Save(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, entries)
}

// Upsert loads the current set, replaces or appends the entry, and saves.
func (s *MarkdownStore) Upsert(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.saveLocked(ctx, upsert(entries, e))
}

// StrategyForURL returns the longest-prefix match for the URL.
func (s *MarkdownStore) StrategyForURL(ctx context.Context, rawURL string) (Strategy, bool, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return "", false, err
	}
	st, ok := StrategyForURL(entries, rawURL)
	return st, ok, nil
}

func (s *MarkdownStore) saveLocked(_ context.Context, entries []Entry) error {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	sortEntries(cp)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create strategy config dir %s: %w", dir, err)
		}
	}

	var b strings.Builder
	b.WriteString("# Scraping strategy config\n\n")
	b.WriteString("Maps URL prefixes to the fetch backend that last worked for them.\n")
	b.WriteString("Longest matching prefix wins. Edit freely; unknown strategies are ignored.\n\n")
	b.WriteString("| prefix | default_strategy | notes |\n")
	b.WriteString("| ------ | ---------------- | ----- |\n")
	for _, e := range cp {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", e.Prefix, e.DefaultStrategy, e.Notes)
	}

	if err := os.WriteFile(s.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write strategy config %s: %w", s.path, err)
	}
	return nil
}

// parseTable extracts entries from markdown table rows, ignoring everything
// that is not a data row.
func parseTable(content string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitRow(line)
		if len(cells) < 2 {
			continue
		}
		prefix := cells[0]
		if prefix == "" || prefix == "prefix" || isSeparator(prefix) {
			continue
		}
		st, ok := Parse(cells[1])
		if !ok {
			// Unknown strategy value: skip the row, keep the rest.
			continue
		}
		e := Entry{Prefix: prefix, DefaultStrategy: st}
		if len(cells) > 2 {
			e.Notes = cells[2]
		}
		entries = append(entries, e)
	}
	return entries
}

func splitRow(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func isSeparator(cell string) bool {
	trimmed := strings.Trim(cell, "-: ")
	return trimmed == "" && strings.Contains(cell, "-")
}
