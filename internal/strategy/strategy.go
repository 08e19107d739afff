// Package strategy persists which fetch backend last worked for a site.
package strategy

import (
	"net/url"
	"sort"
	"strings"
)

// Strategy names a fetch backend, ordered by increasing cost.
type Strategy string

// Known fetch strategies.
const (
	StrategyNative     Strategy = "native"
	StrategyFirecrawl  Strategy = "firecrawl"
	StrategyBrightData Strategy = "brightdata"
)

// DefaultChain returns the fallback order: free native fetch first, then
// paid providers in increasing cost.
func DefaultChain() []Strategy {
	return []Strategy{StrategyNative, StrategyFirecrawl, StrategyBrightData}
}

// Parse maps a raw string onto a known Strategy. The boolean is false for
// unrecognized values so callers can skip bad rows instead of failing.
func Parse(raw string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyNative:
		return StrategyNative, true
	case StrategyFirecrawl:
		return StrategyFirecrawl, true
	case StrategyBrightData:
		return StrategyBrightData, true
	default:
		return "", false
	}
}

// Entry maps a URL prefix to the strategy that last worked for it.
// A prefix is either a bare hostname ("example.com") or hostname+path
// ("example.com/docs").
type Entry struct {
	Prefix          string   `json:"prefix"`
	DefaultStrategy Strategy `json:"default_strategy"`
	Notes           string   `json:"notes,omitempty"`
}

// sortEntries orders entries longest-prefix-first so the most specific
// prefix wins during lookup. Ties break lexicographically for stable output.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].Prefix) != len(entries[j].Prefix) {
			return len(entries[i].Prefix) > len(entries[j].Prefix)
		}
		return entries[i].Prefix < entries[j].Prefix
	})
}

// upsert replaces the entry with a matching prefix or appends, then re-sorts.
func upsert(entries []Entry, e Entry) []Entry {
	replaced := false
	for i := range entries {
		if entries[i].Prefix == e.Prefix {
			entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries
}

// matchURL reports whether the entry's prefix matches the given host and path.
// Prefixes containing a path separator match hostname+path; bare-host
// prefixes match the hostname exactly, its www. variant, or as a suffix.
func matchURL(prefix, host, path string) bool {
	if prefix == "" || host == "" {
		return false
	}
	if strings.Contains(prefix, "/") {
		full := host + path
		return strings.HasPrefix(full, prefix) || strings.HasPrefix("www."+full, prefix) ||
			strings.HasPrefix(full, "www."+prefix)
	}
	return host == prefix || host == "www."+prefix || "www."+host == prefix ||
		strings.HasSuffix(host, "."+prefix)
}

// StrategyForURL scans entries longest-prefix-first and returns the first
// matching strategy. Unparseable URLs yield no match rather than an error.
func StrategyForURL(entries []Entry, rawURL string) (Strategy, bool) {
	host, path, ok := splitURL(rawURL)
	if !ok {
		return "", false
	}
	for _, e := range entries {
		if matchURL(e.Prefix, host, path) {
			return e.DefaultStrategy, true
		}
	}
	return "", false
}

// PrefixForURL derives the config prefix recorded after a successful fetch:
// the lowercase hostname without the www. prefix.
func PrefixForURL(rawURL string) (string, bool) {
	host, _, ok := splitURL(rawURL)
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(host, "www."), true
}

func splitURL(rawURL string) (host, path string, ok bool) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", "", false
	}
	return strings.ToLower(u.Hostname()), u.Path, true
}
