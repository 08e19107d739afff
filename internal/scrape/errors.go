package scrape

import (
	"fmt"
	"strings"

	"github.com/pagevault/pagevault/internal/strategy"
)

// ValidationError reports malformed caller input. No backend is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// ChainExhaustedError is the terminal failure after every configured backend
// has been tried. It names the attempted strategies and keeps the last
// backend error for diagnosis.
type ChainExhaustedError struct {
	URL       string
	Attempted []strategy.Strategy
	LastErr   error
}

func (e *ChainExhaustedError) Error() string {
	names := make([]string, len(e.Attempted))
	for i, s := range e.Attempted {
		names[i] = string(s)
	}
	msg := fmt.Sprintf("all fetch strategies failed for %s (attempted: %s)",
		e.URL, strings.Join(names, ", "))
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *ChainExhaustedError) Unwrap() error {
	return e.LastErr
}
