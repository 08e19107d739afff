package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSite(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", SanitizeSite("https://Example.com/some/path"))
	assert.Equal(t, "example.com", SanitizeSite("example.com/x"))
	assert.Equal(t, "unknown", SanitizeSite("://nope"))
	assert.Equal(t, "unknown", SanitizeSite(""))
}

func TestObserveBeforeInitIsSafe(t *testing.T) {
	// Must not panic when Init has not run, e.g. in library-style use.
	assert.NotPanics(t, func() {
		ObserveAttempt("native", "success")
		ObserveChainExhausted("https://example.com")
		ObserveStored("https://example.com")
		ObserveHTTPRequest("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
		ObserveAttempt("native", "failure")
	})
}
