package testkit

import (
	"os"
	"sync"
	"testing"
)

// seams are package globals, so tests that replace them share one lock
var seamMu sync.Mutex

// Swap points target at replacement until the test ends
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	prev := *target
	*target = replacement
	t.Cleanup(func() { *target = prev })
}

// Serial holds the seam lock for the rest of the test
// call it before Swap in any test that replaces a shared seam
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(seamMu.Unlock)
}

// Env sets every pair for the duration of the test
func Env(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

// Unsetenv removes keys for the duration of the test so fallbacks and loaders see them absent
// t.Setenv first registers the restore of any prior value
func Unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unsetenv %s: %v", k, err)
		}
	}
}
