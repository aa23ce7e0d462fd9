package testsupport

import (
	"testing"

	"gleaner/internal/config"
	"gleaner/internal/jobs"
)

// MustOpenStore opens the jobs store for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("open jobs store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
