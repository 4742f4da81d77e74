package testsupport

import (
	"testing"

	"golfr/internal/config"
	"golfr/internal/history"
)

// MustOpenStore opens the history ledger configured in cfg and registers a
// cleanup that closes it.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
