package testsupport

import (
	"context"
	"testing"

	"mediasort/internal/config"
	"mediasort/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertDuplicate records a collision pair for tests using the provided store.
func InsertDuplicate(t testing.TB, store *ledger.Store, entry *ledger.DuplicateEntry) *ledger.DuplicateEntry {
	t.Helper()

	if err := store.InsertDuplicate(context.Background(), entry); err != nil {
		t.Fatalf("store.InsertDuplicate: %v", err)
	}
	return entry
}
