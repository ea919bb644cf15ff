package testutil

import (
	"path/filepath"
	"testing"

	"github.com/romdb/romdb/internal/database"
)

// NewTestStore creates a database with the built-in schema under a
// temporary directory and closes it when the test ends.
func NewTestStore(t *testing.T) *database.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "romdb.db")
	store, err := database.OpenOrCreate(path, "")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
