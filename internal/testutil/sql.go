package testutil

import (
	"testing"

	"github.com/romdb/romdb/internal/database"
)

// ExecSQL runs one statement against the database file at path over a
// fresh connection. Tests use it to inspect or corrupt stored rows
// without widening the store API.
func ExecSQL(t *testing.T, path, query string, args ...any) {
	t.Helper()
	db, err := database.OpenConnection(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer db.Close()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// QueryInt runs a single-value query against the database file at path.
func QueryInt(t *testing.T, path, query string, args ...any) int64 {
	t.Helper()
	db, err := database.OpenConnection(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer db.Close()
	var val int64
	if err := db.QueryRow(query, args...).Scan(&val); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return val
}
