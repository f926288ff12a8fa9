// Package testing provides testing utilities and helpers for the rfqdesk project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/rfqdesk/internal/database"
)

// NewTestDB creates a file-backed SQLite database in the test's temp dir and applies
// the embedded schema for name (e.g. "procurement"). Unknown names get an empty database.
// The database is closed automatically when the test ends; the returned cleanup
// function is idempotent and may be called earlier.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// A file rather than :memory: so every pooled connection sees the same database
	path := filepath.Join(t.TempDir(), name+".db")

	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
	t.Cleanup(cleanup)

	return db, cleanup
}

// NewTestDBWithSchema creates a test database and executes a custom schema on it.
func NewTestDBWithSchema(t *testing.T, name string, schema string) (*database.DB, func()) {
	t.Helper()

	db, cleanup := NewTestDB(t, name)
	if schema != "" {
		if _, err := db.Conn().Exec(schema); err != nil {
			cleanup()
			t.Fatalf("Failed to execute custom schema for test database %s: %v", name, err)
		}
	}

	return db, cleanup
}
