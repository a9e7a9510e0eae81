package testutil

import (
	"testing"

	"custody-go/internal/custody"
	"custody-go/internal/database"
)

// NewTestDatabase creates a new in-memory SQLite database with all
// migrations applied. The database is closed when the test completes.
func NewTestDatabase(t *testing.T, clock custody.Clock, idgen custody.IDGenerator) custody.Database {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", clock, idgen)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
