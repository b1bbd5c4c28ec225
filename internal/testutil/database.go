// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/storage"
)

// TestDB is a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. Migrations run
// immediately and the database is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedUser registers email, logs it in, and stores state as its ledger
// when state is non-nil.
func (db *TestDB) SeedUser(email string, state *ledger.State) {
	db.t.Helper()
	ctx := context.Background()

	if _, err := db.Storage.CreateUser(ctx, email); err != nil {
		db.t.Fatalf("failed to create user %q: %v", email, err)
	}
	if err := db.Storage.SetCurrentUser(ctx, email); err != nil {
		db.t.Fatalf("failed to log in %q: %v", email, err)
	}
	if state != nil {
		if err := db.Storage.SaveState(ctx, email, state); err != nil {
			db.t.Fatalf("failed to seed ledger for %q: %v", email, err)
		}
	}
}
