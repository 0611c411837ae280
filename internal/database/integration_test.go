package database

import (
	"context"
	"path/filepath"
	"testing"
)

const testMigrationsPath = "../../migrations"

// TestDatabaseIntegration tests initialization and migrations against SQLite
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test_integration.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	applied, err := db.RunMigrations(ctx, testMigrationsPath)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected at least one migration to be applied")
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "kv_store").Scan(&name)
	if err != nil {
		t.Errorf("Table kv_store not found: %v", err)
	}

	// A second run must be a no-op
	applied, err = db.RunMigrations(ctx, testMigrationsPath)
	if err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("re-run applied %v, want none", applied)
	}
}

func TestUpsertKVQuerySQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test_upsert.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, testMigrationsPath); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	for _, v := range []string{"first", "second"} {
		if _, err := db.ExecContext(ctx, db.Dialect.UpsertKVQuery(), "k", v); err != nil {
			t.Fatalf("upsert %q: %v", v, err)
		}
	}

	var got string
	if err := db.QueryRowContext(ctx, "SELECT store_value FROM kv_store WHERE store_key = ?", "k").Scan(&got); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got != "second" {
		t.Errorf("store_value = %v, want second", got)
	}
}

func TestRunMigrationsMissingDir(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test_missing.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if _, err := db.RunMigrations(context.Background(), t.TempDir()); err == nil {
		t.Error("RunMigrations() on empty dir should fail")
	}
}
