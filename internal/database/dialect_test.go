package database

import (
	"strings"
	"testing"

	"hanzidrill/internal/config"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT store_value FROM kv_store WHERE store_key = ?",
			expected: "SELECT store_value FROM kv_store WHERE store_key = $1",
		},
		{
			name:     "PostgreSQL upsert",
			dialect:  NewPostgresDialect(),
			query:    NewPostgresDialect().UpsertKVQuery(),
			expected: "INSERT INTO kv_store (store_key, store_value, updated_at) VALUES ($1, $2, NOW()) ",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "DELETE FROM kv_store WHERE store_key = ?",
			expected: "DELETE FROM kv_store WHERE store_key = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if !strings.HasPrefix(result, tt.expected) {
				t.Errorf("RewriteQuery() = %v, want prefix %v", result, tt.expected)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantErr    bool
	}{
		{name: "empty defaults to sqlite", cfg: config.DatabaseConfig{}, wantDriver: "sqlite3"},
		{name: "postgresql alias", cfg: config.DatabaseConfig{Type: "PostgreSQL"}, wantDriver: "postgres"},
		{name: "mysql", cfg: config.DatabaseConfig{Type: "mysql"}, wantDriver: "mysql"},
		{name: "unknown", cfg: config.DatabaseConfig{Type: "oracle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, _, err := DialectFor(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DialectFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && dialect.DriverName() != tt.wantDriver {
				t.Errorf("DialectFor() driver = %v, want %v", dialect.DriverName(), tt.wantDriver)
			}
		})
	}
}
