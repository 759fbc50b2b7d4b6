package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/database"
)

// TestOpen tests opening the fetch history database.
//
// WHY: The server opens the file given in DB_PATH before anything else. A path that
// cannot be opened must fail at startup instead of on the first recorded cycle.
func TestOpen(t *testing.T) {
	t.Run("creates parent directory and migrates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dashboard.db")

		db, err := database.Open(path)
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			t.Fatalf("Migrate() returned unexpected error: %v", err)
		}

		current, err := database.SchemaVersion(db)
		if err != nil {
			t.Fatalf("SchemaVersion() returned unexpected error: %v", err)
		}
		latest, err := database.LatestSchemaVersion()
		if err != nil {
			t.Fatalf("LatestSchemaVersion() returned unexpected error: %v", err)
		}
		if current != latest {
			t.Errorf("Expected schema version %d, got %d", latest, current)
		}
		if err := database.HealthCheck(db); err != nil {
			t.Errorf("HealthCheck() returned unexpected error: %v", err)
		}
	})

	t.Run("unusable path returns error without handle", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		if err := os.WriteFile(file, nil, 0o600); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}

		db, err := database.Open(filepath.Join(file, "dashboard.db"))
		if err == nil {
			db.Close()
			t.Fatal("Expected error when the parent is a file, got nil")
		}
		if db != nil {
			t.Error("Expected nil handle on error")
		}
	})
}
