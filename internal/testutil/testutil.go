package testutil

import (
	"path/filepath"
	"testing"

	"agreepoll/internal/config"
	"agreepoll/internal/db"

	"gorm.io/gorm"
)

const TestAdminKey = "test-admin-key"

// SetupTestDB opens a migrated SQLite store in a per-test temp dir.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.Config{DatabaseURL: filepath.Join(t.TempDir(), "votes.db")}
	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close(conn)
	})

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() config.Config {
	return config.Config{
		Port:        config.DefaultPort,
		DatabaseURL: "votes.db",
		AdminKey:    TestAdminKey,
		RecentLimit: config.DefaultRecentLimit,
		PollTitle:   "Should the park stay open at night?",
		PollBody:    "Vote **once** per household.",
	}
}
