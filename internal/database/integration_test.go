package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "poker.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	tables := []string{"players", "games", "player_games", "rounds", "votes"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running migrations twice is a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestWithTx tests commit and rollback through the transaction helper
func TestWithTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO players (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
			"p1", "Alice", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() commit error = %v", err)
	}

	sentinel := errors.New("abort")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO players (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
			"p2", "Bob", now, now); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx() error = %v, want %v", err, sentinel)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players").Scan(&count); err != nil {
		t.Fatalf("Failed to count players: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 player after rollback, got %d", count)
	}
}

// TestOpenRoundUniqueIndex verifies the storage guard behind the one-open-round rule
func TestOpenRoundUniqueIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := db.ExecContext(ctx, "INSERT INTO games (id, name, playable_cards, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		"g1", "Sprint", "[1,2,3]", now, now); err != nil {
		t.Fatalf("Failed to insert game: %v", err)
	}

	insertRound := "INSERT INTO rounds (id, game_id, created_at) VALUES (?, ?, ?)"
	if _, err := db.ExecContext(ctx, insertRound, "r1", "g1", now); err != nil {
		t.Fatalf("Failed to insert first round: %v", err)
	}

	_, err := db.ExecContext(ctx, insertRound, "r2", "g1", now)
	if err == nil {
		t.Fatal("expected second open round to violate the unique index")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	// Closing the first round frees the slot
	if _, err := db.ExecContext(ctx, "UPDATE rounds SET ended_at = ? WHERE id = ?", now, "r1"); err != nil {
		t.Fatalf("Failed to end round: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertRound, "r2", "g1", now); err != nil {
		t.Errorf("Failed to insert round after closing the first: %v", err)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := db.ExecContext(ctx, "INSERT INTO players (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		"p1", "concurrent", now, now); err != nil {
		t.Fatalf("Failed to create test player: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var name string
			if err := db.QueryRowContext(ctx, "SELECT name FROM players WHERE id = ?", "p1").Scan(&name); err != nil {
				t.Errorf("Concurrent read failed: %v", err)
				return
			}
			if name != "concurrent" {
				t.Errorf("Expected name 'concurrent', got '%s'", name)
			}
		}()
	}
	wg.Wait()
}
