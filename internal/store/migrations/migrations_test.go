package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpThenCheck(t *testing.T) {
	db := openTestDB(t)

	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if err := Check(db); err != nil {
		t.Errorf("Check() after Up() error = %v", err)
	}

	// The capsules table must exist and be queryable.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM capsules").Scan(&count); err != nil {
		t.Errorf("querying capsules table: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh capsules table has %d rows, want 0", count)
	}
}

func TestUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Up(db); err != nil {
		t.Fatalf("first Up() error = %v", err)
	}
	if err := Up(db); err != nil {
		t.Errorf("second Up() error = %v", err)
	}
}

func TestCheck_UnmigratedDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := Check(db); err == nil {
		t.Error("Check() on unmigrated database expected error")
	}
}
