package store

import (
	"errors"
	"testing"

	"timecapsule/internal/capsule"
	"timecapsule/internal/testutil"
)

// repeatingIDGenerator always mints the same identifier, to exercise the
// collision path.
type repeatingIDGenerator struct{ id string }

func (g repeatingIDGenerator) New() string { return g.id }

func newTestSQLiteStore(t *testing.T, idgen capsule.IDGenerator) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", idgen, capsule.NewNopLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	s := newTestSQLiteStore(t, testutil.NewStubIDGenerator())

	env := testEnvelope("greeting")
	id, err := s.Save(env)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.EncryptedContent != env.EncryptedContent {
		t.Errorf("encrypted_content = %q, want %q", loaded.EncryptedContent, env.EncryptedContent)
	}
	if loaded.PasswordHash != env.PasswordHash {
		t.Errorf("password_hash = %q, want %q", loaded.PasswordHash, env.PasswordHash)
	}
	if loaded.Label != "greeting" {
		t.Errorf("label = %q, want %q", loaded.Label, "greeting")
	}
	if !loaded.UnlockDate.Equal(env.UnlockDate) {
		t.Errorf("unlock_date = %v, want %v", loaded.UnlockDate, env.UnlockDate)
	}
	if !loaded.CreatedAt.Equal(env.CreatedAt) {
		t.Errorf("created_at = %v, want %v", loaded.CreatedAt, env.CreatedAt)
	}
}

func TestSQLiteStore_EmptyLabelRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t, testutil.NewStubIDGenerator())

	id, err := s.Save(testEnvelope(""))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Label != "" {
		t.Errorf("label = %q, want empty", loaded.Label)
	}
}

func TestSQLiteStore_Save_NoOverwrite(t *testing.T) {
	s := newTestSQLiteStore(t, repeatingIDGenerator{id: "fixed-id"})

	if _, err := s.Save(testEnvelope("first")); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if _, err := s.Save(testEnvelope("second")); err == nil {
		t.Error("second Save() with colliding identifier expected error")
	}

	// The original record must be untouched.
	loaded, err := s.Load("fixed-id")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Label != "first" {
		t.Errorf("label = %q, want %q", loaded.Label, "first")
	}
}

func TestSQLiteStore_Load_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t, testutil.NewStubIDGenerator())

	if _, err := s.Load("missing"); !errors.Is(err, capsule.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_SaveToLoadFrom(t *testing.T) {
	s := newTestSQLiteStore(t, testutil.NewStubIDGenerator())

	if err := s.SaveTo(testEnvelope("v1"), "my-note"); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	// An explicit location may be rewritten.
	if err := s.SaveTo(testEnvelope("v2"), "my-note"); err != nil {
		t.Fatalf("second SaveTo() error = %v", err)
	}

	loaded, err := s.LoadFrom("my-note")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Label != "v2" {
		t.Errorf("label = %q, want %q", loaded.Label, "v2")
	}

	if err := s.SaveTo(testEnvelope(""), ""); err == nil {
		t.Error("SaveTo() with empty location expected error")
	}
}

func TestSQLiteStore_List(t *testing.T) {
	s := newTestSQLiteStore(t, testutil.NewStubIDGenerator())

	idA, err := s.Save(testEnvelope("a"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	idB, err := s.Save(testEnvelope("b"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	capsules, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(capsules) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(capsules))
	}
	if capsules[idA].Label != "a" || capsules[idB].Label != "b" {
		t.Error("List() returned wrong records")
	}
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore("", testutil.NewStubIDGenerator(), capsule.NewNopLogger()); err == nil {
		t.Error("NewSQLiteStore(\"\") expected error")
	}
}
